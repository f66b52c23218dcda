package merge

import (
	"context"
	"errors"
	"strings"

	"game-vault/feature/library"
	"game-vault/feature/library/models"
	"game-vault/feature/sync/codec"
	"game-vault/feature/sync/resolve"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine applies parsed flat-file records to the catalog with merge semantics:
// insert-or-update against the owner-scoped case-insensitive natural key.
//
// Records are processed in dependency order (catalogs, then views, then games,
// because games reference catalogs by name). Catalog kinds commit as one batch
// per kind; games commit one row per transaction so a bad row cannot roll back
// or poison its neighbours.
type Engine struct {
	db      *gorm.DB
	ownerID uint
	logger  *zap.Logger
}

// New creates a merge engine for one owner. The db handle is the single-writer
// persistence session for the duration of one import call.
func New(db *gorm.DB, ownerID uint, logger *zap.Logger) *Engine {
	return &Engine{db: db, ownerID: ownerID, logger: logger}
}

// Apply merges all records and reports per-kind counts plus row-level errors.
func (e *Engine) Apply(ctx context.Context, records []codec.Record) *Result {
	result := NewResult()

	byKind := make(map[string][]codec.Record)
	for _, rec := range records {
		byKind[rec.Type] = append(byKind[rec.Type], rec)
	}

	// Catalogs first: games resolve them by name.
	e.applyCatalogBatch(ctx, codec.TypePlatform, byKind[codec.TypePlatform], result, e.mergePlatform)
	e.applyCatalogBatch(ctx, codec.TypeStatus, byKind[codec.TypeStatus], result, e.mergeStatus)
	e.applyCatalogBatch(ctx, codec.TypePlayWith, byKind[codec.TypePlayWith], result, e.mergePlayWith)
	e.applyCatalogBatch(ctx, codec.TypePlayedStatus, byKind[codec.TypePlayedStatus], result, e.mergePlayedStatus)
	e.applyCatalogBatch(ctx, codec.TypeView, byKind[codec.TypeView], result, e.mergeView)

	for _, rec := range byKind[codec.TypeGame] {
		e.applyGameRow(ctx, rec, result)
	}

	return result
}

type rowOutcome int

const (
	outcomeUnchanged rowOutcome = iota
	outcomeInserted
	outcomeUpdated
)

// applyCatalogBatch commits one kind in a single transaction. A failure rolls
// back the kind, records an error, and the remaining kinds still run.
func (e *Engine) applyCatalogBatch(ctx context.Context, kind string, recs []codec.Record, result *Result, mergeFn func(*gorm.DB, codec.Record) (rowOutcome, error)) {
	if len(recs) == 0 {
		return
	}

	outcomes := make([]rowOutcome, 0, len(recs))
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			out, err := mergeFn(tx, rec)
			if err != nil {
				return &RowError{Kind: kind, Name: rec.Name, Reason: err.Error()}
			}
			outcomes = append(outcomes, out)
		}
		return nil
	})
	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			result.Errors = append(result.Errors, *rowErr)
		} else {
			result.addError(kind, "", err.Error())
		}
		e.logger.Warn("Catalog batch failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	for _, out := range outcomes {
		switch out {
		case outcomeInserted:
			result.addInserted(kind)
		case outcomeUpdated:
			result.addUpdated(kind)
		}
	}
}

func (e *Engine) mergePlatform(tx *gorm.DB, rec codec.Record) (rowOutcome, error) {
	var existing models.Platform
	if e.findByName(tx, &existing, rec.Name) {
		if existing.Color == rec.Color && existing.Active == rec.Active && existing.SortOrder == rec.SortOrder {
			return outcomeUnchanged, nil
		}
		existing.Color = rec.Color
		existing.Active = rec.Active
		existing.SortOrder = rec.SortOrder
		return outcomeUpdated, tx.Save(&existing).Error
	}
	item := models.Platform{
		UserID:    e.ownerID,
		Name:      rec.Name,
		Color:     rec.Color,
		Active:    rec.Active,
		SortOrder: e.sortPosition(tx, &models.Platform{}, rec.SortOrder),
	}
	return outcomeInserted, tx.Create(&item).Error
}

func (e *Engine) mergePlayWith(tx *gorm.DB, rec codec.Record) (rowOutcome, error) {
	var existing models.PlayWith
	if e.findByName(tx, &existing, rec.Name) {
		if existing.Color == rec.Color && existing.Active == rec.Active && existing.SortOrder == rec.SortOrder {
			return outcomeUnchanged, nil
		}
		existing.Color = rec.Color
		existing.Active = rec.Active
		existing.SortOrder = rec.SortOrder
		return outcomeUpdated, tx.Save(&existing).Error
	}
	item := models.PlayWith{
		UserID:    e.ownerID,
		Name:      rec.Name,
		Color:     rec.Color,
		Active:    rec.Active,
		SortOrder: e.sortPosition(tx, &models.PlayWith{}, rec.SortOrder),
	}
	return outcomeInserted, tx.Create(&item).Error
}

func (e *Engine) mergePlayedStatus(tx *gorm.DB, rec codec.Record) (rowOutcome, error) {
	var existing models.PlayedStatus
	if e.findByName(tx, &existing, rec.Name) {
		if existing.Color == rec.Color && existing.Active == rec.Active && existing.SortOrder == rec.SortOrder {
			return outcomeUnchanged, nil
		}
		existing.Color = rec.Color
		existing.Active = rec.Active
		existing.SortOrder = rec.SortOrder
		return outcomeUpdated, tx.Save(&existing).Error
	}
	item := models.PlayedStatus{
		UserID:    e.ownerID,
		Name:      rec.Name,
		Color:     rec.Color,
		Active:    rec.Active,
		SortOrder: e.sortPosition(tx, &models.PlayedStatus{}, rec.SortOrder),
	}
	return outcomeInserted, tx.Create(&item).Error
}

// mergeStatus matches in two tiers: a row declaring a special role with the
// default flag matches the owner's current default for that role first, so the
// canonical status can be renamed without breaking re-import identity. Other
// rows match by name like any catalog item.
func (e *Engine) mergeStatus(tx *gorm.DB, rec codec.Record) (rowOutcome, error) {
	special := models.ParseSpecialStatusType(rec.SpecialType)

	var existing models.Status
	found := false
	if special != models.SpecialNone && rec.IsDefault {
		err := tx.Where("user_id = ? AND special_type = ? AND is_default = ?", e.ownerID, special, true).
			First(&existing).Error
		found = err == nil
	}
	if !found {
		found = e.findByName(tx, &existing, rec.Name)
	}

	if found {
		if existing.Name == rec.Name && existing.Color == rec.Color && existing.Active == rec.Active &&
			existing.SortOrder == rec.SortOrder && existing.SpecialType == special && existing.IsDefault == rec.IsDefault {
			return outcomeUnchanged, nil
		}
		existing.Name = rec.Name
		existing.Color = rec.Color
		existing.Active = rec.Active
		existing.SortOrder = rec.SortOrder
		existing.SpecialType = special
		existing.IsDefault = rec.IsDefault
		return outcomeUpdated, tx.Save(&existing).Error
	}

	item := models.Status{
		UserID:      e.ownerID,
		Name:        rec.Name,
		Color:       rec.Color,
		Active:      rec.Active,
		SortOrder:   e.sortPosition(tx, &models.Status{}, rec.SortOrder),
		SpecialType: special,
		IsDefault:   rec.IsDefault,
	}
	// Best-effort pre-check; the store's constraint check at commit time is
	// authoritative for concurrent creates.
	if item.IsDefault && special != models.SpecialNone {
		var count int64
		tx.Model(&models.Status{}).
			Where("user_id = ? AND special_type = ? AND is_default = ?", e.ownerID, special, true).
			Count(&count)
		if count > 0 {
			item.IsDefault = false
		}
	}
	return outcomeInserted, tx.Create(&item).Error
}

// mergeView replaces description and the serialized filter/sort blob
// wholesale; the blob is opaque and never merged field by field.
func (e *Engine) mergeView(tx *gorm.DB, rec codec.Record) (rowOutcome, error) {
	blob := datatypes.JSON(nil)
	if strings.TrimSpace(rec.Configuration) != "" {
		blob = datatypes.JSON(rec.Configuration)
	}

	var existing models.GameView
	if e.findByName(tx, &existing, rec.Name) {
		if existing.Description == rec.Description && string(existing.Configuration) == string(blob) {
			return outcomeUnchanged, nil
		}
		existing.Description = rec.Description
		existing.Configuration = blob
		return outcomeUpdated, tx.Save(&existing).Error
	}
	item := models.GameView{
		UserID:        e.ownerID,
		Name:          rec.Name,
		Description:   rec.Description,
		Configuration: blob,
	}
	return outcomeInserted, tx.Create(&item).Error
}

// applyGameRow merges one game inside its own transaction. Any failure is
// contained to this row; the fresh transaction per row is the session reset
// that keeps a corrupted entity graph from poisoning subsequent rows.
func (e *Engine) applyGameRow(ctx context.Context, rec codec.Record, result *Result) {
	var outcome rowOutcome

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolver := resolve.New(tx, e.ownerID)

		statusID, statusOK := resolver.StatusID(ctx, rec.Status)
		platformID := resolver.PlatformID(ctx, rec.Platform)
		playedID := resolver.PlayedStatusID(ctx, rec.PlayedStatus)
		playWithIDs := resolver.PlayWithIDs(ctx, rec.PlayWith)

		var existing models.Game
		if e.findByName(tx, &existing, rec.Name) {
			changed, err := e.updateGame(tx, &existing, rec, statusID, statusOK, platformID, playedID, playWithIDs)
			if err != nil {
				return err
			}
			if changed {
				outcome = outcomeUpdated
			} else {
				outcome = outcomeUnchanged
			}
			return nil
		}

		if !statusOK {
			return &RowError{Kind: codec.TypeGame, Name: rec.Name,
				Reason: "unresolvable status " + quoteOrEmpty(rec.Status)}
		}

		game := models.Game{
			UserID:         e.ownerID,
			Name:           rec.Name,
			StatusID:       statusID,
			PlatformID:     platformID,
			PlayedStatusID: playedID,
			RatingGameplay: rec.RatingGameplay,
			RatingGraphics: rec.RatingGraphics,
			RatingStory:    rec.RatingStory,
			RatingSound:    rec.RatingSound,
			ReleaseYear:    rec.ReleaseYear,
			Notes:          rec.Notes,
			Comment:        rec.Comment,
			LogoURL:        rec.LogoURL,
			CoverURL:       rec.CoverURL,
		}
		game.ComputeAverageScore()
		library.StampGame(&game, true)
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		for _, pwID := range playWithIDs {
			if err := tx.Create(&models.GamePlayWith{GameID: game.ID, PlayWithID: pwID}).Error; err != nil {
				return err
			}
		}
		outcome = outcomeInserted
		return nil
	})

	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			result.Errors = append(result.Errors, *rowErr)
		} else {
			result.addError(codec.TypeGame, rec.Name, err.Error())
		}
		e.logger.Warn("Game row failed", zap.String("name", rec.Name), zap.Error(err))
		return
	}

	switch outcome {
	case outcomeInserted:
		result.addInserted(codec.TypeGame)
	case outcomeUpdated:
		result.addUpdated(codec.TypeGame)
	}
}

// updateGame overwrites every importable scalar and destructively replaces the
// play-with association set. An unresolvable status on an update keeps the
// prior status instead of failing. Writes are skipped entirely when nothing
// changed so re-importing an unmodified export is a no-op.
func (e *Engine) updateGame(tx *gorm.DB, game *models.Game, rec codec.Record, statusID uint, statusOK bool, platformID, playedID *uint, playWithIDs []uint) (bool, error) {
	wantStatus := game.StatusID
	if statusOK {
		wantStatus = statusID
	}

	currentIDs, err := e.currentPlayWithIDs(tx, game.ID)
	if err != nil {
		return false, err
	}

	unchanged := game.StatusID == wantStatus &&
		uintPtrEqual(game.PlatformID, platformID) &&
		uintPtrEqual(game.PlayedStatusID, playedID) &&
		game.ReleaseYear == rec.ReleaseYear &&
		game.RatingGameplay == rec.RatingGameplay &&
		game.RatingGraphics == rec.RatingGraphics &&
		game.RatingStory == rec.RatingStory &&
		game.RatingSound == rec.RatingSound &&
		game.Notes == rec.Notes &&
		game.Comment == rec.Comment &&
		game.LogoURL == rec.LogoURL &&
		game.CoverURL == rec.CoverURL &&
		uintSetEqual(currentIDs, playWithIDs)
	if unchanged {
		return false, nil
	}

	game.StatusID = wantStatus
	game.PlatformID = platformID
	game.PlayedStatusID = playedID
	game.ReleaseYear = rec.ReleaseYear
	game.RatingGameplay = rec.RatingGameplay
	game.RatingGraphics = rec.RatingGraphics
	game.RatingStory = rec.RatingStory
	game.RatingSound = rec.RatingSound
	game.Notes = rec.Notes
	game.Comment = rec.Comment
	game.LogoURL = rec.LogoURL
	game.CoverURL = rec.CoverURL
	game.ComputeAverageScore()
	library.StampGame(game, true)

	if err := tx.Save(game).Error; err != nil {
		return false, err
	}

	// Destructive replace: multi-valued associations have no stable per-link
	// identity in the flat format, so remove everything and insert the set.
	if err := tx.Where("game_id = ?", game.ID).Delete(&models.GamePlayWith{}).Error; err != nil {
		return false, err
	}
	for _, pwID := range playWithIDs {
		if err := tx.Create(&models.GamePlayWith{GameID: game.ID, PlayWithID: pwID}).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func (e *Engine) currentPlayWithIDs(tx *gorm.DB, gameID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.GamePlayWith{}).Where("game_id = ?", gameID).
		Pluck("play_with_id", &ids).Error
	return ids, err
}

// findByName is the owner-scoped case-insensitive natural-key lookup.
func (e *Engine) findByName(tx *gorm.DB, dest any, name string) bool {
	err := tx.Where("user_id = ? AND LOWER(name) = LOWER(?)", e.ownerID, name).First(dest).Error
	return err == nil
}

// sortPosition keeps the sort sequence dense and positive: imported positions
// are honored, but a zero position on creation is replaced with the next slot.
func (e *Engine) sortPosition(tx *gorm.DB, model any, imported int) int {
	if imported > 0 {
		return imported
	}
	var max int
	tx.Model(model).Where("user_id = ?", e.ownerID).
		Select("COALESCE(MAX(sort_order), 0)").Scan(&max)
	return max + 1
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uintSetEqual(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "\"" + s + "\""
}
