package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"game-vault/core/storage"
	"game-vault/feature/library"
	"game-vault/feature/library/models"
	"game-vault/feature/sync/archive"
	"game-vault/feature/sync/codec"
	"game-vault/feature/sync/exportcache"
	"game-vault/feature/sync/fetch"
	"game-vault/feature/sync/merge"
	"game-vault/feature/sync/selective"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// backupTimeLayout names backup files and archive objects.
const backupTimeLayout = "2006-01-02_15-04-05"

// Service implements the export and import operations over one owner's
// catalog: flat-file export/import, the incremental bundled archive, and the
// selective variants.
type Service struct {
	store   *library.Store
	cache   *exportcache.Store
	fetcher *fetch.Fetcher
	client  storage.Client
	bucket  string
	cfg     Config
	logger  *zap.Logger
}

// NewService creates a sync service. client may be nil, in which case archive
// uploads are skipped.
func NewService(store *library.Store, client storage.Client, bucket string, fetcher *fetch.Fetcher, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		cache:   exportcache.NewStore(store.DB()),
		fetcher: fetcher,
		client:  client,
		bucket:  bucket,
		cfg:     cfg,
		logger:  logger,
	}
}

// snapshot is one consistent read of an owner's catalog.
type snapshot struct {
	platforms      []models.Platform
	statuses       []models.Status
	playWiths      []models.PlayWith
	playedStatuses []models.PlayedStatus
	views          []models.GameView
	games          []models.Game

	statusName       map[uint]string
	platformName     map[uint]string
	playedStatusName map[uint]string
}

func (s *Service) loadSnapshot(ctx context.Context, ownerID uint) (*snapshot, error) {
	snap := &snapshot{
		statusName:       make(map[uint]string),
		platformName:     make(map[uint]string),
		playedStatusName: make(map[uint]string),
	}

	var err error
	if snap.platforms, err = s.store.Platforms(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load platforms: %w", err)
	}
	if snap.statuses, err = s.store.Statuses(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load statuses: %w", err)
	}
	if snap.playWiths, err = s.store.PlayWiths(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load play-with entries: %w", err)
	}
	if snap.playedStatuses, err = s.store.PlayedStatuses(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load played statuses: %w", err)
	}
	if snap.views, err = s.store.Views(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}
	if snap.games, err = s.store.Games(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	for _, p := range snap.platforms {
		snap.platformName[p.ID] = p.Name
	}
	for _, st := range snap.statuses {
		snap.statusName[st.ID] = st.Name
	}
	for _, ps := range snap.playedStatuses {
		snap.playedStatusName[ps.ID] = ps.Name
	}
	return snap, nil
}

// gameRecord renders one game as a flat record, resolving id references back
// to names. References pointing at deleted catalog rows render empty.
func (s *Service) gameRecord(ctx context.Context, snap *snapshot, game *models.Game) (codec.Record, error) {
	rec := codec.Record{
		Type:           codec.TypeGame,
		Name:           game.Name,
		Status:         snap.statusName[game.StatusID],
		ReleaseYear:    game.ReleaseYear,
		RatingGameplay: game.RatingGameplay,
		RatingGraphics: game.RatingGraphics,
		RatingStory:    game.RatingStory,
		RatingSound:    game.RatingSound,
		Notes:          game.Notes,
		Comment:        game.Comment,
		LogoURL:        game.LogoURL,
		CoverURL:       game.CoverURL,
	}
	if game.PlatformID != nil {
		rec.Platform = snap.platformName[*game.PlatformID]
	}
	if game.PlayedStatusID != nil {
		rec.PlayedStatus = snap.playedStatusName[*game.PlayedStatusID]
	}

	linked, err := s.store.PlayWithForGame(ctx, game.ID)
	if err != nil {
		return rec, fmt.Errorf("failed to load play-with links for %q: %w", game.Name, err)
	}
	names := make([]string, 0, len(linked))
	for _, pw := range linked {
		names = append(names, pw.Name)
	}
	rec.PlayWith = codec.JoinNames(names)
	return rec, nil
}

// allRecords renders the full snapshot in dependency order.
func (s *Service) allRecords(ctx context.Context, snap *snapshot) ([]codec.Record, error) {
	records := make([]codec.Record, 0, len(snap.platforms)+len(snap.statuses)+len(snap.playWiths)+len(snap.playedStatuses)+len(snap.views)+len(snap.games))

	for _, p := range snap.platforms {
		records = append(records, codec.Record{Type: codec.TypePlatform, Name: p.Name, Color: p.Color, Active: p.Active, SortOrder: p.SortOrder})
	}
	for _, st := range snap.statuses {
		records = append(records, codec.Record{
			Type: codec.TypeStatus, Name: st.Name, Color: st.Color, Active: st.Active, SortOrder: st.SortOrder,
			SpecialType: string(st.SpecialType), IsDefault: st.IsDefault,
		})
	}
	for _, pw := range snap.playWiths {
		records = append(records, codec.Record{Type: codec.TypePlayWith, Name: pw.Name, Color: pw.Color, Active: pw.Active, SortOrder: pw.SortOrder})
	}
	for _, ps := range snap.playedStatuses {
		records = append(records, codec.Record{Type: codec.TypePlayedStatus, Name: ps.Name, Color: ps.Color, Active: ps.Active, SortOrder: ps.SortOrder})
	}
	for _, v := range snap.views {
		records = append(records, codec.Record{Type: codec.TypeView, Name: v.Name, Description: v.Description, Configuration: string(v.Configuration)})
	}
	for i := range snap.games {
		rec, err := s.gameRecord(ctx, snap, &snap.games[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Service) newCodec() (*codec.Codec, error) {
	c, err := codec.New(s.cfg.DelimiterRune(), s.cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("invalid sync configuration: %w", err)
	}
	return c, nil
}

// ExportAll renders the owner's complete catalog as one flat file.
func (s *Service) ExportAll(ctx context.Context, ownerID uint) ([]byte, error) {
	c, err := s.newCodec()
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	records, err := s.allRecords(ctx, snap)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Write(&buf, records); err != nil {
		return nil, fmt.Errorf("failed to write flat file: %w", err)
	}
	s.logger.Info("Catalog exported",
		zap.Uint("owner_id", ownerID), zap.Int("records", len(records)))
	return buf.Bytes(), nil
}

// ImportAll merges a flat file into the owner's catalog. An unreadable stream
// is the only operation-level error; row problems come back inside the result.
func (s *Service) ImportAll(ctx context.Context, ownerID uint, r io.Reader) (*merge.Result, error) {
	c, err := s.newCodec()
	if err != nil {
		return nil, err
	}
	records, err := c.Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flat file: %w", err)
	}

	result := merge.New(s.store.DB(), ownerID, s.logger).Apply(ctx, records)
	s.logger.Info("Catalog imported",
		zap.Uint("owner_id", ownerID),
		zap.Int("inserted", result.TotalInserted()),
		zap.Int("updated", result.TotalUpdated()),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// ArchiveResult summarizes one bundled export run.
type ArchiveResult struct {
	Data       []byte `json:"-"`
	ObjectName string `json:"object_name,omitempty"`
	Uploaded   bool   `json:"uploaded"`

	GamesExported int `json:"games_exported"`
	GamesRetried  int `json:"games_retried"`
	GamesSkipped  int `json:"games_skipped"`
	ViewsExported int `json:"views_exported"`
}

// ExportArchive builds the bundled zip export. When full is false the export
// cache decides per game between skipping, a full re-export and an asset-only
// retry; full bypasses the cache entirely. The archive is uploaded to object
// storage when a client is configured; an upload failure degrades to a local
// result instead of failing the run.
func (s *Service) ExportArchive(ctx context.Context, ownerID uint, full bool) (*ArchiveResult, error) {
	c, err := s.newCodec()
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	records, err := s.allRecords(ctx, snap)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &ArchiveResult{}
	var buf bytes.Buffer
	w := archive.NewWriter(&buf)

	var flat bytes.Buffer
	if err := c.Write(&flat, records); err != nil {
		return nil, fmt.Errorf("failed to write flat backup: %w", err)
	}
	if err := w.AddFile(archive.BackupPath(now.Format(backupTimeLayout)), flat.Bytes()); err != nil {
		return nil, err
	}

	if err := s.writeSettings(ctx, w, snap, full, result); err != nil {
		return nil, err
	}
	if err := s.writeGames(ctx, w, snap, full, result); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	result.Data = buf.Bytes()

	if s.client != nil {
		object := fmt.Sprintf("backups/%d/%s.zip", ownerID, now.Format(backupTimeLayout))
		_, err := s.client.PutObject(ctx, s.bucket, object,
			bytes.NewReader(result.Data), int64(len(result.Data)),
			minio.PutObjectOptions{ContentType: "application/zip"})
		if err != nil {
			s.logger.Warn("Archive upload failed, keeping local result",
				zap.String("object", object), zap.Error(err))
		} else {
			result.ObjectName = object
			result.Uploaded = true
		}
	}

	s.logger.Info("Archive export finished",
		zap.Uint("owner_id", ownerID), zap.Bool("full", full),
		zap.Int("exported", result.GamesExported),
		zap.Int("retried", result.GamesRetried),
		zap.Int("skipped", result.GamesSkipped))
	return result, nil
}

// writeSettings emits the per-catalog settings files. Catalog kinds are cheap
// and always written in full; views go through the config-hash cache so an
// incremental run only re-exports changed ones.
func (s *Service) writeSettings(ctx context.Context, w *archive.Writer, snap *snapshot, full bool, result *ArchiveResult) error {
	addJSON := func(kind string, v interface{}) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s settings: %w", kind, err)
		}
		return w.AddFile(archive.SettingsPath(kind), data)
	}

	if err := addJSON("Platforms", snap.platforms); err != nil {
		return err
	}
	if err := addJSON("Status", snap.statuses); err != nil {
		return err
	}
	if err := addJSON("PlayWith", snap.playWiths); err != nil {
		return err
	}
	if err := addJSON("PlayedStatus", snap.playedStatuses); err != nil {
		return err
	}

	changed := make([]models.GameView, 0, len(snap.views))
	for i := range snap.views {
		view := &snap.views[i]
		needed, hash, err := s.cache.ViewNeedsExport(ctx, view)
		if err != nil {
			return fmt.Errorf("failed to check view %q: %w", view.Name, err)
		}
		if !needed && !full {
			continue
		}
		changed = append(changed, *view)
		if err := s.cache.RecordView(ctx, view.ID, hash); err != nil {
			return fmt.Errorf("failed to record view export %q: %w", view.Name, err)
		}
	}
	result.ViewsExported = len(changed)
	return addJSON("Views", changed)
}

// writeGames emits one folder per game that the export cache selects.
func (s *Service) writeGames(ctx context.Context, w *archive.Writer, snap *snapshot, full bool, result *ArchiveResult) error {
	for i := range snap.games {
		game := &snap.games[i]

		cached, err := s.cache.Get(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("failed to read export cache for %q: %w", game.Name, err)
		}
		decision := exportcache.Decide(game, cached, full)

		switch decision.Action {
		case exportcache.ActionSkip:
			result.GamesSkipped++
			continue
		case exportcache.ActionFull:
			result.GamesExported++
			rec, err := s.gameRecord(ctx, snap, game)
			if err != nil {
				return err
			}
			info, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode game %q: %w", game.Name, err)
			}
			if err := w.AddFile(archive.GameInfoPath(game.Name), info); err != nil {
				return err
			}
		case exportcache.ActionAssetRetry:
			result.GamesRetried++
		}

		logoFetched := game.LogoURL == ""
		coverFetched := game.CoverURL == ""
		if decision.Action == exportcache.ActionAssetRetry && cached != nil {
			logoFetched = cached.LogoFetched
			coverFetched = cached.CoverFetched
		}

		if decision.RetryLogo {
			if data, ext, ok := s.fetcher.Fetch(ctx, game.LogoURL); ok {
				if err := w.AddFile(archive.GameAssetPath(game.Name, "logo", ext), data); err != nil {
					return err
				}
				logoFetched = true
			} else {
				logoFetched = false
			}
		}
		if decision.RetryCover {
			if data, ext, ok := s.fetcher.Fetch(ctx, game.CoverURL); ok {
				if err := w.AddFile(archive.GameAssetPath(game.Name, "cover", ext), data); err != nil {
					return err
				}
				coverFetched = true
			} else {
				coverFetched = false
			}
		}

		if err := s.cache.Record(ctx, game, logoFetched, coverFetched, decision.Action == exportcache.ActionFull); err != nil {
			return fmt.Errorf("failed to record export of %q: %w", game.Name, err)
		}
	}
	return nil
}

// ExportSelective renders only the given games, with per-property treatment
// applied to their free-text fields. Unknown ids and other owners' ids are
// silently absent.
func (s *Service) ExportSelective(ctx context.Context, ownerID uint, gameIDs []uint, cfg selective.Config) ([]byte, error) {
	c, err := s.newCodec()
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	games, err := s.store.GamesByIDs(ctx, ownerID, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	records := make([]codec.Record, 0, len(games))
	for i := range games {
		rec, err := s.gameRecord(ctx, snap, &games[i])
		if err != nil {
			return nil, err
		}
		rec.Notes = selective.ApplyExport(rec.Notes, cfg.Resolve(rec.Name, "Notes"))
		rec.Comment = selective.ApplyExport(rec.Comment, cfg.Resolve(rec.Name, "Comment"))
		records = append(records, rec)
	}

	var buf bytes.Buffer
	if err := c.Write(&buf, records); err != nil {
		return nil, fmt.Errorf("failed to write flat file: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportSelective merges only the game rows of a flat file, with per-property
// treatment applied before the merge. Non-game rows in the input are ignored.
func (s *Service) ImportSelective(ctx context.Context, ownerID uint, r io.Reader, cfg selective.Config) (*merge.Result, error) {
	c, err := s.newCodec()
	if err != nil {
		return nil, err
	}
	records, err := c.Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flat file: %w", err)
	}

	games := make([]codec.Record, 0, len(records))
	for _, rec := range records {
		if rec.Type != codec.TypeGame {
			continue
		}
		rec.Notes = selective.ApplyImport(rec.Notes, cfg.Resolve(rec.Name, "Notes"))
		rec.Comment = selective.ApplyImport(rec.Comment, cfg.Resolve(rec.Name, "Comment"))
		games = append(games, rec)
	}

	return merge.New(s.store.DB(), ownerID, s.logger).Apply(ctx, games), nil
}
