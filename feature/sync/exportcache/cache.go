package exportcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"game-vault/feature/library/models"

	"gorm.io/gorm"
)

// Action is the incremental-export decision for one game.
type Action int

const (
	// ActionSkip leaves the game out of this export entirely.
	ActionSkip Action = iota
	// ActionFull re-exports metadata and re-fetches both assets.
	ActionFull
	// ActionAssetRetry re-fetches only the assets that failed last run,
	// leaving metadata export untouched.
	ActionAssetRetry
)

// Decision carries the action plus the per-asset retry flags.
type Decision struct {
	Action     Action
	RetryLogo  bool
	RetryCover bool
}

// Decide computes the incremental decision for one game. cache is nil when no
// row exists yet. A full run bypasses the cache entirely.
//
// The rules keep "content changed" apart from "an asset transiently failed":
// a flaky image host never forces a full metadata re-export, and a content
// edit always does.
func Decide(game *models.Game, cache *models.GameExportCache, full bool) Decision {
	if full || cache == nil || game.ModifiedSinceExport {
		return Decision{Action: ActionFull, RetryLogo: game.LogoURL != "", RetryCover: game.CoverURL != ""}
	}

	retryLogo := !cache.LogoFetched && game.LogoURL != "" && cache.LogoURL == game.LogoURL
	retryCover := !cache.CoverFetched && game.CoverURL != "" && cache.CoverURL == game.CoverURL
	if retryLogo || retryCover {
		return Decision{Action: ActionAssetRetry, RetryLogo: retryLogo, RetryCover: retryCover}
	}
	return Decision{Action: ActionSkip}
}

// Store persists export outcomes. Cache rows are created lazily on first
// export; losing one only degrades performance, never correctness.
type Store struct {
	db *gorm.DB
}

// NewStore creates an export cache store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the cache row for a game, or nil when none exists.
func (s *Store) Get(ctx context.Context, gameID uint) (*models.GameExportCache, error) {
	var cache models.GameExportCache
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).First(&cache).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

// Record upserts the outcome of a successful export of one game: timestamp,
// per-asset fetched flags and last-seen URLs. The game's modified-since-export
// flag is cleared only when the export was a full one.
func (s *Store) Record(ctx context.Context, game *models.Game, logoFetched, coverFetched, full bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cache models.GameExportCache
		err := tx.Where("game_id = ?", game.ID).First(&cache).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache = models.GameExportCache{GameID: game.ID}
		} else if err != nil {
			return err
		}

		cache.ExportedAt = time.Now().UTC()
		cache.LogoFetched = logoFetched
		cache.CoverFetched = coverFetched
		cache.LogoURL = game.LogoURL
		cache.CoverURL = game.CoverURL
		if err := tx.Save(&cache).Error; err != nil {
			return err
		}

		if full {
			game.ModifiedSinceExport = false
			if err := tx.Model(&models.Game{}).Where("id = ?", game.ID).
				Update("modified_since_export", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ConfigHash is the fingerprint of a view's opaque configuration blob.
func ConfigHash(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// ViewNeedsExport reports whether a view changed since its last export, along
// with the current hash to record afterwards.
func (s *Store) ViewNeedsExport(ctx context.Context, view *models.GameView) (bool, string, error) {
	hash := ConfigHash(view.Configuration)

	var cache models.ViewExportCache
	err := s.db.WithContext(ctx).Where("view_id = ?", view.ID).First(&cache).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, hash, nil
	}
	if err != nil {
		return false, "", err
	}
	return cache.ConfigHash != hash, hash, nil
}

// RecordView upserts the export outcome for one view.
func (s *Store) RecordView(ctx context.Context, viewID uint, hash string) error {
	var cache models.ViewExportCache
	err := s.db.WithContext(ctx).Where("view_id = ?", viewID).First(&cache).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cache = models.ViewExportCache{ViewID: viewID}
	} else if err != nil {
		return err
	}
	cache.ExportedAt = time.Now().UTC()
	cache.ConfigHash = hash
	return s.db.WithContext(ctx).Save(&cache).Error
}
