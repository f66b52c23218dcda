package library

import (
	"context"
	"fmt"

	"game-vault/feature/library/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the owner-scoped repository over the catalog tables.
//
// Every game write path goes through an explicit pre-save stamp instead of an
// ambient ORM hook: the caller states whether the write changes exportable
// metadata, and only then is the modified-since-export flag raised.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a new library store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying connection for the sync engine.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Platforms returns the owner's platforms ordered by sort position.
func (s *Store) Platforms(ctx context.Context, ownerID uint) ([]models.Platform, error) {
	var out []models.Platform
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("sort_order").Find(&out).Error
	return out, err
}

// Statuses returns the owner's statuses ordered by sort position.
func (s *Store) Statuses(ctx context.Context, ownerID uint) ([]models.Status, error) {
	var out []models.Status
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("sort_order").Find(&out).Error
	return out, err
}

// PlayWiths returns the owner's play-with entries ordered by sort position.
func (s *Store) PlayWiths(ctx context.Context, ownerID uint) ([]models.PlayWith, error) {
	var out []models.PlayWith
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("sort_order").Find(&out).Error
	return out, err
}

// PlayedStatuses returns the owner's played statuses ordered by sort position.
func (s *Store) PlayedStatuses(ctx context.Context, ownerID uint) ([]models.PlayedStatus, error) {
	var out []models.PlayedStatus
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("sort_order").Find(&out).Error
	return out, err
}

// Views returns the owner's saved views by name.
func (s *Store) Views(ctx context.Context, ownerID uint) ([]models.GameView, error) {
	var out []models.GameView
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("name").Find(&out).Error
	return out, err
}

// Games returns the owner's games by name.
func (s *Store) Games(ctx context.Context, ownerID uint) ([]models.Game, error) {
	var out []models.Game
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("name").Find(&out).Error
	return out, err
}

// GamesByIDs returns the subset of the owner's games matching ids.
// IDs belonging to another owner are silently absent from the result.
func (s *Store) GamesByIDs(ctx context.Context, ownerID uint, ids []uint) ([]models.Game, error) {
	var out []models.Game
	err := s.db.WithContext(ctx).Where("user_id = ? AND id IN ?", ownerID, ids).Order("name").Find(&out).Error
	return out, err
}

// PlayWithForGame returns the play-with entries linked to one game.
func (s *Store) PlayWithForGame(ctx context.Context, gameID uint) ([]models.PlayWith, error) {
	var out []models.PlayWith
	err := s.db.WithContext(ctx).
		Joins("JOIN game_play_with ON game_play_with.play_with_id = play_withs.id").
		Where("game_play_with.game_id = ?", gameID).
		Order("play_withs.sort_order").
		Find(&out).Error
	return out, err
}

// SaveGame persists a game after stamping it. metadataChanged states whether
// the write touches exportable fields; pure bookkeeping writes pass false and
// leave the modified-since-export flag alone.
func (s *Store) SaveGame(ctx context.Context, game *models.Game, metadataChanged bool) error {
	StampGame(game, metadataChanged)
	game.ComputeAverageScore()
	if err := s.db.WithContext(ctx).Save(game).Error; err != nil {
		return fmt.Errorf("failed to save game %q: %w", game.Name, err)
	}
	return nil
}

// DeleteGame removes a game together with its join rows and export cache row.
func (s *Store) DeleteGame(ctx context.Context, ownerID, gameID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", ownerID, gameID).Delete(&models.Game{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete game %d: %w", gameID, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&models.GamePlayWith{}).Error; err != nil {
			return fmt.Errorf("failed to delete play-with links for game %d: %w", gameID, err)
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&models.GameExportCache{}).Error; err != nil {
			return fmt.Errorf("failed to delete export cache for game %d: %w", gameID, err)
		}
		s.logger.Info("Game deleted", zap.Uint("game_id", gameID), zap.Uint("owner_id", ownerID))
		return nil
	})
}

// StampGame is the pre-save transform applied to every persisted game mutation.
// It raises the modified-since-export flag when the write affects metadata.
func StampGame(game *models.Game, metadataChanged bool) {
	if metadataChanged {
		game.ModifiedSinceExport = true
	}
}
