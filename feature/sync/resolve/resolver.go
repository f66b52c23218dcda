package resolve

import (
	"context"
	"errors"
	"strings"

	"game-vault/feature/library/models"
	"game-vault/feature/sync/codec"

	"gorm.io/gorm"
)

// Resolver turns name-based catalog references into internal identifiers,
// scoped to one owner. Lookups are deferred per row, never pre-loaded, so
// catalog items created earlier in the same import batch are visible to
// later rows.
type Resolver struct {
	db      *gorm.DB
	ownerID uint
}

// New creates a resolver for one owner.
func New(db *gorm.DB, ownerID uint) *Resolver {
	return &Resolver{db: db, ownerID: ownerID}
}

// StatusID resolves a status name. The boolean reports whether the reference
// resolved; status is mandatory on new games, so the caller decides whether
// a miss is fatal.
func (r *Resolver) StatusID(ctx context.Context, name string) (uint, bool) {
	var status models.Status
	if !r.findByName(ctx, &status, name) {
		return 0, false
	}
	return status.ID, true
}

// PlatformID resolves an optional platform name. Unresolvable names are
// dropped silently (nil, no error).
func (r *Resolver) PlatformID(ctx context.Context, name string) *uint {
	var platform models.Platform
	if !r.findByName(ctx, &platform, name) {
		return nil
	}
	return &platform.ID
}

// PlayedStatusID resolves an optional played-status name.
func (r *Resolver) PlayedStatusID(ctx context.Context, name string) *uint {
	var played models.PlayedStatus
	if !r.findByName(ctx, &played, name) {
		return nil
	}
	return &played.ID
}

// PlayWithIDs resolves a comma-joined play-with name list. Members that do
// not resolve are dropped; the result preserves the input order.
func (r *Resolver) PlayWithIDs(ctx context.Context, joined string) []uint {
	names := codec.SplitNames(joined)
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		var pw models.PlayWith
		if r.findByName(ctx, &pw, name) {
			ids = append(ids, pw.ID)
		}
	}
	return ids
}

// findByName performs the owner-scoped case-insensitive natural-key lookup.
func (r *Resolver) findByName(ctx context.Context, dest any, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", r.ownerID, name).
		First(dest).Error
	return !errors.Is(err, gorm.ErrRecordNotFound) && err == nil
}
