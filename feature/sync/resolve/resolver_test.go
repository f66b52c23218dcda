package resolve_test

import (
	"context"
	"testing"

	"game-vault/core/database"
	"game-vault/feature/library/models"
	"game-vault/feature/sync/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func TestStatusIDCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.Status{UserID: 1, Name: "Playing", SortOrder: 1}).Error)

	r := resolve.New(db, 1)

	id, ok := r.StatusID(ctx, "pLaYiNg")
	assert.True(t, ok)
	assert.NotZero(t, id)

	_, ok = r.StatusID(ctx, "Finished")
	assert.False(t, ok)

	_, ok = r.StatusID(ctx, "")
	assert.False(t, ok)
}

func TestResolverIsOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.Platform{UserID: 2, Name: "Steam", SortOrder: 1}).Error)

	r := resolve.New(db, 1)
	assert.Nil(t, r.PlatformID(ctx, "Steam"), "must not resolve another owner's platform")

	other := resolve.New(db, 2)
	assert.NotNil(t, other.PlatformID(ctx, "steam"))
}

func TestPlayWithIDsDropsUnresolvable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	solo := models.PlayWith{UserID: 1, Name: "Solo", SortOrder: 1}
	friends := models.PlayWith{UserID: 1, Name: "Friends", SortOrder: 2}
	require.NoError(t, db.Create(&solo).Error)
	require.NoError(t, db.Create(&friends).Error)

	r := resolve.New(db, 1)

	ids := r.PlayWithIDs(ctx, "solo, Nobody, FRIENDS")
	assert.Equal(t, []uint{solo.ID, friends.ID}, ids)

	assert.Empty(t, r.PlayWithIDs(ctx, ""))
}

func TestResolverSeesRowsCreatedMidBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := resolve.New(db, 1)

	assert.Nil(t, r.PlayedStatusID(ctx, "Beaten"))

	// Simulates a catalog row imported earlier in the same batch.
	require.NoError(t, db.Create(&models.PlayedStatus{UserID: 1, Name: "Beaten", SortOrder: 1}).Error)
	assert.NotNil(t, r.PlayedStatusID(ctx, "Beaten"))
}
