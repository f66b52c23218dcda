package exportcache_test

import (
	"context"
	"testing"

	"game-vault/core/database"
	"game-vault/feature/library/models"
	"game-vault/feature/sync/exportcache"

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

func TestDecide(t *testing.T) {
	logo := "http://img.example/logo.png"
	cover := "http://img.example/cover.jpg"

	game := &models.Game{LogoURL: logo, CoverURL: cover}
	clean := &models.GameExportCache{LogoFetched: true, CoverFetched: true, LogoURL: logo, CoverURL: cover}

	t.Run("NoCacheRowForcesFull", func(t *testing.T) {
		d := exportcache.Decide(game, nil, false)
		assert.Equal(t, exportcache.ActionFull, d.Action)
		assert.True(t, d.RetryLogo)
		assert.True(t, d.RetryCover)
	})

	t.Run("ModifiedFlagForcesFull", func(t *testing.T) {
		modified := &models.Game{LogoURL: logo, ModifiedSinceExport: true}
		d := exportcache.Decide(modified, clean, false)
		assert.Equal(t, exportcache.ActionFull, d.Action)
	})

	t.Run("FullModeBypassesCache", func(t *testing.T) {
		d := exportcache.Decide(game, clean, true)
		assert.Equal(t, exportcache.ActionFull, d.Action)
	})

	t.Run("CleanCacheSkips", func(t *testing.T) {
		d := exportcache.Decide(game, clean, false)
		assert.Equal(t, exportcache.ActionSkip, d.Action)
	})

	t.Run("FailedLogoSameURLRetriesLogoOnly", func(t *testing.T) {
		cache := &models.GameExportCache{LogoFetched: false, CoverFetched: true, LogoURL: logo, CoverURL: cover}
		d := exportcache.Decide(game, cache, false)
		assert.Equal(t, exportcache.ActionAssetRetry, d.Action)
		assert.True(t, d.RetryLogo)
		assert.False(t, d.RetryCover)
	})

	t.Run("FailedLogoChangedURLDoesNotRetry", func(t *testing.T) {
		cache := &models.GameExportCache{LogoFetched: false, CoverFetched: true, LogoURL: "http://img.example/old.png", CoverURL: cover}
		d := exportcache.Decide(game, cache, false)
		assert.Equal(t, exportcache.ActionSkip, d.Action)
	})

	t.Run("NoAssetURLNothingToRetry", func(t *testing.T) {
		bare := &models.Game{}
		cache := &models.GameExportCache{LogoFetched: false, CoverFetched: false}
		d := exportcache.Decide(bare, cache, false)
		assert.Equal(t, exportcache.ActionSkip, d.Action)
	})
}

func TestRecordClearsModifiedFlagOnlyOnFull(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := exportcache.NewStore(db)

	status := models.Status{UserID: 1, Name: "Playing", SortOrder: 1}
	require.NoError(t, db.Create(&status).Error)
	game := models.Game{UserID: 1, Name: "Halo", StatusID: status.ID,
		LogoURL: "http://img.example/logo.png", ModifiedSinceExport: true}
	require.NoError(t, db.Create(&game).Error)

	// Asset-retry success: cache updated, modified flag untouched.
	require.NoError(t, store.Record(ctx, &game, true, false, false))

	var persisted models.Game
	require.NoError(t, db.First(&persisted, game.ID).Error)
	assert.True(t, persisted.ModifiedSinceExport)

	cache, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.True(t, cache.LogoFetched)
	assert.False(t, cache.CoverFetched)
	assert.Equal(t, game.LogoURL, cache.LogoURL)

	// Full export success: flag cleared, same cache row updated in place.
	require.NoError(t, store.Record(ctx, &game, true, true, true))
	require.NoError(t, db.First(&persisted, game.ID).Error)
	assert.False(t, persisted.ModifiedSinceExport)

	var count int64
	db.Model(&models.GameExportCache{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestViewCache(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := exportcache.NewStore(db)

	view := models.GameView{UserID: 1, Name: "Backlog", Configuration: []byte(`{"a":1}`)}
	require.NoError(t, db.Create(&view).Error)

	needs, hash, err := store.ViewNeedsExport(ctx, &view)
	require.NoError(t, err)
	assert.True(t, needs, "no cache row yet")

	require.NoError(t, store.RecordView(ctx, view.ID, hash))

	needs, _, err = store.ViewNeedsExport(ctx, &view)
	require.NoError(t, err)
	assert.False(t, needs, "unchanged blob")

	view.Configuration = []byte(`{"a":2}`)
	needs, _, err = store.ViewNeedsExport(ctx, &view)
	require.NoError(t, err)
	assert.True(t, needs, "blob change invalidates the hash")
}
