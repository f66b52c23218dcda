package sync_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"game-vault/core/database"
	"game-vault/feature/library"
	"game-vault/feature/library/models"
	"game-vault/feature/sync"
	"game-vault/feature/sync/fetch"
	"game-vault/feature/sync/selective"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*sync.Service, *library.Store) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	store := library.NewStore(db, zap.NewNop())
	cfg := sync.Config{Delimiter: ";", Encoding: "utf-8"}
	svc := sync.NewService(store, nil, "", fetch.New(zap.NewNop()), cfg, zap.NewNop())
	return svc, store
}

func seedCatalog(t *testing.T, store *library.Store) models.Game {
	t.Helper()
	status := models.Status{UserID: 1, Name: "Playing", Active: true, SortOrder: 1}
	require.NoError(t, store.DB().Create(&status).Error)
	platform := models.Platform{UserID: 1, Name: "Steam", Active: true, SortOrder: 1}
	require.NoError(t, store.DB().Create(&platform).Error)
	solo := models.PlayWith{UserID: 1, Name: "Solo", Active: true, SortOrder: 1}
	require.NoError(t, store.DB().Create(&solo).Error)

	game := models.Game{
		UserID: 1, Name: "Halo", StatusID: status.ID, PlatformID: &platform.ID,
		RatingGameplay: 8, Notes: "classic", ModifiedSinceExport: true,
	}
	require.NoError(t, store.DB().Create(&game).Error)
	require.NoError(t, store.DB().Create(&models.GamePlayWith{GameID: game.ID, PlayWithID: solo.ID}).Error)
	return game
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCatalog(t, store)

	data, err := svc.ExportAll(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Halo")

	// Import into a fresh catalog reproduces every row.
	svc2, store2 := newTestService(t)
	result, err := svc2.ImportAll(ctx, 1, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 4, result.TotalInserted()) // status, platform, play-with, game

	games, err := store2.Games(ctx, 1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Halo", games[0].Name)
	assert.Equal(t, "classic", games[0].Notes)

	linked, err := store2.PlayWithForGame(ctx, games[0].ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Solo", linked[0].Name)
}

func TestImportAllRejectsUnreadableFile(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ImportAll(context.Background(), 1, bytes.NewReader([]byte("no;usable;header\n1;2;3\n")))
	assert.Error(t, err)
}

func TestExportArchiveIncremental(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	game := seedCatalog(t, store)

	first, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.GamesExported)
	assert.False(t, first.Uploaded)

	r, err := zip.NewReader(bytes.NewReader(first.Data), int64(len(first.Data)))
	require.NoError(t, err)
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "Settings/Platforms.json")
	assert.Contains(t, names, "Games/Halo/info.json")

	// Unchanged catalog: the next incremental run skips the game.
	second, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.GamesExported)
	assert.Equal(t, 1, second.GamesSkipped)

	// Editing the game forces it back in.
	require.NoError(t, store.DB().Model(&models.Game{}).Where("id = ?", game.ID).
		Update("modified_since_export", true).Error)
	third, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, third.GamesExported)

	// A full run bypasses the cache entirely.
	full, err := svc.ExportArchive(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, full.GamesExported)
}

func TestExportArchiveFetchesAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logo.png" {
			w.Write([]byte("logo-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	svc, store := newTestService(t)
	ctx := context.Background()
	game := seedCatalog(t, store)
	require.NoError(t, store.DB().Model(&models.Game{}).Where("id = ?", game.ID).
		Updates(map[string]interface{}{
			"logo_url":  srv.URL + "/logo.png",
			"cover_url": srv.URL + "/missing.jpg",
		}).Error)

	first, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(first.Data), int64(len(first.Data)))
	require.NoError(t, err)
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "Games/Halo/logo.png")
	assert.NotContains(t, names, "Games/Halo/cover.jpg")

	// The failed cover is retried on the next incremental run without
	// re-exporting metadata.
	second, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.GamesExported)
	assert.Equal(t, 1, second.GamesRetried)
}

func TestExportArchiveViewCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCatalog(t, store)

	view := models.GameView{UserID: 1, Name: "Backlog", Configuration: []byte(`{"filter":"backlog"}`)}
	require.NoError(t, store.DB().Create(&view).Error)

	first, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ViewsExported)

	second, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ViewsExported)

	require.NoError(t, store.DB().Model(&models.GameView{}).Where("id = ?", view.ID).
		Update("configuration", []byte(`{"filter":"finished"}`)).Error)
	third, err := svc.ExportArchive(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, third.ViewsExported)
}

func TestExportSelective(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	game := seedCatalog(t, store)
	require.NoError(t, store.DB().Model(&models.Game{}).Where("id = ?", game.ID).
		Update("notes", "  messy   notes  ").Error)

	cfg := selective.Config{
		Global: selective.Rule{Mode: selective.ModeAsStored},
		PerRecord: map[string]selective.Override{
			"Halo": {Properties: map[string]selective.Rule{
				"Notes": {Mode: selective.ModeNormalized},
			}},
		},
	}

	data, err := svc.ExportSelective(ctx, 1, []uint{game.ID}, cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "messy notes")
	assert.NotContains(t, string(data), "  messy   notes  ")
}

func TestImportSelective(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCatalog(t, store)

	flat := "Type;Name;Status;Notes\n" +
		"Platform;Ignored;;\n" +
		"Game;Halo;Playing;incoming notes\n"

	cfg := selective.Config{
		Global: selective.Rule{Mode: selective.ModeCustom, CustomValue: "redacted"},
	}
	result, err := svc.ImportSelective(ctx, 1, bytes.NewReader([]byte(flat)), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	// Non-game rows are ignored entirely.
	platforms, err := store.Platforms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.Equal(t, "Steam", platforms[0].Name)

	games, err := store.Games(ctx, 1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "redacted", games[0].Notes)
}
