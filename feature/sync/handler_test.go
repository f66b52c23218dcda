package sync

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"game-vault/core/database"
	"game-vault/core/storage/mocks"
	"game-vault/feature/library"
	"game-vault/feature/library/models"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *library.Store, *mocks.Client) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	store := library.NewStore(db, zap.NewNop())
	mockClient := new(mocks.Client)

	app := fiber.New()
	feature := NewFeature(store, mockClient, "test-bucket", Config{Enabled: true, Delimiter: ";", Encoding: "utf-8"}, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, store, mockClient
}

func seedStatus(t *testing.T, store *library.Store) {
	t.Helper()
	require.NoError(t, store.DB().Create(&models.Status{UserID: 1, Name: "Playing", Active: true, SortOrder: 1}).Error)
}

func TestHandleImportThenExport(t *testing.T) {
	app, _, _ := setupTestApp(t)

	flat := "Type;Name;Color;Active;SortOrder;Status\n" +
		"Status;Playing;#00ff00;true;1;\n" +
		"Game;Halo;;;;Playing\n"

	req := httptest.NewRequest("POST", "/sync/import", bytes.NewReader([]byte(flat)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Empty(t, result["errors"])

	req = httptest.NewRequest("GET", "/sync/export", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Halo")
}

func TestHandleImportRejectsUnreadableFile(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/sync/import", bytes.NewReader([]byte("not;a;flat;file\n1;2;3;4\n")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleArchiveUploads(t *testing.T) {
	app, store, mockClient := setupTestApp(t)
	seedStatus(t, store)

	mockClient.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	req := httptest.NewRequest("GET", "/sync/archive?full=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))
	mockClient.AssertCalled(t, "PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleExportSelective(t *testing.T) {
	app, store, _ := setupTestApp(t)
	seedStatus(t, store)

	var status models.Status
	require.NoError(t, store.DB().First(&status).Error)
	game := models.Game{UserID: 1, Name: "Halo", StatusID: status.ID, Notes: "  spaced   out  "}
	require.NoError(t, store.DB().Create(&game).Error)

	body, err := json.Marshal(map[string]any{
		"game_ids": []uint{game.ID},
		"config":   map[string]any{"global": map[string]any{"mode": "normalized"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sync/export/selective", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "spaced out")
}

func TestHandleImportSelective(t *testing.T) {
	app, store, _ := setupTestApp(t)
	seedStatus(t, store)

	flat := "Type;Name;Status;Notes\nGame;Halo;Playing;raw\n"
	body, err := json.Marshal(map[string]any{
		"data":   flat,
		"config": map[string]any{"global": map[string]any{"mode": "custom", "custom_value": "fixed"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sync/import/selective", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	games, err := store.Games(req.Context(), 1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "fixed", games[0].Notes)
}

func TestFeatureDisabled(t *testing.T) {
	f := &Feature{cfg: Config{Enabled: false}}
	assert.False(t, f.IsEnabled())
	assert.Equal(t, "sync", f.Name())
}
