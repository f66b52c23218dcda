package sync

import (
	"game-vault/core/storage"
	"game-vault/feature/library"
	"game-vault/feature/sync/fetch"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	cfg     Config
	service *Service
	handler *Handler
}

// NewFeature creates the sync feature.
func NewFeature(store *library.Store, client storage.Client, bucket string, cfg Config, logger *zap.Logger) *Feature {
	svc := NewService(store, client, bucket, fetch.New(logger), cfg, logger)
	return &Feature{cfg: cfg, service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.cfg.Enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the underlying service for CLI use.
func (f *Feature) Service() *Service {
	return f.service
}
