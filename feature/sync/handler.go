package sync

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"game-vault/core/logger"
	"game-vault/feature/sync/selective"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for catalog export and import.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/export", h.HandleExport)
	group.Post("/import", h.HandleImport)
	group.Get("/archive", h.HandleArchive)
	group.Post("/export/selective", h.HandleExportSelective)
	group.Post("/import/selective", h.HandleImportSelective)
}

// ownerID extracts the acting owner from the request. The service is
// single-user per deployment; the header exists for shared installs.
func ownerID(c *fiber.Ctx) uint {
	if v, err := strconv.ParseUint(c.Get("X-Owner-ID"), 10, 32); err == nil && v > 0 {
		return uint(v)
	}
	return 1
}

// HandleExport streams the full catalog as one flat file.
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	data, err := h.service.ExportAll(c.Context(), ownerID(c))
	if err != nil {
		l.Error("Export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	name := fmt.Sprintf("backup_%s.csv", time.Now().UTC().Format(backupTimeLayout))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(data)
}

// HandleImport merges an uploaded flat file into the catalog. The response
// carries per-kind counts and row-level errors; only an unreadable file is a
// request failure.
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.ImportAll(c.Context(), ownerID(c), bytes.NewReader(c.Body()))
	if err != nil {
		l.Error("Import failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleArchive builds and streams the bundled zip export. Pass full=true to
// bypass the incremental export cache.
func (h *Handler) HandleArchive(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	full := c.Query("full") == "true"

	result, err := h.service.ExportArchive(c.Context(), ownerID(c), full)
	if err != nil {
		l.Error("Archive export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	name := fmt.Sprintf("archive_%s.zip", time.Now().UTC().Format(backupTimeLayout))
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(result.Data)
}

type selectiveExportRequest struct {
	GameIDs []uint           `json:"game_ids"`
	Config  selective.Config `json:"config"`
}

// HandleExportSelective exports a chosen subset of games with per-property
// treatment applied.
func (h *Handler) HandleExportSelective(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req selectiveExportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	data, err := h.service.ExportSelective(c.Context(), ownerID(c), req.GameIDs, req.Config)
	if err != nil {
		l.Error("Selective export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(data)
}

type selectiveImportRequest struct {
	Data   string           `json:"data"`
	Config selective.Config `json:"config"`
}

// HandleImportSelective merges the game rows of a flat file with per-property
// treatment applied before the merge.
func (h *Handler) HandleImportSelective(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req selectiveImportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.service.ImportSelective(c.Context(), ownerID(c), bytes.NewReader([]byte(req.Data)), req.Config)
	if err != nil {
		l.Error("Selective import failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
