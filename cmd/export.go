package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"game-vault/core/config"
	"game-vault/core/database"
	"game-vault/core/logger"
	"game-vault/core/storage"
	"game-vault/feature/library"
	"game-vault/feature/library/models"
	"game-vault/feature/sync"
	"game-vault/feature/sync/fetch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOwner   uint
	exportArchive bool
	exportFull    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to a flat file or bundled archive",
	Long: `Writes a flat backup of the catalog into the configured output
directory. With --archive a bundled zip is produced instead, using the
incremental export cache unless --full is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logg, cfg, err := newCLIService()
		if err != nil {
			return err
		}
		defer logg.Sync()

		if err := os.MkdirAll(cfg.Sync.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		ctx := context.Background()
		ts := time.Now().UTC().Format("2006-01-02_15-04-05")

		if exportArchive {
			result, err := svc.ExportArchive(ctx, exportOwner, exportFull)
			if err != nil {
				return err
			}
			out := filepath.Join(cfg.Sync.OutputDir, "archive_"+ts+".zip")
			if err := os.WriteFile(out, result.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write archive: %w", err)
			}
			logg.Info("Archive written",
				zap.String("file", out),
				zap.Int("exported", result.GamesExported),
				zap.Int("retried", result.GamesRetried),
				zap.Int("skipped", result.GamesSkipped))
			return nil
		}

		data, err := svc.ExportAll(ctx, exportOwner)
		if err != nil {
			return err
		}
		out := filepath.Join(cfg.Sync.OutputDir, "backup_"+ts+".csv")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		logg.Info("Backup written", zap.String("file", out))
		return nil
	},
}

// newCLIService wires the sync service for one-shot CLI commands.
func newCLIService() (*sync.Service, *zap.Logger, *config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	var client storage.Client
	if c, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Storage client unavailable, archive uploads disabled", zap.Error(err))
	} else {
		client = c
	}

	store := library.NewStore(db, logg)
	svc := sync.NewService(store, client, cfg.Storage.Bucket, fetch.New(logg), cfg.Sync, logg)
	return svc, logg, cfg, nil
}

func init() {
	exportCmd.Flags().UintVar(&exportOwner, "owner", 1, "owner id to export")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "produce a bundled zip archive")
	exportCmd.Flags().BoolVar(&exportFull, "full", false, "bypass the incremental export cache")
	RootCmd.AddCommand(exportCmd)
}
