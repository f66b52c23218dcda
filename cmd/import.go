package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importOwner uint

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a flat backup file into the catalog",
	Long: `Merges a flat backup file into the catalog. Existing records matching
by name are updated, unknown ones are created. Row-level problems are reported
and do not abort the rest of the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logg, _, err := newCLIService()
		if err != nil {
			return err
		}
		defer logg.Sync()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		result, err := svc.ImportAll(context.Background(), importOwner, f)
		if err != nil {
			return err
		}

		logg.Info("Import finished",
			zap.Int("inserted", result.TotalInserted()),
			zap.Int("updated", result.TotalUpdated()),
			zap.Int("errors", len(result.Errors)))
		for _, rowErr := range result.Errors {
			logg.Warn("Row skipped",
				zap.String("kind", rowErr.Kind),
				zap.String("name", rowErr.Name),
				zap.String("reason", rowErr.Reason))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().UintVar(&importOwner, "owner", 1, "owner id to import into")
	RootCmd.AddCommand(importCmd)
}
