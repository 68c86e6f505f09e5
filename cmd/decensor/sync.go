package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"decensor/pkg/logger"
	"decensor/pkg/mirror"
)

var syncForce bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local dataset mirror",
	Long: `Refresh the local dataset mirror.

By default a sync is skipped when one already happened today; use --force
to refresh regardless. Unlike lookups, which fall back to cached data, a
failed listing here is reported as an error.`,
	Example: `  # Daily refresh (no-op if already synced today)
  decensor sync

  # Refresh regardless of the daily check
  decensor sync --force`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "sync even if already synced today")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	m := mirror.New(cfg, log)
	if err := m.Sync(cmd.Context(), syncForce); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	batches, records, err := m.Store().Stats()
	if err != nil {
		return err
	}

	log.InfoWithFields("mirror up to date", map[string]interface{}{
		"batches": batches,
		"records": records,
	})

	return nil
}
