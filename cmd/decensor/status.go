package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"decensor/pkg/mirror"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local dataset mirror",
	Long: `Show the state of the local dataset mirror: where it lives, how many
batches and records it holds, and when it was last synced.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := mirror.New(cfg, nil)

	batches, records, err := m.Store().Stats()
	if err != nil {
		return err
	}

	lastSync, synced := m.LastSync()
	if !synced {
		lastSync = "never"
	}

	fmt.Printf("Data directory: %s\n", cfg.Mirror.DataDir)
	fmt.Printf("Batches:        %d\n", batches)
	fmt.Printf("Records:        %d\n", records)
	fmt.Printf("Last sync:      %s\n", lastSync)

	return nil
}
