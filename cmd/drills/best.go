package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/presentation/tui"
	"github.com/aretw0/drills/pkg/config"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/spf13/cobra"
)

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the persisted best-known records of the configured design",
	Long: `Reads the best-known records of the configured design from the record store.
Records outlive a process only with the redis backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		store, closeStore, err := drills.NewRecordStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		records, err := store.Load(cmd.Context(), cfg.RecordKey())
		if errors.Is(err, domain.ErrSessionNotFound) {
			if cfg.Store.Backend == config.BackendMemory {
				return fmt.Errorf("no records for %s: the memory backend does not persist records, configure store.backend redis", cfg.RecordKey())
			}
			return fmt.Errorf("no records for %s", cfg.RecordKey())
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		printMarkdown(cmd, tui.RecordsMarkdown(records, cfg.Objective.Optimize, cfg.Objective.Constrain))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bestCmd)
	bestCmd.Flags().Bool("json", false, "Print the records as JSON")
}
