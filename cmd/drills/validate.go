package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long:  `Loads and validates the configuration, then checks that the design and library files exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		files := []string{cfg.DesignFile}
		if cfg.Mapping.LibraryFile != "" && cfg.Target == "scl" {
			files = append(files, cfg.Mapping.LibraryFile)
		}
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		threshold, ok := cfg.Threshold()
		fmt.Fprintf(out, "design:        %s (%s)\n", cfg.DesignFile, cfg.Target)
		fmt.Fprintf(out, "actions:       %d transformations\n", len(cfg.Optimizations))
		fmt.Fprintf(out, "horizon:       %d steps, %d episodes\n", cfg.Iterations, cfg.Episodes)
		fmt.Fprintf(out, "objective:     minimize %s subject to %s", cfg.Objective.Optimize, cfg.Bounded())
		if ok {
			fmt.Fprintf(out, " <= %g", threshold)
		} else {
			fmt.Fprint(out, " (no threshold, never met)")
		}
		fmt.Fprintf(out, "\nreward:        %s\n", cfg.Reward)
		fmt.Fprintln(out, "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
