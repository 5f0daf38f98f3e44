package main

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/presentation/tui"
	"github.com/aretw0/drills/pkg/baseline"
	"github.com/aretw0/drills/pkg/runner"
	"github.com/spf13/cobra"
)

var greedyCmd = &cobra.Command{
	Use:   "greedy",
	Short: "Run the greedy baseline search",
	Long: `Applies every transformation of the catalog to the current design in parallel,
keeps the one with the lowest optimization metric and repeats for the configured
number of iterations. Winners are appended to results.csv in the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("output") {
			cfg.OutputDir, _ = cmd.Flags().GetString("output")
		}
		if cmd.Flags().Changed("iterations") {
			cfg.Iterations, _ = cmd.Flags().GetInt("iterations")
		}
		printBanner(cmd)

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()

		search, err := drills.NewGreedy(cfg, drills.WithLogger(logger))
		if err != nil {
			return err
		}
		steps, err := search.Run(sm.Context())
		printMarkdown(cmd, tui.GreedyMarkdown(steps, cfg.Objective.Optimize, cfg.Objective.Constrain))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "results written to %s\n", filepath.Join(cfg.GreedyOutputDir(), baseline.ResultsFile))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(greedyCmd)

	greedyCmd.Flags().StringP("output", "o", "", "Output directory (default: <playground_dir>/greedy)")
	greedyCmd.Flags().Int("iterations", 0, "Number of iterations (default: iterations from the configuration)")
}
