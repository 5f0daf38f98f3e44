package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/internal/presentation/tui"
	"github.com/aretw0/drills/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "drills",
	Short: "DRiLLS explores logic synthesis optimizations with reinforcement learning",
	Long: `DRiLLS drives ABC through sequences of logic transformations, rewarding
sequences that shrink the design while meeting its timing or depth constraint.

Configuration is read from a YAML or JSON file (--config). DRILLS_* variables,
also read from a .env file in the working directory, override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "params.yml", "Path to the YAML or JSON configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides log_level")
	rootCmd.PersistentFlags().Bool("no-banner", false, "Do not print the banner")
}

// loadConfig reads --config and builds the logger it selects.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(level), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printBanner(cmd *cobra.Command) {
	if quiet, _ := cmd.Flags().GetBool("no-banner"); quiet || !isTerminal(os.Stdout) {
		return
	}
	tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(drills.Version))
}

// printMarkdown renders md with glamour on a terminal and verbatim otherwise.
func printMarkdown(cmd *cobra.Command, md string) {
	render := tui.NewRenderer(isTerminal(os.Stdout))
	out, err := render(md)
	if err != nil {
		out = md
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}
