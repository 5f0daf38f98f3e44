package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/presentation/tui"
	"github.com/aretw0/drills/pkg/observability"
	"github.com/aretw0/drills/pkg/runner"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run training episodes against the synthesis environment",
	Long: `Runs episodes of the configured design with a random policy, or replays a
fixed transformation script (--script) for one episode.

A script file lists transformation names separated by newlines or ';'.
Lines starting with '#' are ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		printBanner(cmd)

		script, _ := cmd.Flags().GetString("script")
		seed, _ := cmd.Flags().GetUint64("seed")
		id, _ := cmd.Flags().GetString("session-id")
		episodes := cfg.Episodes
		if script != "" {
			episodes = 1
		}
		if cmd.Flags().Changed("episodes") {
			episodes, _ = cmd.Flags().GetInt("episodes")
		}

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		store, closeStore, err := drills.NewRecordStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		env, err := drills.New(ctx, cfg,
			drills.WithSessionID(id),
			drills.WithLogger(logger),
			drills.WithRecordStore(store),
			drills.WithLifecycleHooks(observability.LogHooks(logger)),
		)
		if err != nil {
			return err
		}
		defer env.Close()

		var policy runner.Policy
		if script != "" {
			names, err := runner.ReadScript(script)
			if err != nil {
				return err
			}
			if policy, err = runner.NewSequencePolicy(env.Catalog(), names); err != nil {
				return err
			}
		} else {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			logger.Debug("random policy", "seed", seed)
			policy = runner.NewRandomPolicy(seed)
		}

		r := runner.New(env, policy, runner.WithEpisodes(episodes), runner.WithLogger(logger))
		summaries, err := r.Run(ctx)

		md := tui.EpisodesMarkdown(summaries)
		if len(summaries) == 0 {
			md = tui.RecordsMarkdown(env.Records(), cfg.Objective.Optimize, cfg.Objective.Constrain)
		}
		printMarkdown(cmd, md)

		if err != nil && sm.Interrupted() {
			fmt.Fprintln(cmd.ErrOrStderr(), "interrupted")
			return nil
		}
		if err != nil {
			return err
		}
		for _, s := range summaries {
			if s.Err == nil {
				return nil
			}
		}
		return errors.New("every episode failed")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("episodes", "n", 0, "Number of episodes (default: episodes from the configuration)")
	runCmd.Flags().String("script", "", "File with a fixed transformation sequence to replay")
	runCmd.Flags().Uint64("seed", 0, "Seed of the random policy (default: time based)")
	runCmd.Flags().String("session-id", "default", "Session name used in logs and events")
}
