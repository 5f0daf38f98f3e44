package main

import (
	"fmt"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/pkg/adapters/mcp"
	"github.com/aretw0/drills/pkg/observability"
	"github.com/aretw0/drills/pkg/runner"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes one session of the configured design as MCP tools (reset, step,
catalog, best_known, state) so an agent can drive the optimization.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		store, closeStore, err := drills.NewRecordStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		env, err := drills.New(ctx, cfg,
			drills.WithSessionID("mcp"),
			drills.WithLogger(logger),
			drills.WithRecordStore(store),
			drills.WithLifecycleHooks(observability.LogHooks(logger)),
		)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := mcp.NewServer(env, mcp.WithLogger(logger))
		switch transport {
		case "stdio":
			// logs go to stderr; stdout carries JSON-RPC
			logger.Info("starting drills MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
