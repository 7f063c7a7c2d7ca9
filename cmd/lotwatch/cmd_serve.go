package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lotwatch/internal/config"
	"lotwatch/internal/mcpserver"
	"lotwatch/internal/store"
)

var serveFlags struct {
	configPath string
	dbPath     string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the item set over MCP on stdio",
	Long: `Starts an MCP server over stdin/stdout exposing read-only tools over
the persisted item set.

The server monitors for parent process death and self-terminates when
the client disconnects, so no zombie processes accumulate.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configPath, "config", "lotwatch.yaml", "Config file path")
	f.StringVar(&serveFlags.dbPath, "db", "", "Override the database path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveFlags.configPath)
	if err != nil {
		return err
	}
	if serveFlags.dbPath != "" {
		cfg.DBPath = serveFlags.dbPath
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)
	return mcpserver.NewServer(st, version).Run(ctx)
}
