package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lotwatch/internal/config"
	"lotwatch/internal/store"
)

var statusFlags struct {
	configPath string
	dbPath     string
	limit      int
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted item set",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.configPath, "config", "lotwatch.yaml", "Config file path")
	f.StringVar(&statusFlags.dbPath, "db", "", "Override the database path")
	f.IntVar(&statusFlags.limit, "limit", 20, "Number of items to list (0 = all)")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(statusFlags.configPath)
	if err != nil {
		return err
	}
	if statusFlags.dbPath != "" {
		cfg.DBPath = statusFlags.dbPath
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	total, err := st.Count()
	if err != nil {
		return err
	}
	items, err := st.List(statusFlags.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Store:   %s\n", cfg.DBPath)
	fmt.Fprintf(out, "Items:   %d\n", total)
	if len(items) == 0 {
		fmt.Fprintf(out, "Run 'lotwatch scrape' to populate the store.\n")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(out, "  #%-5d %-50s qty=%-6d %-10s sales w/m/y %d/%d/%d\n",
			it.Seq, it.Name, it.Qty, it.Price, it.SalesW, it.SalesM, it.SalesY)
	}
	if statusFlags.limit > 0 && total > len(items) {
		fmt.Fprintf(out, "  ... and %d more (use --limit 0 to list all)\n", total-len(items))
	}
	return nil
}
