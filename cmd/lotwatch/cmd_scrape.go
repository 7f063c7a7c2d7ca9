package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lotwatch/internal/config"
	"lotwatch/internal/pipeline"
	"lotwatch/internal/store"
)

var scrapeFlags struct {
	configPath string
	workers    int
	rebuild    bool
	dbPath     string
	xlsxPath   string
	xmlPath    string
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [seed-url...]",
	Short: "Harvest, enrich and persist the item set",
	Long: `Runs the full pipeline: harvest listing pages from the seed URLs,
enrich every item with sales history, reconcile gaps, and persist the
result. With no seed URLs the entire catalog is harvested through the
source's JSON endpoint instead.

The exit status reflects persistence only: export failures are logged
and the run still succeeds.`,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.configPath, "config", "lotwatch.yaml", "Config file path")
	f.IntVar(&scrapeFlags.workers, "workers", 0, "Override the enrichment worker count")
	f.BoolVar(&scrapeFlags.rebuild, "rebuild", false, "Drop all persisted items before the run")
	f.StringVar(&scrapeFlags.dbPath, "db", "", "Override the database path")
	f.StringVar(&scrapeFlags.xlsxPath, "xlsx", "", "Override the spreadsheet export path (empty string in config disables)")
	f.StringVar(&scrapeFlags.xmlPath, "xml", "", "Override the XML export path (empty string in config disables)")
}

func runScrape(cmd *cobra.Command, seeds []string) error {
	cfg, err := config.Load(scrapeFlags.configPath)
	if err != nil {
		return err
	}
	if scrapeFlags.workers > 0 {
		cfg.Workers = scrapeFlags.workers
	}
	if scrapeFlags.dbPath != "" {
		cfg.DBPath = scrapeFlags.dbPath
	}
	if scrapeFlags.xlsxPath != "" {
		cfg.ExportXLSX = scrapeFlags.xlsxPath
	}
	if scrapeFlags.xmlPath != "" {
		cfg.ExportXML = scrapeFlags.xmlPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if scrapeFlags.rebuild {
		if err := st.Rebuild(); err != nil {
			return fmt.Errorf("rebuild store: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.Wire(ctx, cfg, seeds, st)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Harvested: %d\n", summary.Harvested)
	fmt.Fprintf(out, "Persisted: %d (%d new, %d updated, %d unchanged)\n",
		summary.Canonical, summary.Stats.Inserted, summary.Stats.Updated, summary.Stats.Unchanged)
	if len(summary.Sentineled) > 0 {
		fmt.Fprintf(out, "Sales history unavailable for %d items:\n", len(summary.Sentineled))
		for _, name := range summary.Sentineled {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
