// lotwatch walks a marketplace listing source page by page, enriches each
// item with sales history from a second source, and reconciles the result
// into a local database plus spreadsheet and XML exports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lotwatch/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "lotwatch",
	Short: "Marketplace listing scraper with sales enrichment",
	Long: "lotwatch walks a marketplace listing source page by page, enriches\n" +
		"each item with sales history from a second source, and reconciles the\n" +
		"result into a local database plus spreadsheet and XML exports.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text or json)")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
