// Package config loads the run configuration from YAML and supplies the
// retry policies for each pipeline stage.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lotwatch/internal/fetch"
)

// Duration is a time.Duration that decodes from YAML strings like "300s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full run configuration. Zero-value fields are filled from
// Default by Load.
type Config struct {
	// Workers is the number of browser sessions, and therefore the size of
	// the enrichment pool. Sessions are expensive; keep this small.
	Workers  int `yaml:"workers"`
	PageSize int `yaml:"page_size"`

	DBPath     string `yaml:"db_path"`
	ExportXLSX string `yaml:"export_xlsx"`
	ExportXML  string `yaml:"export_xml"`

	// ListingPrefix and EnrichPrefix tie a listing item URL to its sales
	// lookup URL by prefix substitution.
	ListingPrefix string `yaml:"listing_prefix"`
	EnrichPrefix  string `yaml:"enrich_prefix"`
	// CatalogURL is the JSON render endpoint used in full-catalog mode.
	CatalogURL string `yaml:"catalog_url"`

	BrowserTimeout Duration `yaml:"browser_timeout"`
	ListingSettle  Duration `yaml:"listing_settle"`
	EnrichSettle   Duration `yaml:"enrich_settle"`
	CatalogSettle  Duration `yaml:"catalog_settle"`
	RetryDelay     Duration `yaml:"retry_delay"`
	Cooldown       Duration `yaml:"cooldown"`

	EnrichAttempts  int `yaml:"enrich_attempts"`
	CatalogAttempts int `yaml:"catalog_attempts"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Workers:  5,
		PageSize: 10,

		DBPath:     "output/market_items.db",
		ExportXLSX: "output/market_items.xlsx",
		ExportXML:  "output/market_items.xml",

		ListingPrefix: "https://steamcommunity.com/market/listings/730/",
		EnrichPrefix:  "https://steamfolio.com/Item?name=",
		CatalogURL:    "https://steamcommunity.com/market/search/render/?appid=730&norender=1",

		BrowserTimeout: Duration(60 * time.Second),
		ListingSettle:  Duration(5 * time.Second),
		EnrichSettle:   Duration(10 * time.Second),
		CatalogSettle:  Duration(13 * time.Second),
		RetryDelay:     Duration(5 * time.Second),
		Cooldown:       Duration(300 * time.Second),

		EnrichAttempts:  5,
		CatalogAttempts: 5,
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: page_size must be at least 1, got %d", c.PageSize)
	}
	if c.EnrichAttempts < 1 {
		return fmt.Errorf("config: enrich_attempts must be at least 1, got %d", c.EnrichAttempts)
	}
	if c.ListingPrefix == "" || c.EnrichPrefix == "" {
		return fmt.Errorf("config: listing_prefix and enrich_prefix are required")
	}
	return nil
}

// ListingPolicy is the unbounded-retry policy for pagination: correctness
// over termination.
func (c Config) ListingPolicy() fetch.Policy {
	return fetch.Policy{
		SettleDelay: time.Duration(c.ListingSettle),
		RetryDelay:  time.Duration(c.RetryDelay),
		MaxAttempts: 0,
		Cooldown:    time.Duration(c.Cooldown),
	}
}

// EnrichPolicy bounds retries: a missing record is a recoverable loss.
func (c Config) EnrichPolicy() fetch.Policy {
	return fetch.Policy{
		SettleDelay: time.Duration(c.EnrichSettle),
		RetryDelay:  time.Duration(c.RetryDelay),
		MaxAttempts: c.EnrichAttempts,
		Cooldown:    time.Duration(c.Cooldown),
	}
}

// CatalogPolicy bounds retries on the JSON render endpoint.
func (c Config) CatalogPolicy() fetch.Policy {
	return fetch.Policy{
		SettleDelay: time.Duration(c.CatalogSettle),
		RetryDelay:  time.Duration(c.RetryDelay),
		MaxAttempts: c.CatalogAttempts,
		Cooldown:    time.Duration(c.Cooldown),
	}
}
