// Package config resolves the tool's settings. Precedence, lowest to
// highest: built-in defaults, YAML file, environment variables, then
// command-line flags (applied by the caller).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults put the data files in the working directory, matching the
// run-where-your-data-is model of a single-user tool.
const (
	DefaultCatalogFile = "library.dat"
	DefaultLoansFile   = "library_loans.dat"
)

// Config holds everything tunable about the tool.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig locates the data files. An empty LoansFile disables loan
// persistence entirely; active loans are then forgotten between runs.
type CatalogConfig struct {
	File      string `yaml:"file"`
	LoansFile string `yaml:"loans_file"`
}

// LoggingConfig controls log verbosity and rendering.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration. An empty path means defaults plus
// environment only; a named file that cannot be read or parsed is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Catalog: CatalogConfig{
			File:      DefaultCatalogFile,
			LoansFile: DefaultLoansFile,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	// LookupEnv so CATALOG_LOANS_FILE="" can disable the ledger.
	if v, ok := os.LookupEnv("CATALOG_FILE"); ok {
		cfg.Catalog.File = v
	}
	if v, ok := os.LookupEnv("CATALOG_LOANS_FILE"); ok {
		cfg.Catalog.LoansFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate rejects values the rest of the program would choke on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.File) == "" {
		return fmt.Errorf("catalog.file must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format %q: want auto, console or json", c.Logging.Format)
	}
	return nil
}
