package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultCatalogFile, cfg.Catalog.File)
	assert.Equal(t, DefaultLoansFile, cfg.Catalog.LoansFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
catalog:
  file: /tmp/books.dat
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/books.dat", cfg.Catalog.File)
	assert.Equal(t, DefaultLoansFile, cfg.Catalog.LoansFile) // untouched keys keep defaults
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFileCanDisableLoanLedger(t *testing.T) {
	path := writeConfig(t, `
catalog:
  loans_file: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Catalog.LoansFile)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
catalog:
  file: from-file.dat
logging:
  level: debug
`)

	t.Setenv("CATALOG_FILE", "from-env.dat")
	t.Setenv("CATALOG_LOANS_FILE", "") // set but empty disables the ledger
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.dat", cfg.Catalog.File)
	assert.Empty(t, cfg.Catalog.LoansFile)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsMissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "catalog: [not: a: mapping\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"empty catalog file", func(c *Config) { c.Catalog.File = " " }, true},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"fatal is not a selectable level", func(c *Config) { c.Logging.Level = "fatal" }, true},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"level is case-insensitive", func(c *Config) { c.Logging.Level = "DEBUG" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(cfg)

			err = cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
