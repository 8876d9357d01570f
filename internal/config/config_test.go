package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"CM", "SS", "CO", "IG", "RM"}, cfg.Region.PostcodePrefixes)
	assert.Len(t, cfg.Region.AuthorityIDs, 14)
	assert.Equal(t, "json", cfg.Cache.Driver)
	assert.Equal(t, 30, cfg.Cache.TTLDays)
	assert.Equal(t, 50, cfg.Cache.FlushEvery)
	assert.Len(t, cfg.Overpass.Servers, 4)
	assert.Equal(t, 2, cfg.Overpass.MaxRetries)
	assert.Equal(t, 30, cfg.Overpass.TimeoutSecs)
	assert.Equal(t, "essex_pubs_osm.json", cfg.Overpass.SnapshotPath)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, 70, cfg.Hunter.ConfidenceThreshold)
	assert.Equal(t, 500, cfg.Hunter.MaxSearches)
	assert.Equal(t, 1000, cfg.Hunter.MaxVerifications)
	assert.Equal(t, "mcp_unlocker", cfg.Scrape.UnlockerZone)
	assert.Equal(t, 2000, cfg.Enrich.MaxRequests)
	assert.Equal(t, 50, cfg.Enrich.SaveEvery)
	assert.InDelta(t, 0.8, cfg.Filter.FuzzyThreshold, 0.001)
	assert.Empty(t, cfg.Filter.Chains)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
filter:
  chains: [wetherspoon]
region:
  postcode_prefixes: [CB]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"wetherspoon"}, cfg.Filter.Chains)
	assert.Equal(t, []string{"CB"}, cfg.Region.PostcodePrefixes)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Cache.TTLDays)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("VENUE_CACHE_DRIVER", "postgres")
	t.Setenv("VENUE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("VENUE_SERVER_PORT", "3000")
	t.Setenv("VENUE_HUNTER_KEY", "hk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "hk", cfg.Hunter.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults validation depends on.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Region.PostcodePrefixes = []string{"CM"}
	cfg.Cache.Driver = "json"
	cfg.Filter.FuzzyThreshold = 0.8
	cfg.Overpass.Servers = []string{"https://overpass-api.de/api/interpreter"}
	cfg.Overpass.MaxRetries = 2
	cfg.Hunter.ConfidenceThreshold = 70
	cfg.Scrape.Attempts = 2
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"build", "websites", "contacts", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateEmails_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("emails")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hunter.key is required")

	cfg.Hunter.Key = "hk"
	assert.NoError(t, cfg.Validate("emails"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Driver = "postgres"

	err := cfg.Validate("websites")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.dsn is required")

	cfg.Cache.DSN = "postgres://localhost/venues"
	assert.NoError(t, cfg.Validate("websites"))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Driver = "redis"
	cfg.Filter.FuzzyThreshold = 1.5
	cfg.Overpass.MaxRetries = 0

	err := cfg.Validate("websites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver must be one of")
	assert.Contains(t, err.Error(), "fuzzy_threshold")
	assert.Contains(t, err.Error(), "max_retries")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
