package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Region   RegionConfig   `yaml:"region" mapstructure:"region"`
	Filter   FilterConfig   `yaml:"filter" mapstructure:"filter"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	Hunter   HunterConfig   `yaml:"hunter" mapstructure:"hunter"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Files    FilesConfig    `yaml:"files" mapstructure:"files"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegionConfig selects the target region and its source feeds.
type RegionConfig struct {
	PostcodePrefixes []string `yaml:"postcode_prefixes" mapstructure:"postcode_prefixes"`
	AuthorityIDs     []int    `yaml:"authority_ids" mapstructure:"authority_ids"`
	FHRSURL          string   `yaml:"fhrs_url" mapstructure:"fhrs_url"`
	OpenPubsURL      string   `yaml:"open_pubs_url" mapstructure:"open_pubs_url"`
}

// FilterConfig overrides the built-in exclusion lists. Empty lists keep
// the defaults.
type FilterConfig struct {
	Chains          []string `yaml:"chains" mapstructure:"chains"`
	Keywords        []string `yaml:"keywords" mapstructure:"keywords"`
	GovDomains      []string `yaml:"gov_domains" mapstructure:"gov_domains"`
	PropertyDomains []string `yaml:"property_domains" mapstructure:"property_domains"`
	Directories     []string `yaml:"directories" mapstructure:"directories"`
	SocialDomains   []string `yaml:"social_domains" mapstructure:"social_domains"`
	FuzzyThreshold  float64  `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	ListsFile       string   `yaml:"lists_file" mapstructure:"lists_file"`
}

// CacheConfig configures the website cache backend.
type CacheConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	DSN        string `yaml:"dsn" mapstructure:"dsn"`
	TTLDays    int    `yaml:"ttl_days" mapstructure:"ttl_days"`
	FlushEvery int    `yaml:"flush_every" mapstructure:"flush_every"`
}

// OverpassConfig configures the OpenStreetMap query client.
type OverpassConfig struct {
	Servers       []string `yaml:"servers" mapstructure:"servers"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryDelayMs  int      `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	MaxRetries    int      `yaml:"max_retries" mapstructure:"max_retries"`
	MinIntervalMs int      `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	SnapshotPath  string   `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	Area          string   `yaml:"area" mapstructure:"area"`
}

// GoogleConfig holds Programmable Search credentials.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io settings and budgets.
type HunterConfig struct {
	Key                 string `yaml:"key" mapstructure:"key"`
	BaseURL             string `yaml:"base_url" mapstructure:"base_url"`
	DelayMs             int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxSearches         int    `yaml:"max_searches" mapstructure:"max_searches"`
	MaxVerifications    int    `yaml:"max_verifications" mapstructure:"max_verifications"`
	ConfidenceThreshold int    `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
}

// ScrapeConfig configures page fetching for contact extraction.
type ScrapeConfig struct {
	UnlockerKey  string `yaml:"unlocker_key" mapstructure:"unlocker_key"`
	UnlockerZone string `yaml:"unlocker_zone" mapstructure:"unlocker_zone"`
	UnlockerURL  string `yaml:"unlocker_url" mapstructure:"unlocker_url"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Attempts     int    `yaml:"attempts" mapstructure:"attempts"`
}

// EnrichConfig configures the shared enrichment loop.
type EnrichConfig struct {
	MaxRequests int `yaml:"max_requests" mapstructure:"max_requests"`
	DelayMs     int `yaml:"delay_ms" mapstructure:"delay_ms"`
	SaveEvery   int `yaml:"save_every" mapstructure:"save_every"`
	PauseEvery  int `yaml:"pause_every" mapstructure:"pause_every"`
	PauseMs     int `yaml:"pause_ms" mapstructure:"pause_ms"`
}

// FilesConfig names the pipeline's input and output files.
type FilesConfig struct {
	Venues    string `yaml:"venues" mapstructure:"venues"`
	Output    string `yaml:"output" mapstructure:"output"`
	FilterLog string `yaml:"filter_log" mapstructure:"filter_log"`
	Report    string `yaml:"report" mapstructure:"report"`
}

// ServerConfig configures the task server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("region.postcode_prefixes", []string{"CM", "SS", "CO", "IG", "RM"})
	v.SetDefault("region.authority_ids", []int{109, 110, 113, 117, 119, 121, 125, 128, 134, 143, 148, 152, 196, 199})
	v.SetDefault("region.fhrs_url", "https://ratings.food.gov.uk/OpenDataFiles")
	v.SetDefault("region.open_pubs_url", "https://www.getthedata.com/downloads/open_pubs.csv.zip")
	v.SetDefault("filter.fuzzy_threshold", 0.8)
	v.SetDefault("filter.lists_file", "")
	v.SetDefault("cache.driver", "json")
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.ttl_days", 30)
	v.SetDefault("cache.flush_every", 50)
	v.SetDefault("overpass.servers", []string{
		"https://overpass.kumi.systems/api/interpreter",
		"https://overpass-api.de/api/interpreter",
		"https://overpass.openstreetmap.ru/api/interpreter",
		"https://overpass.openstreetmap.fr/api/interpreter",
	})
	v.SetDefault("overpass.timeout_secs", 30)
	v.SetDefault("overpass.retry_delay_ms", 1000)
	v.SetDefault("overpass.max_retries", 2)
	v.SetDefault("overpass.min_interval_ms", 1000)
	v.SetDefault("overpass.snapshot_path", "essex_pubs_osm.json")
	v.SetDefault("overpass.area", "Essex")
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("google.key", "")
	v.SetDefault("google.cx", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.delay_ms", 1000)
	v.SetDefault("hunter.max_searches", 500)
	v.SetDefault("hunter.max_verifications", 1000)
	v.SetDefault("hunter.confidence_threshold", 70)
	v.SetDefault("scrape.unlocker_key", "")
	v.SetDefault("scrape.unlocker_zone", "mcp_unlocker")
	v.SetDefault("scrape.unlocker_url", "https://api.brightdata.com/request")
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.attempts", 2)
	v.SetDefault("enrich.max_requests", 2000)
	v.SetDefault("enrich.delay_ms", 500)
	v.SetDefault("enrich.save_every", 50)
	v.SetDefault("enrich.pause_every", 5)
	v.SetDefault("enrich.pause_ms", 1000)
	v.SetDefault("files.venues", "essex_venues.csv")
	v.SetDefault("files.output", "essex_venues_enriched.csv")
	v.SetDefault("files.filter_log", "filter_log.csv")
	v.SetDefault("files.report", "enrichment_report.json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
