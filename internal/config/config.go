package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultBaseURL is the coworking directory index page.
const DefaultBaseURL = "https://www.leportagesalarial.com/coworking/"

// Config holds the full application configuration.
type Config struct {
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig configures the listing and detail page fetches.
type ScrapeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	LinkMode    string `yaml:"link_mode" mapstructure:"link_mode"`
}

// DataConfig locates the dataset files. Relative paths resolve under Dir.
type DataConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	RawPath    string `yaml:"raw_path" mapstructure:"raw_path"`
	CleanPath  string `yaml:"clean_path" mapstructure:"clean_path"`
	SearchPath string `yaml:"search_path" mapstructure:"search_path"`
}

// GeocodeConfig configures address resolution.
type GeocodeConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	NominatimURL  string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	GoogleAPIKey  string `yaml:"google_api_key" mapstructure:"google_api_key"`
	CountryCodes  string `yaml:"country_codes" mapstructure:"country_codes"`
	MinDelayMs    int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	ErrorWaitMs   int    `yaml:"error_wait_ms" mapstructure:"error_wait_ms"`
	CacheEnabled  bool   `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheTTLDays  int    `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	CacheMisses   bool   `yaml:"cache_misses" mapstructure:"cache_misses"`
	AddressColumn string `yaml:"address_column" mapstructure:"address_column"`
}

// StoreConfig configures the run log and geocode cache database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COWORKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.base_url", DefaultBaseURL)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; coworking-map/1.0)")
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.link_mode", "resolve")
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.raw_path", "coworking_info.csv")
	v.SetDefault("data.clean_path", "coworking_info_cleaned.csv")
	v.SetDefault("data.search_path", "search.csv")
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "coworking-map")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.country_codes", "fr")
	v.SetDefault("geocode.min_delay_ms", 1000)
	v.SetDefault("geocode.max_retries", 3)
	v.SetDefault("geocode.error_wait_ms", 2000)
	v.SetDefault("geocode.cache_enabled", true)
	v.SetDefault("geocode.cache_ttl_days", 0)
	v.SetDefault("geocode.cache_misses", false)
	v.SetDefault("geocode.address_column", "Adresse")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "coworking.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scrape":
		if c.Scrape.BaseURL == "" {
			errs = append(errs, "scrape.base_url is required")
		}
		if c.Scrape.LinkMode != "resolve" && c.Scrape.LinkMode != "prefix" {
			errs = append(errs, fmt.Sprintf("scrape.link_mode %q must be resolve or prefix", c.Scrape.LinkMode))
		}
	case "geocode":
		switch c.Geocode.Provider {
		case "nominatim", "cascade":
		case "google":
			if c.Geocode.GoogleAPIKey == "" {
				errs = append(errs, "geocode.google_api_key is required for the google provider")
			}
		default:
			errs = append(errs, fmt.Sprintf("geocode.provider %q must be nominatim, google or cascade", c.Geocode.Provider))
		}
		if c.Geocode.MaxRetries < 0 {
			errs = append(errs, "geocode.max_retries must be >= 0")
		}
		if c.Geocode.MinDelayMs < 0 || c.Geocode.ErrorWaitMs < 0 {
			errs = append(errs, "geocode delays must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "store":
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ResolvedRawPath is the scraped dataset location.
func (d DataConfig) ResolvedRawPath() string { return d.resolve(d.RawPath) }

// ResolvedCleanPath is the cleaned dataset location.
func (d DataConfig) ResolvedCleanPath() string { return d.resolve(d.CleanPath) }

// ResolvedSearchPath is the last search result location.
func (d DataConfig) ResolvedSearchPath() string { return d.resolve(d.SearchPath) }

func (d DataConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || d.Dir == "" {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// Timeout is the per-request scrape timeout.
func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// MinDelay is the minimum spacing between geocoding calls.
func (g GeocodeConfig) MinDelay() time.Duration {
	return time.Duration(g.MinDelayMs) * time.Millisecond
}

// ErrorWait is the pause before retrying a transient geocoding failure.
func (g GeocodeConfig) ErrorWait() time.Duration {
	return time.Duration(g.ErrorWaitMs) * time.Millisecond
}

// CacheTTL is how long cached results stay valid. Zero keeps them forever.
func (g GeocodeConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLDays) * 24 * time.Hour
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
