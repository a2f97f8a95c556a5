package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stockfolio/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. STOCKFOLIO_QUOTES_CACHE_TTL.
const EnvPrefix = "STOCKFOLIO"

type Server struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type Quotes struct {
	BaseURL              string        `mapstructure:"base_url"`
	UserAgent            string        `mapstructure:"user_agent"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheMaxItems        int           `mapstructure:"cache_max_items"`
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout"`
	MaxRequestsPerMinute int           `mapstructure:"max_requests_per_minute"`
	Burst                int           `mapstructure:"burst"`
	MinRequestInterval   time.Duration `mapstructure:"min_request_interval"`
}

type Store struct {
	Driver string `mapstructure:"driver"` // memory | sqlite
	Path   string `mapstructure:"path"`
}

type Portfolio struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	Pretty     bool   `mapstructure:"pretty"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	Quotes    Quotes    `mapstructure:"quotes"`
	Store     Store     `mapstructure:"store"`
	Portfolio Portfolio `mapstructure:"portfolio"`
	Log       Log       `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeout: 10 * time.Second, AllowedOrigins: []string{"*"}},
		Quotes: Quotes{
			BaseURL:              "https://query2.finance.yahoo.com",
			UserAgent:            "stockfolio/1.0",
			CacheTTL:             5 * time.Minute,
			CacheMaxItems:        10000,
			FetchTimeout:         8 * time.Second,
			MaxRequestsPerMinute: 60,
			Burst:                5,
		},
		Store:     Store{Driver: "sqlite", Path: "data/stockfolio.db"},
		Portfolio: Portfolio{MaxConcurrency: 4},
		Log:       Log{Level: "info", MaxSizeMB: 100, MaxBackups: 7, MaxAgeDays: 30},
	}
}

// Logging converts the log section for the logging package.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Pretty:     c.Log.Pretty,
		FilePath:   c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Validate rejects settings the binaries cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: want memory or sqlite", c.Store.Driver))
	}
	if c.Portfolio.MaxConcurrency < 1 {
		errs = append(errs, errors.New("portfolio.max_concurrency must be at least 1"))
	}
	if c.Quotes.Burst < 0 || c.Quotes.MaxRequestsPerMinute < 0 {
		errs = append(errs, errors.New("quotes rate limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads a JSON, YAML or TOML config from path on top of Default().
// With an empty path it looks for config.{json,yaml,toml} in the working
// directory; a missing file yields defaults. A .env file is loaded first and
// STOCKFOLIO_* variables override file values (PORT is honored too).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return Default(), fmt.Errorf("bind env: %w", err)
	}

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Default(), fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("quotes.base_url", d.Quotes.BaseURL)
	v.SetDefault("quotes.user_agent", d.Quotes.UserAgent)
	v.SetDefault("quotes.cache_ttl", d.Quotes.CacheTTL)
	v.SetDefault("quotes.cache_max_items", d.Quotes.CacheMaxItems)
	v.SetDefault("quotes.fetch_timeout", d.Quotes.FetchTimeout)
	v.SetDefault("quotes.max_requests_per_minute", d.Quotes.MaxRequestsPerMinute)
	v.SetDefault("quotes.burst", d.Quotes.Burst)
	v.SetDefault("quotes.min_request_interval", d.Quotes.MinRequestInterval)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("portfolio.max_concurrency", d.Portfolio.MaxConcurrency)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}
