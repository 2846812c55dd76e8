// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/db"
	"market_backend/internal/platform/redis"
)

const (
	DefaultPath         = "configs/config.yaml"
	DefaultHTTPAddr     = ":8080"
	DefaultSQLitePath   = "data/market.db"
	DefaultCacheTTL     = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// DefaultStartingCash is the cash granted to a new account.
var DefaultStartingCash = decimal.NewFromInt(100000)

// Config holds all application configuration.
type Config struct {
	HTTPAddr  string `yaml:"http_addr" validate:"required"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	JWTSecret string `yaml:"jwt_secret"`

	Database db.Config    `yaml:"database"`
	Redis    redis.Config `yaml:"redis"`

	Finnhub struct {
		APIKeys []string `yaml:"api_keys"`
	} `yaml:"finnhub"`

	Markets  Markets        `yaml:"markets"`
	Calendar CalendarConfig `yaml:"calendar"`

	Trading struct {
		StartingCash decimal.Decimal `yaml:"starting_cash"`
	} `yaml:"trading"`

	Stream struct {
		PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
	} `yaml:"stream"`
}

// Markets holds the per asset class settings.
type Markets struct {
	Stock  MarketConfig `yaml:"stock"`
	Crypto MarketConfig `yaml:"crypto"`
	Forex  MarketConfig `yaml:"forex"`
}

// For returns the settings of class.
func (m Markets) For(class entity.AssetClass) MarketConfig {
	switch class {
	case entity.AssetClassCrypto:
		return m.Crypto
	case entity.AssetClassForex:
		return m.Forex
	default:
		return m.Stock
	}
}

// MarketConfig tunes the loops of one asset class. Zero durations and counts
// fall back to the usecase defaults.
type MarketConfig struct {
	Disabled           bool          `yaml:"disabled"`
	Symbols            []SymbolEntry `yaml:"symbols" validate:"dive"`
	PriceInterval      time.Duration `yaml:"price_interval" validate:"gte=0"`
	RequestDelay       time.Duration `yaml:"request_delay" validate:"gte=0"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
	HistoryConcurrency int           `yaml:"history_concurrency" validate:"gte=0,lte=64"`
	StoreRetries       int           `yaml:"store_retries" validate:"gte=0,lte=10"`
	Warmup             time.Duration `yaml:"warmup" validate:"gte=0"`
}

// SymbolEntry is a tracked symbol seeded at startup.
type SymbolEntry struct {
	Code string `yaml:"code" validate:"required"`
	Name string `yaml:"name"`
}

// CalendarConfig holds the market calendar settings.
type CalendarConfig struct {
	// EquityClosures are extra non-holiday closed dates (YYYY-MM-DD).
	EquityClosures []string `yaml:"equity_closures" validate:"dive,datetime=2006-01-02"`
	Forex          struct {
		CloseDay  string `yaml:"close_day" validate:"omitempty,weekday"`
		CloseAt   string `yaml:"close_at" validate:"omitempty,datetime=15:04"`
		ReopenDay string `yaml:"reopen_day" validate:"omitempty,weekday"`
		ReopenAt  string `yaml:"reopen_at" validate:"omitempty,datetime=15:04"`
	} `yaml:"forex"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPAddr = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	cfg.Database = db.ApplyEnv(cfg.Database)
	cfg.Redis = redis.ApplyEnv(cfg.Redis)

	// Defaults
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Database.Driver == "" {
		if cfg.Database.Host != "" || cfg.Database.InstanceName != "" {
			cfg.Database.Driver = db.DriverPostgres
		} else {
			cfg.Database.Driver = db.DriverSQLite
		}
	}
	if cfg.Database.Driver == db.DriverSQLite && cfg.Database.Path == "" {
		cfg.Database.Path = DefaultSQLitePath
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = DefaultCacheTTL
	}
	if cfg.Trading.StartingCash.IsZero() {
		cfg.Trading.StartingCash = DefaultStartingCash
	}
	if cfg.Stream.PollInterval == 0 {
		cfg.Stream.PollInterval = DefaultPollInterval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := parseWeekday(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Trading.StartingCash.IsNegative() {
		return errors.New("invalid config: trading.starting_cash must not be negative")
	}
	if c.Database.Driver == db.DriverPostgres && c.Database.Host == "" && c.Database.InstanceName == "" {
		return errors.New("invalid config: database.host or database.instance_name is required for postgres")
	}
	return nil
}

// ForexSchedule converts the configured cutover, falling back to the
// defaults for unset parts.
func (c CalendarConfig) ForexSchedule() calendar.ForexSchedule {
	s := calendar.DefaultForexSchedule
	if d, ok := parseWeekday(c.Forex.CloseDay); ok {
		s.CloseDay = d
	}
	if t, err := time.Parse("15:04", c.Forex.CloseAt); err == nil {
		s.CloseAt = calendar.At(t.Hour(), t.Minute())
	}
	if d, ok := parseWeekday(c.Forex.ReopenDay); ok {
		s.ReopenDay = d
	}
	if t, err := time.Parse("15:04", c.Forex.ReopenAt); err == nil {
		s.ReopenAt = calendar.At(t.Hour(), t.Minute())
	}
	return s
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}
