// Package config loads process configuration from an optional TOML file and
// environment variables. Environment values override file values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"budgetlite/internal/core"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// FileEnv names the variable holding the path of the optional TOML file.
const FileEnv = "BUDGETLITE_CONFIG"

var validBackends = []string{"memory", "sqlite"}

type Config struct {
	// HTTP Server
	Port string `toml:"port"`

	// Backend selection
	DataBackend    string `toml:"data_backend"`
	SQLiteDBPath   string `toml:"sqlite_db_path"`
	CategoriesFile string `toml:"categories_file"`
	SeedDefaults   bool   `toml:"seed_defaults"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Presentation
	CurrencyCode string `toml:"currency_code"`
	Locale       string `toml:"locale"`
	TimeZone     string `toml:"time_zone"`

	// Stats cache, disabled when StatsCacheSize is 0
	StatsCacheSize    int           `toml:"stats_cache_size"`
	StatsCacheTTL     time.Duration `toml:"-"`
	StatsCacheTTLText string        `toml:"stats_cache_ttl"`

	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:           "8081",
		DataBackend:    "memory",
		SQLiteDBPath:   "./data/budgetlite.db",
		SeedDefaults:   true,
		AMQPExchange:   "budgetlite",
		CurrencyCode:   "USD",
		Locale:         "en-US",
		TimeZone:       "UTC",
		StatsCacheSize: 24,
		StatsCacheTTL:  5 * time.Minute,
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// BUDGETLITE_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		slog.Warn("Ignoring unknown config keys", "file", path, "keys", keys)
	}
	if c.StatsCacheTTLText != "" {
		d, err := time.ParseDuration(c.StatsCacheTTLText)
		if err != nil {
			return fmt.Errorf("config file %s: stats_cache_ttl: %w", path, err)
		}
		c.StatsCacheTTL = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.CategoriesFile = getEnv("CATEGORIES_FILE", c.CategoriesFile)
	c.SeedDefaults = getEnvBool("SEED_DEFAULTS", c.SeedDefaults)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.CurrencyCode = getEnv("CURRENCY_CODE", c.CurrencyCode)
	c.Locale = getEnv("LOCALE", c.Locale)
	c.TimeZone = getEnv("TIME_ZONE", c.TimeZone)

	c.StatsCacheSize = getEnvInt("STATS_CACHE_SIZE", c.StatsCacheSize)
	c.StatsCacheTTL = getEnvDuration("STATS_CACHE_TTL", c.StatsCacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := currency.ParseISO(c.CurrencyCode); err != nil {
		errs = append(errs, fmt.Sprintf("invalid currency code '%s': must be an ISO-4217 code", c.CurrencyCode))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}

	if c.StatsCacheSize < 0 || c.StatsCacheSize > 10000 {
		errs = append(errs, fmt.Sprintf("invalid stats cache size %d: must be between 0 and 10000", c.StatsCacheSize))
	}
	if c.StatsCacheSize > 0 && c.StatsCacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid stats cache TTL %v: must be at least 1 second", c.StatsCacheTTL))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Calendar returns the calendar for the configured time zone.
func (c *Config) Calendar() (core.Calendar, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return core.Calendar{}, fmt.Errorf("time zone %q: %w", c.TimeZone, err)
	}
	return core.NewCalendar(loc), nil
}

// Formatter returns the money formatter for the configured currency and locale.
func (c *Config) Formatter() (*core.Formatter, error) {
	return core.NewFormatter(c.CurrencyCode, c.Locale)
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, errors.New("invalid log level '" + s + "': must be debug, info, warn or error")
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
