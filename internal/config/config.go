package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend   string
	SQLiteDBPath  string
	DataDirectory string

	// AMQP (empty URL disables the mirror leg)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (credentials themselves are read by the sheets
	// adapter; these are only validated here)
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleConfigSheetName string

	// Exchange rate
	RateURL             string
	RateRefreshInterval time.Duration

	// Display defaults
	DisplayCurrency string

	// Category registry
	CategoryRenameStrict bool

	// Persistence queue
	PersistQueueSize int

	// Loading screen
	LoadingSeed    int64
	LoadingVariant string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/kakeibo.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "./data"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kakeibo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_mutations"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleConfigSheetName: getEnv("GOOGLE_CONFIG_SHEET_NAME", "Config"),

		RateURL:             getEnv("RATE_URL", ""),
		RateRefreshInterval: getEnvDuration("RATE_REFRESH_INTERVAL", time.Hour),

		DisplayCurrency: getEnv("DISPLAY_CURRENCY", "eur"),

		CategoryRenameStrict: getEnvBool("CATEGORY_RENAME_STRICT", false),

		PersistQueueSize: getEnvInt("PERSIST_QUEUE_SIZE", 64),

		LoadingSeed:    getEnvInt64("LOADING_SEED", 0),
		LoadingVariant: getEnv("LOADING_VARIANT", ""),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sheets", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sheets sqlite]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == "sheets" && c.GoogleSpreadsheetID == "" {
		errs = append(errs, "GOOGLE_SPREADSHEET_ID is required when using sheets backend")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateURL != "" {
		if parsed, err := url.Parse(c.RateURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid rate URL '%s': must be http(s)", c.RateURL))
		}
	}
	if c.RateRefreshInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid rate refresh interval %v: must be at least 1 minute", c.RateRefreshInterval))
	} else if c.RateRefreshInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid rate refresh interval %v: must be at most 24 hours", c.RateRefreshInterval))
	}

	switch strings.ToLower(c.DisplayCurrency) {
	case "eur", "jpy":
	default:
		errs = append(errs, fmt.Sprintf("invalid display currency '%s': must be 'eur' or 'jpy'", c.DisplayCurrency))
	}

	if c.PersistQueueSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid persist queue size %d: must be at least 1", c.PersistQueueSize))
	} else if c.PersistQueueSize > 10000 {
		errs = append(errs, fmt.Sprintf("invalid persist queue size %d: must be at most 10000", c.PersistQueueSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether the mirror leg is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
