// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. Command-line flags take
// precedence over these values and are applied by the commands.
type Config struct {
	JSONPath     string
	OutDir       string
	MediaDir     string
	DatabasePath string
	Since        string
	Limit        int
	TMDBAPIKey   string
	AliasesPath  string
	RulesPath    string
	LogLevel     string
	BotToken     string
	ReportChatID int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		JSONPath:     os.Getenv("IMPORT_JSON_PATH"),
		OutDir:       envOrDefault("TELEGRAM_ETL_OUT", "./data/etl"),
		MediaDir:     os.Getenv("IMPORT_MEDIA_DIR"),
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/catalog.db"),
		Since:        os.Getenv("TELEGRAM_ETL_SINCE"),
		TMDBAPIKey:   os.Getenv("TMDB_API_KEY"),
		AliasesPath:  os.Getenv("FILM_ALIASES_PATH"),
		RulesPath:    os.Getenv("CLASSIFY_RULES_PATH"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if raw := os.Getenv("TELEGRAM_ETL_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ETL_LIMIT %q: %w", raw, err)
		}
		cfg.Limit = limit
	}
	if raw := os.Getenv("ETL_REPORT_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ETL_REPORT_CHAT_ID %q: %w", raw, err)
		}
		cfg.ReportChatID = chatID
	}
	return cfg, nil
}

// sinceLayouts accepted by the --since filter.
var sinceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseSince validates an ISO-ish since filter value. An empty value
// means no filter.
func ParseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid since value %q", value)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
