package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/shared"
)

// Sink drivers.
const (
	SinkPostgres = "postgres"
	SinkSupabase = "supabase"
	SinkSQLite   = "sqlite"
)

type Config struct {
	ServerPort string
	LogLevel   string
	LogFormat  string
	AdminToken string

	SinkDriver  string
	DatabaseURL string
	SQLitePath  string
	SupabaseURL string
	SupabaseKey string
	RapidAPIKey string

	WebSyncSchedule         string
	APISyncSchedule         string
	ShareholderSyncSchedule string

	HTTPTimeout     time.Duration
	PolitenessDelay time.Duration
	UpsertChunkSize int
	MatchThreshold  float64
	ChromeEnabled   bool
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "ipo.db"),
		SupabaseURL: strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),
		RapidAPIKey: getEnv("RAPIDAPI_KEY", ""),

		WebSyncSchedule:         getEnv("WEB_SYNC_SCHEDULE", "@every 3h"),
		APISyncSchedule:         getEnv("API_SYNC_SCHEDULE", "@every 6h"),
		ShareholderSyncSchedule: getEnv("SHAREHOLDER_SYNC_SCHEDULE", "@every 24h"),

		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		PolitenessDelay: time.Duration(getEnvInt("POLITENESS_DELAY_MS", 1500)) * time.Millisecond,
		UpsertChunkSize: getEnvInt("UPSERT_CHUNK_SIZE", 50),
		MatchThreshold:  getEnvFloat("MATCH_THRESHOLD", 0.4),
		ChromeEnabled:   getEnvBool("CHROME_ENABLED", true),
	}
	cfg.SinkDriver = strings.ToLower(getEnv("SINK_DRIVER", ""))
	if cfg.SinkDriver == "" {
		cfg.SinkDriver = cfg.defaultSinkDriver()
	}

	return cfg
}

func (c *Config) defaultSinkDriver() string {
	switch {
	case c.DatabaseURL != "":
		return SinkPostgres
	case c.SupabaseURL != "":
		return SinkSupabase
	default:
		return SinkSQLite
	}
}

// Validate checks that the selected sink has what it needs to connect.
func (c *Config) Validate() error {
	missing := func(key string) error {
		return shared.NewServiceError(
			shared.ErrorCategoryConfiguration,
			shared.CodeConfigMissing,
			key+" is required for sink driver "+c.SinkDriver,
			"Config",
			"Validate",
			false,
			nil,
		)
	}

	switch c.SinkDriver {
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return missing("DATABASE_URL")
		}
	case SinkSupabase:
		if c.SupabaseURL == "" {
			return missing("SUPABASE_URL")
		}
		if c.SupabaseKey == "" {
			return missing("SUPABASE_KEY")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return missing("SQLITE_PATH")
		}
	default:
		return shared.NewServiceError(
			shared.ErrorCategoryConfiguration,
			shared.CodeConfigMissing,
			"unknown sink driver "+c.SinkDriver,
			"Config",
			"Validate",
			false,
			nil,
		)
	}

	if c.UpsertChunkSize <= 0 {
		logrus.Warnf("Invalid UPSERT_CHUNK_SIZE value: %d, using default 50", c.UpsertChunkSize)
		c.UpsertChunkSize = 50
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		logrus.Warnf("Invalid MATCH_THRESHOLD value: %v, using default 0.4", c.MatchThreshold)
		c.MatchThreshold = 0.4
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logger.
func ConfigureLogging(c *Config) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %t", key, raw, fallback)
		return fallback
	}
	return value
}
