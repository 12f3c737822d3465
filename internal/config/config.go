package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQL    = "sql"
	CacheRedis  = "redis"

	maxStatsCacheTTL = 5 * time.Minute
)

// Config is the server configuration, read from the environment.
// Callers load .env files first; this package only reads os.Getenv.
type Config struct {
	Port               string
	DatabaseURL        string
	SQLitePath         string
	DBConnectTimeout   time.Duration
	CacheBackend       string
	RedisURL           string
	StatsCacheTTL      time.Duration
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               Get("PORT", "8080"),
		DatabaseURL:        Get("DATABASE_URL", ""),
		SQLitePath:         Get("SQLITE_PATH", "data/reports.db"),
		CacheBackend:       strings.ToLower(Get("CACHE_BACKEND", CacheMemory)),
		RedisURL:           Get("REDIS_URL", ""),
		CORSAllowedOrigins: splitList(Get("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           Get("LOG_LEVEL", "info"),
		LogFormat:          strings.ToLower(Get("LOG_FORMAT", "json")),
	}

	var errs []error

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", cfg.Port))
	}

	var err error
	if cfg.DBConnectTimeout, err = duration("DB_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.StatsCacheTTL, err = duration("STATS_CACHE_TTL", maxStatsCacheTTL); err != nil {
		errs = append(errs, err)
	} else if cfg.StatsCacheTTL <= 0 || cfg.StatsCacheTTL > maxStatsCacheTTL {
		errs = append(errs, fmt.Errorf("STATS_CACHE_TTL must be between 1s and %s, got %s", maxStatsCacheTTL, cfg.StatsCacheTTL))
	}

	switch cfg.CacheBackend {
	case CacheNone, CacheMemory, CacheSQL:
	case CacheRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q must be one of none, memory, sql, redis", cfg.CacheBackend))
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or text", cfg.LogFormat))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// UsePostgres reports whether reports are stored in Postgres rather than SQLite.
func (c *Config) UsePostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres")
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
