package config

import (
	"os"
	"time"

	"github.com/spf13/cast"

	"Sahaya/pkg/logger"
)

// Config is the process-wide configuration, populated from the environment.
type Config struct {
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	APIPrefix     string `env:"API_PREFIX"`
	MonitorPrefix string `env:"MONITOR_PREFIX"`

	Log logger.LogConfig

	// Geo bounds for location verification. Defaults cover Maharashtra.
	GeoMinLat float64 `env:"GEO_MIN_LAT"`
	GeoMaxLat float64 `env:"GEO_MAX_LAT"`
	GeoMinLon float64 `env:"GEO_MIN_LON"`
	GeoMaxLon float64 `env:"GEO_MAX_LON"`

	// Rate limiting for alert operations, keyed (subject, operation).
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	CreateRate     string `env:"SOS_CREATE_RATE"` // limiter format, e.g. "5-M"
	CancelRate     string `env:"SOS_CANCEL_RATE"`

	// Notification retry policy.
	NotifyMaxAttempts int           `env:"NOTIFY_MAX_ATTEMPTS"`
	NotifyBackoff     time.Duration `env:"NOTIFY_BACKOFF"`

	// Sweeper.
	SweepSchedule  string        `env:"SWEEP_SCHEDULE"` // cron spec
	EscalateAfter  time.Duration `env:"ESCALATE_AFTER"`
}

var GlobalConfig *Config

// Load populates GlobalConfig from environment variables, applying defaults
// suitable for development.
func Load() error {
	GlobalConfig = &Config{
		Addr:          getEnv("ADDR", ":8080"),
		Mode:          getEnv("MODE", "debug"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DSN:           getEnv("DSN", "file:sahaya.db"),
		APIPrefix:     getEnv("API_PREFIX", "/api"),
		MonitorPrefix: getEnv("MONITOR_PREFIX", "/metrics"),
		Log: logger.LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getIntEnv("LOG_MAX_SIZE", 100),
			MaxAge:     getIntEnv("LOG_MAX_AGE", 30),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 7),
		},
		GeoMinLat: getFloatEnv("GEO_MIN_LAT", 15.6),
		GeoMaxLat: getFloatEnv("GEO_MAX_LAT", 22.0),
		GeoMinLon: getFloatEnv("GEO_MIN_LON", 72.6),
		GeoMaxLon: getFloatEnv("GEO_MAX_LON", 80.9),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CreateRate:    getEnv("SOS_CREATE_RATE", "5-M"),
		CancelRate:    getEnv("SOS_CANCEL_RATE", "10-M"),

		NotifyMaxAttempts: getIntEnv("NOTIFY_MAX_ATTEMPTS", 3),
		NotifyBackoff:     getDurationEnv("NOTIFY_BACKOFF", 2*time.Second),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 1m"),
		EscalateAfter: getDurationEnv("ESCALATE_AFTER", 10*time.Minute),
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return cast.ToInt(v)
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return cast.ToFloat64(v)
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d := cast.ToDuration(v); d > 0 {
			return d
		}
	}
	return def
}
