// Package config provides configuration management for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	// PresenceTimeout is how long a participant may stay silent before being evicted.
	// Browsers throttle timers in background tabs, so much lower values evict
	// participants that are still there.
	PresenceTimeout time.Duration
	HostTimeout     time.Duration

	// MaintenanceInterval is how often inactive sessions are swept
	MaintenanceInterval time.Duration
	// EmptyRoomSweepInterval is the minimum time between two empty-room sweeps
	EmptyRoomSweepInterval time.Duration

	HistoryMinInterval  time.Duration
	HistoryMaxSnapshots int

	Redis RedisConfig
}

// RedisConfig holds Redis/Valkey configuration for the room summary mirror
type RedisConfig struct {
	Enabled bool
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string
	Host      string
	Port      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// TTL for room summaries (0 means no expiration)
	SummaryTTL time.Duration
}

// envKeys maps configuration keys to the environment variables that set them
var envKeys = map[string]string{
	"port":                   "PORT",
	"log.level":              "LOG_LEVEL",
	"log.format":             "LOG_FORMAT",
	"presence.timeout":       "PRESENCE_TIMEOUT",
	"presence.host_timeout":  "HOST_TIMEOUT",
	"maintenance.interval":   "MAINTENANCE_INTERVAL",
	"maintenance.empty_room": "EMPTY_ROOM_SWEEP_INTERVAL",
	"history.min_interval":   "HISTORY_MIN_INTERVAL",
	"history.max_snapshots":  "HISTORY_MAX_SNAPSHOTS",
	"redis.enabled":          "REDIS_ENABLED",
	"redis.uri":              "REDIS_URI",
	"redis.host":             "REDIS_HOST",
	"redis.port":             "REDIS_PORT",
	"redis.username":         "REDIS_USERNAME",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"redis.key_prefix":       "REDIS_KEY_PREFIX",
	"redis.summary_ttl":      "REDIS_SUMMARY_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("presence.timeout", "60s")
	v.SetDefault("presence.host_timeout", "60s")
	v.SetDefault("maintenance.interval", "2s")
	v.SetDefault("maintenance.empty_room", "60s")
	v.SetDefault("history.min_interval", "5s")
	v.SetDefault("history.max_snapshots", 720)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.uri", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "lecturefeedback:")
	v.SetDefault("redis.summary_ttl", "24h")
}

// Load reads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, an optional .env file and the environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:                   v.GetInt("port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		LogFormat:              strings.ToLower(v.GetString("log.format")),
		PresenceTimeout:        v.GetDuration("presence.timeout"),
		HostTimeout:            v.GetDuration("presence.host_timeout"),
		MaintenanceInterval:    v.GetDuration("maintenance.interval"),
		EmptyRoomSweepInterval: v.GetDuration("maintenance.empty_room"),
		HistoryMinInterval:     v.GetDuration("history.min_interval"),
		HistoryMaxSnapshots:    v.GetInt("history.max_snapshots"),
		Redis: RedisConfig{
			Enabled:    v.GetBool("redis.enabled"),
			URI:        v.GetString("redis.uri"),
			Host:       v.GetString("redis.host"),
			Port:       v.GetString("redis.port"),
			Username:   v.GetString("redis.username"),
			Password:   v.GetString("redis.password"),
			DB:         v.GetInt("redis.db"),
			KeyPrefix:  v.GetString("redis.key_prefix"),
			SummaryTTL: v.GetDuration("redis.summary_ttl"),
		},
	}
}

// Validate checks that every interval and bound is usable
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	positive := map[string]time.Duration{
		"PRESENCE_TIMEOUT":          c.PresenceTimeout,
		"HOST_TIMEOUT":              c.HostTimeout,
		"MAINTENANCE_INTERVAL":      c.MaintenanceInterval,
		"EMPTY_ROOM_SWEEP_INTERVAL": c.EmptyRoomSweepInterval,
		"HISTORY_MIN_INTERVAL":      c.HistoryMinInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.HistoryMaxSnapshots <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_MAX_SNAPSHOTS must be positive, got %d", c.HistoryMaxSnapshots))
	}
	if c.Redis.SummaryTTL < 0 {
		errs = append(errs, fmt.Errorf("REDIS_SUMMARY_TTL must not be negative, got %s", c.Redis.SummaryTTL))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
