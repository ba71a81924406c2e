// Package config handles application configuration. Values come from, in
// increasing precedence: built-in defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection. DatabaseURL, when set, wins over the parts.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for post images
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BucketPublic string
	S3PublicURL    string

	// Logging
	LogDir             string
	LogLevel           string
	LogFormat          string // "text" or "json"
	LogArchiveSchedule string // cron spec; empty disables

	// Blog behaviour
	AdminPathPrefix  string
	PageSize         int
	CommentRateLimit int // comments per IP per hour
	PageCacheTTL     time.Duration
}

// keys lists every configuration key. Each is also read from the
// environment variable of the same name in upper case.
var keys = []string{
	"app_host", "app_port", "app_env",
	"database_url",
	"postgres_host", "postgres_port", "postgres_user", "postgres_password", "postgres_db",
	"valkey_host", "valkey_port", "valkey_password",
	"s3_endpoint", "s3_region", "s3_access_key", "s3_secret_key", "s3_bucket_public", "s3_public_url",
	"log_dir", "log_level", "log_format", "log_archive_schedule",
	"admin_path_prefix", "page_size", "comment_rate_limit", "page_cache_ttl",
}

// setDefaults registers development defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8080")
	v.SetDefault("app_env", "development")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "codewithbrain")
	v.SetDefault("postgres_password", "changeme")
	v.SetDefault("postgres_db", "codewithbrain")

	v.SetDefault("valkey_host", "localhost")
	v.SetDefault("valkey_port", "6379")

	v.SetDefault("s3_region", "fsn1")
	v.SetDefault("s3_bucket_public", "codewithbrain-public")

	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_archive_schedule", "@daily")

	v.SetDefault("admin_path_prefix", "/admin")
	v.SetDefault("page_size", 10)
	v.SetDefault("comment_rate_limit", 5)
	v.SetDefault("page_cache_ttl", "5m")
}

// bindEnvVars binds each key to its upper-case environment variable.
func bindEnvVars(v *viper.Viper) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration, applying defaults for development where
// appropriate. Returns an error if critical values are missing in
// production mode.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host: v.GetString("app_host"),
		Port: v.GetString("app_port"),
		Env:  v.GetString("app_env"),

		DatabaseURL: v.GetString("database_url"),
		DBHost:      v.GetString("postgres_host"),
		DBPort:      v.GetString("postgres_port"),
		DBUser:      v.GetString("postgres_user"),
		DBPassword:  v.GetString("postgres_password"),
		DBName:      v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),

		S3Endpoint:     v.GetString("s3_endpoint"),
		S3Region:       v.GetString("s3_region"),
		S3AccessKey:    v.GetString("s3_access_key"),
		S3SecretKey:    v.GetString("s3_secret_key"),
		S3BucketPublic: v.GetString("s3_bucket_public"),
		S3PublicURL:    v.GetString("s3_public_url"),

		LogDir:             v.GetString("log_dir"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		LogArchiveSchedule: v.GetString("log_archive_schedule"),

		AdminPathPrefix:  v.GetString("admin_path_prefix"),
		PageSize:         v.GetInt("page_size"),
		CommentRateLimit: v.GetInt("comment_rate_limit"),
		PageCacheTTL:     v.GetDuration("page_cache_ttl"),
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// LogJSON reports whether logs should be written as JSON.
func (c *Config) LogJSON() bool {
	return c.LogFormat == "json"
}
