package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PARKING_DATABASE_DSN.
const EnvPrefix = "parking"

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"server"`
	Database DatabaseConfig `yaml:"database" envconfig:"database"`
	Log      LogConfig      `yaml:"log" envconfig:"log"`
	Tickets  TicketsConfig  `yaml:"tickets" envconfig:"tickets"`
	Auth     AuthConfig     `yaml:"auth" envconfig:"auth"`
	Files    FilesConfig    `yaml:"files" envconfig:"files"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" envconfig:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" envconfig:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" envconfig:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" envconfig:"cache_ttl_seconds"`
}

// CacheTTL is the lifetime of cached GET responses.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" envconfig:"driver"`
	DSN                    string `yaml:"dsn" envconfig:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" envconfig:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level" envconfig:"log_level"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"level"`
	Format string `yaml:"format" envconfig:"format"`
}

// TicketsConfig holds ticket engine settings.
type TicketsConfig struct {
	DefaultNights int    `yaml:"default_nights" envconfig:"default_nights"`
	Timezone      string `yaml:"timezone" envconfig:"timezone"`
}

// Location resolves the configured timezone.
func (t TicketsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(t.Timezone)
}

// AuthConfig holds operator login and session settings.
type AuthConfig struct {
	SessionTTLMinutes int              `yaml:"session_ttl_minutes" envconfig:"session_ttl_minutes"`
	Backend           string           `yaml:"backend" envconfig:"backend"`
	RedisURL          string           `yaml:"redis_url" envconfig:"redis_url"`
	Operators         []OperatorConfig `yaml:"operators" ignored:"true"`
}

// SessionTTL is how long an operator session stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// OperatorConfig is one console login. PasswordHash is a bcrypt hash.
type OperatorConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// FilesConfig selects where uploaded banned plate lists are kept.
type FilesConfig struct {
	Backend string   `yaml:"backend" envconfig:"backend"`
	S3      S3Config `yaml:"s3" envconfig:"s3"`
}

// S3Config holds the bucket settings for the s3 files backend.
type S3Config struct {
	Bucket          string `yaml:"bucket" envconfig:"bucket"`
	Region          string `yaml:"region" envconfig:"region"`
	Prefix          string `yaml:"prefix" envconfig:"prefix"`
	Endpoint        string `yaml:"endpoint" envconfig:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"secret_access_key"`
}

// Load reads the configuration from the given path, then applies
// PARKING_* environment overrides and defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Tickets.Timezone == "" {
		cfg.Tickets.Timezone = "UTC"
	}
	if cfg.Tickets.DefaultNights < 0 {
		log.Warn().Int("default_nights", cfg.Tickets.DefaultNights).Msg("tickets.default_nights is negative; defaulting to 0")
		cfg.Tickets.DefaultNights = 0
	}

	if cfg.Auth.SessionTTLMinutes <= 0 {
		cfg.Auth.SessionTTLMinutes = 480
	}
	cfg.Auth.Backend = strings.ToLower(strings.TrimSpace(cfg.Auth.Backend))
	if cfg.Auth.Backend == "" {
		cfg.Auth.Backend = "memory"
	}

	cfg.Files.Backend = strings.ToLower(strings.TrimSpace(cfg.Files.Backend))
	if cfg.Files.Backend == "" {
		cfg.Files.Backend = "database"
	}
	if cfg.Files.S3.Prefix == "" {
		cfg.Files.S3.Prefix = "banned-plates"
	}
}

func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if _, err := cfg.Tickets.Location(); err != nil {
		return fmt.Errorf("tickets.timezone: %w", err)
	}
	switch cfg.Auth.Backend {
	case "memory":
	case "redis":
		if cfg.Auth.RedisURL == "" {
			return fmt.Errorf("auth.redis_url is required for the redis session backend")
		}
	default:
		return fmt.Errorf("auth.backend %q is not supported", cfg.Auth.Backend)
	}
	switch cfg.Files.Backend {
	case "database":
	case "s3":
		if cfg.Files.S3.Bucket == "" {
			return fmt.Errorf("files.s3.bucket is required for the s3 files backend")
		}
	default:
		return fmt.Errorf("files.backend %q is not supported", cfg.Files.Backend)
	}
	return nil
}
