// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vestapay/platform/pkg/logger"
)

// Config is the full server configuration. Environment variables take
// precedence over the YAML file.
type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Database DatabaseConfig       `yaml:"database"`
	Redis    RedisConfig          `yaml:"redis"`
	Auth     AuthConfig           `yaml:"auth"`
	Logging  logger.LoggingConfig `yaml:"logging"`
	Platform PlatformConfig       `yaml:"platform"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address            string        `yaml:"address" env:"SERVER_ADDRESS"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	RateLimitPerSecond int           `yaml:"rate_limit_per_second" env:"SERVER_RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" env:"SERVER_RATE_LIMIT_BURST"`
}

// DatabaseConfig controls the postgres connection pool. An empty DSN means
// the server runs on in-memory stores, which is only useful for local
// development.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
}

// RedisConfig controls the optional settings cache. An empty address
// disables it.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret" env:"AUTH_TOKEN_SECRET"`
	TokenTTL    time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL"`
}

// PlatformConfig holds product behavior tunables.
type PlatformConfig struct {
	ReferralReward           float64 `yaml:"referral_reward" env:"PLATFORM_REFERRAL_REWARD"`
	WithdrawalAlertThreshold float64 `yaml:"withdrawal_alert_threshold" env:"PLATFORM_WITHDRAWAL_ALERT_THRESHOLD"`
	SpinPrizeCeiling         float64 `yaml:"spin_prize_ceiling" env:"PLATFORM_SPIN_PRIZE_CEILING"`
	MaturationSchedule       string  `yaml:"maturation_schedule" env:"PLATFORM_MATURATION_SCHEDULE"`
	ChallengeExpirySchedule  string  `yaml:"challenge_expiry_schedule" env:"PLATFORM_CHALLENGE_EXPIRY_SCHEDULE"`
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is not an error so containerized deployments can
// configure entirely through the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fall through to environment-only configuration.
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Platform.ReferralReward == 0 {
		c.Platform.ReferralReward = 1000
	}
	if c.Platform.WithdrawalAlertThreshold == 0 {
		c.Platform.WithdrawalAlertThreshold = 500000
	}
	if c.Platform.SpinPrizeCeiling == 0 {
		c.Platform.SpinPrizeCeiling = 5000
	}
	if c.Platform.MaturationSchedule == "" {
		c.Platform.MaturationSchedule = "@every 30s"
	}
	if c.Platform.ChallengeExpirySchedule == "" {
		c.Platform.ChallengeExpirySchedule = "@hourly"
	}
}

func (c *Config) validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive")
	}
	if c.Platform.ReferralReward < 0 {
		return fmt.Errorf("referral reward must not be negative")
	}
	return nil
}
