// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TokenPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file used to sign bearer tokens.
	TokenPrivateKey string `mapstructure:"TOKEN_PRIVATE_KEY"`
	// TokenPublicKey is the PEM-encoded public key or path to file; must match TokenPrivateKey.
	TokenPublicKey string `mapstructure:"TOKEN_PUBLIC_KEY"`
	// TokenIssuer is the iss claim written into and required on every token.
	TokenIssuer string `mapstructure:"TOKEN_ISSUER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Applies to user and device passwords.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// HashWorkers bounds concurrent hash/verify operations. Defaults to the number of CPUs.
	HashWorkers int `mapstructure:"HASH_WORKERS"`
	// SessionMaxAge is the age after which the worker deletes sessions (e.g. "720h"). Empty or "0" disables sweeping.
	SessionMaxAge string `mapstructure:"SESSION_MAX_AGE"`
	// SweepInterval is how often the worker runs the session sweep (default 10m).
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// LogLevel is the slog level: debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint. Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses. When set, audit events are also published to Kafka.
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events (default dispenser-audit).
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_PRIVATE_KEY", "")
	v.SetDefault("TOKEN_PUBLIC_KEY", "")
	v.SetDefault("TOKEN_ISSUER", "dispenser-identity")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("HASH_WORKERS", runtime.NumCPU())
	v.SetDefault("SESSION_MAX_AGE", "")
	v.SetDefault("SWEEP_INTERVAL", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "dispenser-audit")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if strings.TrimSpace(cfg.TokenIssuer) == "" {
		return nil, errors.New("config: TOKEN_ISSUER must not be empty")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.HashWorkers <= 0 {
		cfg.HashWorkers = runtime.NumCPU()
	}

	if cfg.SessionMaxAge != "" {
		if _, err := time.ParseDuration(cfg.SessionMaxAge); err != nil {
			return nil, errors.New("config: SESSION_MAX_AGE must be a duration (e.g. 720h)")
		}
	}

	return &cfg, nil
}

// MaxSessionAge parses SessionMaxAge. Returns 0 (sweeping disabled) if unset or invalid.
func (c *Config) MaxSessionAge() time.Duration {
	d, err := time.ParseDuration(c.SessionMaxAge)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// SweepEvery parses SweepInterval. Returns 10m if unset or invalid.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means audit events are not published to Kafka.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil || c.AuditKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuditKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
