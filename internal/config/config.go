// Package config loads and validates app config from env and an optional .env file using godotenv and Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// StoreDriverPostgres selects the Postgres account/catalog/order stores.
	StoreDriverPostgres = "postgres"
	// StoreDriverMemory selects the in-process stores (development and tests only).
	StoreDriverMemory = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// HTTPAddr is the address the HTTP API listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC token service listens on; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// DatabaseURL is the Postgres DSN. Required when StoreDriver is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreDriver is "postgres" or "memory".
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	// StoreTimeout bounds every store call (e.g. "5s").
	StoreTimeout string `mapstructure:"STORE_TIMEOUT"`

	// JWTSecret is the HS256 signing secret. Loaded once at startup; required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim set and checked on every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim set and checked on every token.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the session token lifetime (e.g. "60m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// LockoutThreshold is the number of consecutive failed logins that blocks an account.
	LockoutThreshold int `mapstructure:"LOCKOUT_THRESHOLD"`
	// LockoutDuration is how long a block lasts before the next login clears it. "0" means manual unblock only.
	LockoutDuration string `mapstructure:"LOCKOUT_DURATION"`
	// AuthRecheckBlocked makes protected routes reload the account and reject blocked or deleted subjects.
	AuthRecheckBlocked bool `mapstructure:"AUTH_RECHECK_BLOCKED"`
	// AdminEmails is a comma-separated list of accounts allowed to run admin actions.
	AdminEmails string `mapstructure:"ADMIN_EMAILS"`

	// CORSAllowedOrigins is a comma-separated origin list; "*" allows any origin.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// RedisAddr enables the catalog cache when set (e.g. localhost:6379).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// CatalogCacheTTL is how long a cached product listing lives (e.g. "60s").
	CatalogCacheTTL string `mapstructure:"CATALOG_CACHE_TTL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set, auth events are published.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuthEventsTopic is the Kafka topic for auth events.
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the auth event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is where the worker pushes auth events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on every signal.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "console".
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env (if present) into the process environment, then builds and validates Config via Viper.
// Missing .env is ignored (e.g. in CI). Real env vars win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "craftbeer-auth")
	v.SetDefault("JWT_AUDIENCE", "craftbeer-api")
	v.SetDefault("JWT_ACCESS_TTL", "60m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOCKOUT_THRESHOLD", 3)
	v.SetDefault("LOCKOUT_DURATION", "0")
	v.SetDefault("AUTH_RECHECK_BLOCKED", true)
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL", "60s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTH_EVENTS_TOPIC", "craftbeer-auth-events")
	v.SetDefault("KAFKA_GROUP_ID", "craftbeer-auth-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "craftbeer-backend")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if d, err := time.ParseDuration(c.JWTAccessTTL); err != nil || d <= 0 {
		return errors.New("config: JWT_ACCESS_TTL must be a positive duration")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.LockoutThreshold < 1 {
		return errors.New("config: LOCKOUT_THRESHOLD must be at least 1")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	case StoreDriverMemory:
		if c.Env == "production" {
			return errors.New("config: STORE_DRIVER=memory must not be used when APP_ENV=production")
		}
	default:
		return errors.New("config: STORE_DRIVER must be postgres or memory")
	}
	return nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 60m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 60*time.Minute)
}

// StoreCallTimeout parses StoreTimeout. Returns 5s if unset or invalid.
func (c *Config) StoreCallTimeout() time.Duration {
	return parseDuration(c.StoreTimeout, 5*time.Second)
}

// LockoutPeriod parses LockoutDuration. Zero means blocks never expire on their own.
func (c *Config) LockoutPeriod() time.Duration {
	return parseDuration(c.LockoutDuration, 0)
}

// CatalogTTL parses CatalogCacheTTL. Returns 60s if unset or invalid.
func (c *Config) CatalogTTL() time.Duration {
	return parseDuration(c.CatalogCacheTTL, 60*time.Second)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means auth events are not published to Kafka.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// AdminEmailList returns the lower-cased admin emails.
func (c *Config) AdminEmailList() []string {
	if c == nil {
		return nil
	}
	out := splitList(c.AdminEmails)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// CORSOrigins returns the allowed CORS origins.
func (c *Config) CORSOrigins() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	if d == 0 && fallback > 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
