// Package config loads process configuration from the environment. It is
// pure data: no component reads the environment directly, they all consume a
// resolved Config.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	Redis    RedisConfig
	Postgres PostgresConfig

	CacheEnabled  bool
	RetryAttempts int
	RunTimeout    time.Duration

	PhoneCountryCode string
	PhoneTrunkPrefix string

	NIN     SourceConfig
	BVN     SourceConfig
	License SourceConfig
}

// RedisConfig configures the verification cache backend. An empty URL
// disables Redis and falls back to the in-memory cache store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the audit store. An empty DSN disables Postgres
// and falls back to the in-memory store.
type PostgresConfig struct {
	DSN string
}

// SourceConfig configures one external registry source: a primary endpoint,
// an optional fallback used after the first failed attempt, and the cache
// retention for its results.
type SourceConfig struct {
	PrimaryURL  string
	PrimaryKey  string
	FallbackURL string
	FallbackKey string
	CacheTTL    time.Duration
}

// FromEnv builds the Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:          envOr("DRIVEID_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),

		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},

		CacheEnabled:  envOr("VERIFY_CACHE_ENABLED", "true") == "true",
		RetryAttempts: envInt("VERIFY_RETRY_ATTEMPTS", 3),
		RunTimeout:    envDuration("VERIFY_RUN_TIMEOUT", 30*time.Second),

		PhoneCountryCode: envOr("PHONE_COUNTRY_CODE", "234"),
		PhoneTrunkPrefix: envOr("PHONE_TRUNK_PREFIX", "0"),

		NIN:     sourceFromEnv("NIN", 24*time.Hour),
		BVN:     sourceFromEnv("BVN", 24*time.Hour),
		License: sourceFromEnv("LICENSE", 12*time.Hour),
	}
}

func sourceFromEnv(prefix string, defaultTTL time.Duration) SourceConfig {
	return SourceConfig{
		PrimaryURL:  os.Getenv(prefix + "_PRIMARY_URL"),
		PrimaryKey:  os.Getenv(prefix + "_PRIMARY_KEY"),
		FallbackURL: os.Getenv(prefix + "_FALLBACK_URL"),
		FallbackKey: os.Getenv(prefix + "_FALLBACK_KEY"),
		CacheTTL:    envDuration(prefix+"_CACHE_TTL", defaultTTL),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
