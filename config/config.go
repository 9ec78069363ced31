// Package config loads service settings from .env files and the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultRelayURL is the CORS relay pages are fetched through. The target URL
// is appended query-escaped.
const DefaultRelayURL = "https://api.allorigins.win/raw?url="

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds every setting of the audit service.
type Config struct {
	Port    string
	GinMode string
	DevMode bool
	DataDir string

	RelayURL      string
	FetchTimeout  time.Duration
	FetchMaxBytes int64
	UserAgent     string

	CacheBackend    string
	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	RateLimit float64
	RateBurst int

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads .env.development, falling back to .env, and then builds a
// Config from environment variables.
func Load() (*Config, error) {
	loadEnv()

	cfg := &Config{
		Port:    getEnv("PORT", "8082"),
		GinMode: getEnv("GIN_MODE", "release"),
		DevMode: getEnvBool("DEV_MODE", false),
		DataDir: getEnv("DATA_DIR", "./data"),

		RelayURL:      getEnvRaw("RELAY_URL", DefaultRelayURL),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxBytes: int64(getEnvInt("FETCH_MAX_BYTES", 5<<20)),
		UserAgent:     getEnv("USER_AGENT", "SEOAnalyzer/1.0"),

		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory)),
		CacheTTL:        getEnvDuration("CACHE_TTL", 30*time.Minute),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		RateLimit: getEnvFloat("RATE_LIMIT", 2),
		RateBurst: getEnvInt("RATE_BURST", 5),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnv() {
	// Try .env.development first for local development
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if c.FetchMaxBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BYTES must be positive, got %d", c.FetchMaxBytes)
	}

	switch c.CacheBackend {
	case CacheMemory:
		if c.CacheMaxEntries <= 0 {
			return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.CacheMaxEntries)
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is redis")
		}
	case CacheNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want memory, redis or none)", c.CacheBackend)
	}
	if c.CacheBackend != CacheNone && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}

	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be positive")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (want json or console)", c.LogFormat)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw distinguishes an unset variable from one set to the empty
// string, which disables the relay.
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
