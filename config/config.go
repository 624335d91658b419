package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	// Storefront API
	StorefrontURL     string
	StorefrontTimeout time.Duration
	StorefrontRPS     float64
	StorefrontBurst   int
	// Search widget behaviour
	SearchDebounce     time.Duration
	InvalidationSettle time.Duration
	MinQueryLength     int
	PageSize           int
	CacheCapacity      int
	CacheTTL           time.Duration // 0 = entries never expire
	EnrichConcurrency  int
	CartPollInterval   time.Duration // 0 = poller disabled
	// Stub storefront server
	Port          string
	StubRPS       float64
	StubBurst     int
	AllowedOrigin string
}

func LoadConfig() (*Config, error) {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorefrontURL:     getEnv("STOREFRONT_URL", "http://localhost:8080"),
		StorefrontTimeout: getDurationEnv("STOREFRONT_TIMEOUT", 10*time.Second),
		StorefrontRPS:     getFloatEnv("STOREFRONT_RPS", 20),
		StorefrontBurst:   getIntEnv("STOREFRONT_BURST", 40),

		// Widget defaults: 100ms debounce and settle, 3 chars, 10 results, 10 cached queries
		SearchDebounce:     getDurationEnv("SEARCH_DEBOUNCE", 100*time.Millisecond),
		InvalidationSettle: getDurationEnv("INVALIDATION_SETTLE", 100*time.Millisecond),
		MinQueryLength:     getIntEnv("SEARCH_MIN_QUERY", 3),
		PageSize:           getIntEnv("SEARCH_PAGE_SIZE", 10),
		CacheCapacity:      getIntEnv("SEARCH_CACHE_CAPACITY", 10),
		CacheTTL:           getDurationEnv("SEARCH_CACHE_TTL", 0),
		EnrichConcurrency:  getIntEnv("ENRICH_CONCURRENCY", 10),
		CartPollInterval:   getDurationEnv("CART_POLL_INTERVAL", 0),

		Port:          getEnv("PORT", "8080"),
		StubRPS:       getFloatEnv("STUB_RPS", 50),
		StubBurst:     getIntEnv("STUB_BURST", 100),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StorefrontURL == "" {
		return errors.New("STOREFRONT_URL is required")
	}
	if c.StorefrontTimeout <= 0 {
		return errors.New("STOREFRONT_TIMEOUT must be positive")
	}
	if c.MinQueryLength < 1 {
		return errors.New("SEARCH_MIN_QUERY must be at least 1")
	}
	if c.PageSize < 1 || c.CacheCapacity < 1 || c.EnrichConcurrency < 1 {
		return errors.New("SEARCH_PAGE_SIZE, SEARCH_CACHE_CAPACITY and ENRICH_CONCURRENCY must be positive")
	}
	if c.StorefrontRPS <= 0 {
		log.Println("WARNING: STOREFRONT_RPS <= 0, outgoing requests are not rate limited")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
