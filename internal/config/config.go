// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Storage
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)
	RedisURL    string // Redis connection string for the credit score cache (optional)

	// Wallet settings
	WalletAddress  string  // Default wallet when a request does not name one
	InitialBalance float64 // Opening USD balance for a wallet with no ledger entry

	// Credit score provider
	CreditScoreURL string // External provider base URL (optional, uses deterministic mock if not set)

	// Price tracking
	PriceAPIURL       string // CoinGecko-compatible base URL
	PricePollInterval time.Duration
	PriceCacheTTL     time.Duration

	// Security
	RateLimitRPS   int
	AllowedOrigins string // Comma-separated CORS origins, "*" allows all

	// Tracing
	OTLPEndpoint string // OTLP gRPC collector address (optional, tracing disabled if not set)
}

const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultWalletAddress  = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	DefaultInitialBalance = 25000
	DefaultPriceAPIURL    = "https://api.coingecko.com/api/v3"
	DefaultRateLimit      = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		RedisURL:          os.Getenv("REDIS_URL"),    // Optional
		WalletAddress:     getEnv("WALLET_ADDRESS", DefaultWalletAddress),
		InitialBalance:    getEnvFloat("INITIAL_BALANCE", DefaultInitialBalance),
		CreditScoreURL:    os.Getenv("CREDIT_SCORE_URL"),
		PriceAPIURL:       getEnv("PRICE_API_URL", DefaultPriceAPIURL),
		PricePollInterval: getEnvDuration("PRICE_POLL_INTERVAL", 60*time.Second),
		PriceCacheTTL:     getEnvDuration("PRICE_CACHE_TTL", 60*time.Second),
		RateLimitRPS:      int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
		OTLPEndpoint:      os.Getenv("OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.WalletAddress == "" {
		return fmt.Errorf("WALLET_ADDRESS must not be empty")
	}

	if c.InitialBalance < 0 {
		return fmt.Errorf("INITIAL_BALANCE must not be negative")
	}

	if c.PricePollInterval < time.Second {
		return fmt.Errorf("PRICE_POLL_INTERVAL must be at least 1s")
	}

	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
