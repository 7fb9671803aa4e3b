// Package config loads runtime configuration from the environment,
// with optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. It is constructed once in main and
// injected; nothing reads the environment after startup.
type Config struct {
	// Web server
	Addr string

	// Database
	DBPath string

	// Payment processor
	PaymentBaseURL string
	PaymentAPIKey  string

	// Content pinning
	PinningBaseURL string
	PinningAPIKey  string

	// Ledger relay; empty LedgerBaseURL disables the enrichment
	LedgerBaseURL string
	LedgerAPIKey  string

	// AdapterTimeout bounds every collaborator call.
	AdapterTimeout time.Duration

	// RequirePayerShare controls whether the payer owes a share of their
	// own expenses (see expense.Options).
	RequirePayerShare bool
}

// Load reads configuration from the environment. A .env file is honored
// when present but never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getEnvDefault("ADDR", ":8080"),
		DBPath:            getEnvDefault("DB_PATH", "./data/moneysplitter.db"),
		PaymentBaseURL:    getEnvDefault("PAYMENT_BASE_URL", "https://api.stripe.com"),
		PaymentAPIKey:     os.Getenv("PAYMENT_API_KEY"),
		PinningBaseURL:    getEnvDefault("PINNING_BASE_URL", "https://api.pinata.cloud"),
		PinningAPIKey:     os.Getenv("PINNING_API_KEY"),
		LedgerBaseURL:     os.Getenv("LEDGER_BASE_URL"),
		LedgerAPIKey:      os.Getenv("LEDGER_API_KEY"),
		RequirePayerShare: getEnvDefault("REQUIRE_PAYER_SHARE", "true") != "false",
	}

	timeout, err := time.ParseDuration(getEnvDefault("ADAPTER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADAPTER_TIMEOUT: %w", err)
	}
	cfg.AdapterTimeout = timeout

	if cfg.PaymentAPIKey == "" {
		return nil, fmt.Errorf("PAYMENT_API_KEY is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
