// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	FunPayToken string

	Fragment FragmentConfig

	ReplyCooldown        time.Duration
	PremiumSubcategoryID int64
	AutoRefund           bool
	AutoDeactivate       bool
	DryRun               bool
	MaxWorkers           int

	OpsAddr string
	DBPath  string
}

// FragmentConfig holds credentials and tuning for the Fragment API.
type FragmentConfig struct {
	APIKey        string
	Phone         string
	Mnemonics     string
	WalletVersion string // normalized order wallet version: "v4r2" or "w5"
	MinBalance    float64
	TokenFile     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	workers := getEnvInt("MAX_WORKERS", 4)
	if workers < 1 {
		workers = 1
	}

	cfg := &Config{
		FunPayToken: getEnv("FUNPAY_AUTH_TOKEN", ""),
		Fragment: FragmentConfig{
			APIKey:        getEnv("FRAGMENT_API_KEY", ""),
			Phone:         getEnv("FRAGMENT_PHONE", ""),
			Mnemonics:     getEnv("FRAGMENT_MNEMONICS", ""),
			WalletVersion: NormalizeWalletVersion(getEnv("FRAGMENT_WALLET_VERSION", "v4r2")),
			MinBalance:    getEnvFloat("FRAGMENT_MIN_BALANCE", 1),
			TokenFile:     getEnv("FRAGMENT_TOKEN_FILE", "token.json"),
		},
		ReplyCooldown:        time.Duration(getEnvFloat("REPLY_COOLDOWN_SECONDS", 1) * float64(time.Second)),
		PremiumSubcategoryID: int64(getEnvInt("PREMIUM_SUBCATEGORY_ID", 1391)),
		AutoRefund:           getEnvBool("AUTO_REFUND", true),
		AutoDeactivate:       getEnvBool("AUTO_DEACTIVATE", true),
		DryRun:               getEnvBool("DRY_RUN", false),
		MaxWorkers:           workers,
		OpsAddr:              getEnv("OPS_ADDR", ":8090"),
		DBPath:               getEnv("DB_PATH", "./data/fulfillment.db"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.FunPayToken == "" {
		return fmt.Errorf("FUNPAY_AUTH_TOKEN cannot be empty")
	}
	if c.Fragment.TokenFile == "" {
		return fmt.Errorf("FRAGMENT_TOKEN_FILE cannot be empty")
	}
	if c.ReplyCooldown < 0 {
		return fmt.Errorf("REPLY_COOLDOWN_SECONDS cannot be negative")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	return nil
}

// NormalizeWalletVersion maps user-supplied wallet version spellings to the
// value the order endpoint expects. Unknown values fall back to v4r2.
func NormalizeWalletVersion(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(v, "/"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	switch v {
	case "v4", "v4r2":
		return "v4r2"
	case "w5", "w5r1", "v5", "v5r1", "w5rlib", "v5rdlib":
		return "w5"
	}
	return "v4r2"
}

// AuthWalletVersion returns the wallet version tag the auth endpoint expects
// for the configured order wallet version.
func (c *FragmentConfig) AuthWalletVersion() string {
	if c.WalletVersion == "w5" {
		return "W5"
	}
	return "V4R2"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on", "t":
		return true
	case "0", "false", "no", "n", "off", "f":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(value, ",", ".")), 64)
	if err != nil {
		return fallback
	}
	return f
}
