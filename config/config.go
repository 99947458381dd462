package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	HTTPAddr string

	// EnabledVendors is the vendor allow-list; "*" enables every registered adapter.
	EnabledVendors []string
	TaxRate        float64
	// Affiliates maps lower-case vendor name to its affiliate parameter value.
	Affiliates map[string]string

	PriceCacheTTL       time.Duration
	PriceSweepInterval  time.Duration
	VendorTimeout       time.Duration
	VendorRetryBackoff  time.Duration
	PriceCoalesceMisses bool

	CatalogDBPath    string
	HeuristicsFile   string
	ReverifyInterval time.Duration

	TelegramToken string
	AdminUserIDs  []int64
	GeminiAPIKey  string

	LogLevel string
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		HTTPAddr:           ":8080",
		EnabledVendors:     []string{"*"},
		TaxRate:            0.08,
		Affiliates:         map[string]string{},
		PriceCacheTTL:      10 * time.Minute,
		PriceSweepInterval: 5 * time.Minute,
		VendorTimeout:      5 * time.Second,
		VendorRetryBackoff: time.Second,
		CatalogDBPath:      "data/catalog.db",
		ReverifyInterval:   24 * time.Hour,
		LogLevel:           "info",
	}
}

// Load reads the configuration from the environment (and .env when present)
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}

	if raw, ok := os.LookupEnv("ENABLED_VENDORS"); ok {
		config.EnabledVendors = ParseVendorList(raw)
	}

	if raw := os.Getenv("TAX_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("TAX_RATE has invalid format: %v", err)
		}
		config.TaxRate = rate
	}

	for _, kv := range os.Environ() {
		key, value, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(key, "AFFILIATE_") || value == "" {
			continue
		}
		vendor := strings.ToLower(strings.TrimPrefix(key, "AFFILIATE_"))
		config.Affiliates[vendor] = value
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"PRICE_CACHE_TTL", &config.PriceCacheTTL},
		{"PRICE_SWEEP_INTERVAL", &config.PriceSweepInterval},
		{"VENDOR_TIMEOUT", &config.VendorTimeout},
		{"VENDOR_RETRY_BACKOFF", &config.VendorRetryBackoff},
		{"REVERIFY_INTERVAL", &config.ReverifyInterval},
	}
	for _, d := range durations {
		raw := os.Getenv(d.env)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid format: %v", d.env, err)
		}
		*d.target = parsed
	}

	if raw := os.Getenv("PRICE_COALESCE_MISSES"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("PRICE_COALESCE_MISSES has invalid format: %v", err)
		}
		config.PriceCoalesceMisses = on
	}

	if dbPath, ok := os.LookupEnv("CATALOG_DB_PATH"); ok {
		config.CatalogDBPath = dbPath
	}
	config.HeuristicsFile = os.Getenv("HEURISTICS_FILE")
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if raw := os.Getenv("ADMIN_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ADMIN_USER_IDS has invalid format: %v", err)
			}
			config.AdminUserIDs = append(config.AdminUserIDs, id)
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = strings.ToLower(level)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1), got %v", c.TaxRate)
	}
	if c.PriceCacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive")
	}
	if c.PriceSweepInterval <= 0 {
		return fmt.Errorf("PRICE_SWEEP_INTERVAL must be positive")
	}
	if c.VendorTimeout <= 0 {
		return fmt.Errorf("VENDOR_TIMEOUT must be positive")
	}
	if c.VendorRetryBackoff < 0 {
		return fmt.Errorf("VENDOR_RETRY_BACKOFF must not be negative")
	}
	return nil
}

// VendorEnabled reports whether the allow-list turns the named vendor on.
func (c *Config) VendorEnabled(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range c.EnabledVendors {
		if v == "*" || v == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the Telegram user may upload vendor sheets.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ParseVendorList splits a comma-separated allow-list into lower-case names.
func ParseVendorList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
