package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig     `mapstructure:"server"`
	Cache        CacheConfig      `mapstructure:"cache"`
	RateLimit    RateLimitConfig  `mapstructure:"ratelimit"`
	Matching     MatchingConfig   `mapstructure:"matching"`
	Categories   CategoriesConfig `mapstructure:"categories"`
	Stores       []StoreConfig    `mapstructure:"stores"`
	FetchTimeout time.Duration    `mapstructure:"fetch_timeout"`
	History      HistoryConfig    `mapstructure:"history"`
	Search       SearchConfig     `mapstructure:"search"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // "memory"
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
	Burst int `mapstructure:"burst"`
}

// MatchingConfig holds product reconciliation configuration
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	MinStoresPerGroup   int     `mapstructure:"min_stores_per_group"`
	ExactMatchThreshold float64 `mapstructure:"exact_match_threshold"`
	FreshCategory       string  `mapstructure:"fresh_category"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// CategoriesConfig points at the category keyword file
type CategoriesConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig describes one store searched by scraping its result page
type StoreConfig struct {
	Name              string `mapstructure:"name"`
	SearchURL         string `mapstructure:"search_url"`
	ItemSelector      string `mapstructure:"item_selector"`
	NameSelector      string `mapstructure:"name_selector"`
	PriceSelector     string `mapstructure:"price_selector"`
	ImageSelector     string `mapstructure:"image_selector"`
	LinkSelector      string `mapstructure:"link_selector"`
	Location          string `mapstructure:"location"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// HistoryConfig holds price history storage configuration
type HistoryConfig struct {
	Driver    string `mapstructure:"driver"` // "sqlite", "postgres" or "none"
	Path      string `mapstructure:"path"`
	DSN       string `mapstructure:"dsn"`
	MaxConns  int    `mapstructure:"max_conns"`
	TrendDays int    `mapstructure:"trend_days"`
}

// SearchConfig holds product index configuration
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Index   string `mapstructure:"index"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grocerylens/")

	return load(v)
}

// LoadFile loads configuration from an explicit config file plus environment variables
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	// Environment variable settings
	v.SetEnvPrefix("GROCERYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	// Matching defaults
	v.SetDefault("matching.similarity_threshold", 0.8)
	v.SetDefault("matching.min_stores_per_group", 1)
	v.SetDefault("matching.exact_match_threshold", 0.25)
	v.SetDefault("matching.fresh_category", "Fresh Produce")
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("categories.path", "categories.json")
	v.SetDefault("fetch_timeout", "30s")

	// Price history defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", "data/grocery_prices.db")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_conns", 4)
	v.SetDefault("history.trend_days", 30)

	// Product index defaults
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.url", "http://localhost:7700")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.index", "products")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set GROCERYLENS_SERVER_PORT)")
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must not be negative, got: %d", config.RateLimit.PerIP)
	}

	m := config.Matching
	if m.SimilarityThreshold <= 0 || m.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1], got: %v", m.SimilarityThreshold)
	}
	if m.ExactMatchThreshold < 0 || m.ExactMatchThreshold > 1 {
		return fmt.Errorf("exact match threshold must be in [0, 1], got: %v", m.ExactMatchThreshold)
	}
	if m.MinStoresPerGroup < 1 {
		return fmt.Errorf("min stores per group must be at least 1, got: %d", m.MinStoresPerGroup)
	}

	switch config.History.Driver {
	case "none":
	case "sqlite":
		if config.History.Path == "" {
			return fmt.Errorf("history path is required when history driver is 'sqlite'")
		}
	case "postgres":
		if config.History.DSN == "" {
			return fmt.Errorf("history DSN is required when history driver is 'postgres' (set GROCERYLENS_HISTORY_DSN)")
		}
	default:
		return fmt.Errorf("history driver must be 'sqlite', 'postgres' or 'none', got: %s", config.History.Driver)
	}

	if config.Search.Enabled && config.Search.URL == "" {
		return fmt.Errorf("search URL is required when search is enabled")
	}

	seen := make(map[string]bool, len(config.Stores))
	for i, store := range config.Stores {
		if store.Name == "" {
			return fmt.Errorf("store %d: name is required", i)
		}
		if seen[store.Name] {
			return fmt.Errorf("store %s: duplicate name", store.Name)
		}
		seen[store.Name] = true

		if strings.Count(store.SearchURL, "%s") != 1 {
			return fmt.Errorf("store %s: search_url must contain exactly one %%s", store.Name)
		}
		if store.ItemSelector == "" || store.NameSelector == "" {
			return fmt.Errorf("store %s: item_selector and name_selector are required", store.Name)
		}
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env without overriding the environment
func loadEnvFile() error {
	file, err := os.Open(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
