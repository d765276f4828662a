package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Version is the API version echoed by /status and the root index.
const Version = "1.0.0"

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port        string
	Env         string // development, staging, production, test
	FrontendURL string

	// Cache
	CacheTTL        time.Duration
	RefreshInterval time.Duration

	// Request gate
	RateLimit RateLimitConfig

	// Redis (optional rate limit store)
	Redis RedisConfig

	// Upstreams
	Exchange string // NSE or BSE, selects the upstream symbol convention
	Yahoo    YahooConfig
	Google   GoogleConfig

	// Portfolio
	HoldingsFile string
	SingleFlight bool

	// Logging
	LogLevel  string
	LogFormat string
}

// RateLimitConfig holds request gate configuration
type RateLimitConfig struct {
	Window          time.Duration
	MaxRequests     int
	PortfolioWindow time.Duration
	PortfolioMax    int
	Store           string // memory, redis
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// YahooConfig holds the price source configuration
type YahooConfig struct {
	BaseURL    string
	Timeout    time.Duration
	BatchSize  int
	BatchDelay time.Duration
	RateLimit  int // requests per second, 0 disables
}

// GoogleConfig holds the fundamentals source configuration
type GoogleConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	upstreamTimeout := getEnvAsMillis("UPSTREAM_TIMEOUT_MS", 10000)

	cfg := &Config{
		Port:        getEnv("PORT", "3001"),
		Env:         getEnv("ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		CacheTTL:        time.Duration(getEnvAsInt("CACHE_TTL", 15)) * time.Second,
		RefreshInterval: time.Duration(getEnvAsInt("REFRESH_INTERVAL", 15)) * time.Second,

		RateLimit: RateLimitConfig{
			Window:          getEnvAsMillis("RATE_LIMIT_WINDOW_MS", 60000),
			MaxRequests:     getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
			PortfolioWindow: getEnvAsMillis("PORTFOLIO_RATE_LIMIT_WINDOW_MS", 15000),
			PortfolioMax:    getEnvAsInt("PORTFOLIO_RATE_LIMIT_MAX", 2),
			Store:           strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Exchange: strings.ToUpper(getEnv("MARKET_EXCHANGE", "NSE")),

		Yahoo: YahooConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:    upstreamTimeout,
			BatchSize:  getEnvAsInt("YAHOO_BATCH_SIZE", 5),
			BatchDelay: getEnvAsMillis("YAHOO_BATCH_DELAY_MS", 100),
			RateLimit:  getEnvAsInt("YAHOO_RATE_LIMIT", 10),
		},

		Google: GoogleConfig{
			BaseURL:      getEnv("GOOGLE_BASE_URL", "https://www.google.com/finance/quote"),
			Timeout:      upstreamTimeout,
			RequestDelay: getEnvAsMillis("GOOGLE_REQUEST_DELAY_MS", 300),
			MaxRetries:   getEnvAsInt("GOOGLE_MAX_RETRIES", 2),
			RetryDelay:   getEnvAsMillis("GOOGLE_RETRY_DELAY_MS", 500),
		},

		HoldingsFile: getEnv("HOLDINGS_FILE", ""),
		SingleFlight: getEnvAsBool("PORTFOLIO_SINGLE_FLIGHT", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether internal error details must be hidden
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins splits FrontendURL into the CORS origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// SweepInterval is the passive cache sweep period: 20% of the default TTL
func (c *Config) SweepInterval() time.Duration {
	interval := c.CacheTTL / 5
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// validate checks configuration values that have no safe fallback
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.PortfolioMax <= 0 {
		return fmt.Errorf("rate limit maximums must be positive")
	}

	if c.RateLimit.Store != "memory" && c.RateLimit.Store != "redis" {
		return fmt.Errorf("RATE_LIMIT_STORE must be one of: memory, redis")
	}

	if c.RateLimit.Store == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("RATE_LIMIT_STORE=redis requires REDIS_ENABLED=true")
	}

	if c.Exchange != "NSE" && c.Exchange != "BSE" {
		return fmt.Errorf("MARKET_EXCHANGE must be one of: NSE, BSE")
	}

	if c.Yahoo.BatchSize <= 0 {
		return fmt.Errorf("YAHOO_BATCH_SIZE must be positive")
	}

	if c.Google.MaxRetries < 0 {
		return fmt.Errorf("GOOGLE_MAX_RETRIES cannot be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsMillis reads an integer millisecond value, keeping the *_MS naming of the frontend contract
func getEnvAsMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}
