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

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Brokerage (한국투자증권)
	KIS KISConfig

	// Exchange rate
	FX FXConfig

	// Portfolio display defaults
	Portfolio PortfolioConfig

	// Optional infrastructure
	Database DatabaseConfig
	Redis    RedisConfig

	// Outbound HTTP
	HTTPTimeout time.Duration

	// Scheduler
	SnapshotSchedule string
	WSPushInterval   time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// KISConfig holds KIS (한국투자증권) API credentials.
// Immutable after Load; secrets never leave this struct through String().
type KISConfig struct {
	AppKey             string
	AppSecret          string
	BaseURL            string
	AccountNo          string // CANO
	AccountProductCode string // ACNT_PRDT_CD
	IsVirtual          bool   // 모의투자 여부
	RateLimit          int    // requests per second
}

// String redacts the secrets so the struct is safe to print.
func (k KISConfig) String() string {
	return fmt.Sprintf("KISConfig{BaseURL:%s, AccountNo:%s, AccountProductCode:%s, IsVirtual:%t}",
		k.BaseURL, mask(k.AccountNo), k.AccountProductCode, k.IsVirtual)
}

// FXConfig holds USD/KRW exchange-rate settings
type FXConfig struct {
	URL           string
	FallbackRate  float64
	CacheTTL      time.Duration
	NaverFallback bool
	NaverURL      string
}

// PortfolioConfig holds heuristic defaults for the normalizer
type PortfolioConfig struct {
	DisplayCurrency       string // USD, KRW
	FairPriceMultiplier   float64
	TargetPriceMultiplier float64
	ChartPoints           int
}

// DatabaseConfig holds PostgreSQL configuration.
// An empty URL disables snapshot history.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ConfigError reports missing or invalid settings.
// It is returned before any network activity happens.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		KIS: KISConfig{
			AppKey:             getEnvAny("", "APP_KEY", "KIS_APP_KEY"),
			AppSecret:          getEnvAny("", "APP_SECRET", "KIS_APP_SECRET"),
			BaseURL:            strings.TrimRight(getEnvAny("", "URL_BASE", "KIS_BASE_URL"), "/"),
			AccountNo:          getEnvAny("", "CANO", "KIS_ACCOUNT_NO"),
			AccountProductCode: getEnvAny("", "ACNT_PRDT_CD", "KIS_ACCOUNT_PRODUCT_CODE"),
			IsVirtual:          getEnvAsBool("KIS_IS_VIRTUAL", false),
			RateLimit:          getEnvAsInt("KIS_RATE_LIMIT", 10),
		},

		FX: FXConfig{
			URL:           getEnv("FX_URL", "https://open.er-api.com/v6/latest/USD"),
			FallbackRate:  getEnvAsFloat("FX_FALLBACK_RATE", 1350.0),
			CacheTTL:      getEnvAsDuration("FX_CACHE_TTL", "1h"),
			NaverFallback: getEnvAsBool("FX_NAVER_FALLBACK", false),
			NaverURL:      getEnv("FX_NAVER_URL", "https://finance.naver.com/marketindex/"),
		},

		Portfolio: PortfolioConfig{
			DisplayCurrency:       strings.ToUpper(getEnv("DISPLAY_CURRENCY", "USD")),
			FairPriceMultiplier:   getEnvAsFloat("FAIR_PRICE_MULTIPLIER", 1.1),
			TargetPriceMultiplier: getEnvAsFloat("TARGET_PRICE_MULTIPLIER", 1.2),
			ChartPoints:           getEnvAsInt("CHART_POINTS", 10),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", "10s"),

		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 0 * * * *"),
		WSPushInterval:   getEnvAsDuration("WS_PUSH_INTERVAL", "60s"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	cerr := &ConfigError{}

	required := []struct {
		key   string
		value string
	}{
		{"APP_KEY", c.KIS.AppKey},
		{"APP_SECRET", c.KIS.AppSecret},
		{"URL_BASE", c.KIS.BaseURL},
		{"CANO", c.KIS.AccountNo},
		{"ACNT_PRDT_CD", c.KIS.AccountProductCode},
	}
	for _, r := range required {
		if r.value == "" {
			cerr.Missing = append(cerr.Missing, r.key)
		}
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		cerr.Invalid = append(cerr.Invalid, "ENV must be one of: development, staging, production")
	}
	if c.Portfolio.DisplayCurrency != "USD" && c.Portfolio.DisplayCurrency != "KRW" {
		cerr.Invalid = append(cerr.Invalid, "DISPLAY_CURRENCY must be USD or KRW")
	}
	if c.FX.FallbackRate <= 0 {
		cerr.Invalid = append(cerr.Invalid, "FX_FALLBACK_RATE must be positive")
	}
	if c.FX.CacheTTL <= 0 {
		cerr.Invalid = append(cerr.Invalid, "FX_CACHE_TTL must be positive")
	}

	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

// getEnvAny returns the first non-empty value among keys
func getEnvAny(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
