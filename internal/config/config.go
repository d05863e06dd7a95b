package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Portfolio PortfolioConfig
	Auth      AuthConfig
	CORS      CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// ProviderConfig holds market data provider configuration.
// Tier selection is a static configuration choice, not runtime-detected.
type ProviderConfig struct {
	APIKey     string
	IsPaidTier bool
	MaxRetries int
	RetryDelay int // base backoff delay in seconds
}

// PortfolioConfig holds portfolio behavior configuration.
type PortfolioConfig struct {
	InitialCash     float64
	BenchmarkTicker string
	LookbackDays    int
	CooldownSeconds int
	RiskFreeRate    float64 // annual, e.g. 0.045
	RefreshSchedule string  // cron expression for the scheduled refresh
}

// AuthConfig holds admin session configuration.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash
	SessionKey        string // base64 fernet key; generated if empty
	SessionTTLDays    int
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio.db"),
		},
		Provider: ProviderConfig{
			APIKey:     getEnv("ALPHAVANTAGE_API_KEY", ""),
			IsPaidTier: getEnvBool("ALPHAVANTAGE_PAID_TIER", false),
			MaxRetries: getEnvInt("PROVIDER_MAX_RETRIES", 3),
			RetryDelay: getEnvInt("PROVIDER_RETRY_DELAY", 5),
		},
		Portfolio: PortfolioConfig{
			InitialCash:     getEnvFloat("INITIAL_CASH", 100000),
			BenchmarkTicker: getEnv("BENCHMARK_TICKER", "SPY"),
			LookbackDays:    getEnvInt("LOOKBACK_DAYS", 365),
			CooldownSeconds: getEnvInt("MANUAL_REFRESH_COOLDOWN", 60),
			RiskFreeRate:    getEnvFloat("RISK_FREE_RATE", 0.045),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "*/15 * * * *"),
		},
		Auth: AuthConfig{
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionKey:        getEnv("SESSION_KEY", ""),
			SessionTTLDays:    getEnvInt("SESSION_TTL_DAYS", 7),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
