package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Scraper  ScraperConfig
	Pricing  PricingConfig
	Shipping ShippingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// GetDSN builds the postgres connection string.
func (d DatabaseConfig) GetDSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// ScraperConfig holds marketplace scraper configuration. Navigation and
// ready timeouts bound every page load; each fetch uses its own browser tab.
type ScraperConfig struct {
	BaseURL           string
	UserAgent         string
	Headless          bool
	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration
}

// PricingConfig holds the conversion constants applied to scraped prices.
// Sale price: source × ExchangeRate × Markup. Cost price: (source ×
// ExchangeRate + FlatShipping) × (1 + TaxRate).
type PricingConfig struct {
	ExchangeRate float64
	Markup       float64
	FlatShipping float64
	TaxRate      float64
}

// ShippingConfig holds own-warehouse freight quoting parameters.
type ShippingConfig struct {
	OriginCEP           string
	HandlingDays        int
	InboundLeadTimeDays int
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "sophia_admin"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "mercadodasophia_secret_key"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "sophia"),
		},
		Scraper: ScraperConfig{
			BaseURL:           getEnv("SCRAPER_BASE_URL", "https://www.aliexpress.com"),
			UserAgent:         getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
			Headless:          getEnvAsBool("SCRAPER_HEADLESS", true),
			NavigationTimeout: getEnvAsDuration("SCRAPER_NAV_TIMEOUT", 30*time.Second),
			ReadyTimeout:      getEnvAsDuration("SCRAPER_READY_TIMEOUT", 10*time.Second),
		},
		Pricing: PricingConfig{
			ExchangeRate: getEnvAsFloat("PRICING_EXCHANGE_RATE", 5.5),
			Markup:       getEnvAsFloat("PRICING_MARKUP", 1.3),
			FlatShipping: getEnvAsFloat("PRICING_FLAT_SHIPPING", 2.0),
			TaxRate:      getEnvAsFloat("PRICING_TAX_RATE", 0.6),
		},
		Shipping: ShippingConfig{
			OriginCEP:           getEnv("STORE_ORIGIN_CEP", "01001-000"),
			HandlingDays:        getEnvAsInt("STORE_HANDLING_DAYS", 2),
			InboundLeadTimeDays: getEnvAsInt("INBOUND_LEAD_TIME_DAYS", 12),
		},
	}, nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
