package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the backend configuration, loaded from environment variables.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoURI      string
	MongoDatabase string

	RedisAddr    string
	CacheTTL     time.Duration
	KafkaBrokers []string

	StripeSecretKey string
	FrontendURL     string

	JWTSecret string

	BucketURL    string
	MediaBaseURL string

	// Checkout pricing
	FreeShippingThreshold float64
	ShippingFlatFee       float64
	TaxRate               float64
	OrderNumberPrefix     string
}

// Load reads configuration from the environment with development defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "nayher"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		CacheTTL:     getDuration("CACHE_TTL", 5*time.Minute),
		KafkaBrokers: getList("KAFKA_BROKERS", nil),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),

		BucketURL:    getEnv("MEDIA_BUCKET_URL", "file:///tmp/nayher-media"),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "http://localhost:8080/media"),

		FreeShippingThreshold: getFloat("FREE_SHIPPING_THRESHOLD", 999),
		ShippingFlatFee:       getFloat("SHIPPING_FLAT_FEE", 49),
		TaxRate:               getFloat("TAX_RATE", 0.05),
		OrderNumberPrefix:     getEnv("ORDER_NUMBER_PREFIX", "NYH"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
