package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	MongoURI   string
	MongoDB    string
	RedisAddr  string
	RedisPool  int
	QueueSize  int
	WorkerPool int

	FeaturedCacheTTL time.Duration
	CacheTimeout     time.Duration
	GatewayTimeout   time.Duration
	IdempotencyTTL   time.Duration

	StripeSecretKey  string
	StripeSuccessURL string
	StripeCancelURL  string
	Currency         string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "storefront"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPool:  getEnvInt("REDIS_POOL_SIZE", 100),
		QueueSize:  getEnvInt("ASSET_QUEUE_SIZE", 1000),
		WorkerPool: getEnvInt("ASSET_WORKERS", 4),

		FeaturedCacheTTL: getEnvDuration("FEATURED_CACHE_TTL", 3600*time.Second),
		CacheTimeout:     getEnvDuration("CACHE_TIMEOUT", 250*time.Millisecond),
		GatewayTimeout:   getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		IdempotencyTTL:   getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripeSuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:5173/OrderSuccess"),
		StripeCancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:5173/cart"),
		Currency:         getEnv("CURRENCY", "inr"),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
