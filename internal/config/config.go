package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server reads from the environment. godotenv
// loads .env in main before this runs.
type Config struct {
	Addr              string
	DBDSN             string
	RedisURL          string
	JWTSecret         string
	GeminiAPIKey      string
	MirrorURL         string
	MirrorAPIKey      string
	MirrorInterval    time.Duration
	CartTTL           time.Duration
	CORSOrigins       []string
	AllowRegistration bool
	RateLimitRPS      float64
	RateLimitBurst    int
}

func Load() *Config {
	return &Config{
		Addr:              getEnv("ADDR", ":8080"),
		DBDSN:             os.Getenv("DB_DSN"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-only-secret"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		MirrorURL:         os.Getenv("MIRROR_URL"),
		MirrorAPIKey:      os.Getenv("MIRROR_API_KEY"),
		MirrorInterval:    getDuration("MIRROR_INTERVAL", 5*time.Second),
		CartTTL:           getDuration("CART_TTL", 12*time.Hour),
		CORSOrigins:       strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
