package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBaseURL is used when API_BASE_URL is not set.
const DefaultAPIBaseURL = "https://backendhoatuoiuit.onrender.com"

type Config struct {
	Addr           string
	EventsAddr     string
	APIBaseURL     string
	ChatbotURL     string
	ImageSearchURL string
	SiteURL        string
	JWTSecret      string
	SessionTTL     time.Duration
	StateIdleTTL   time.Duration
	ChatPoolSize   int
	BackendTimeout time.Duration
	CatalogTTL     time.Duration
	RedisURL       string
	DatabaseURL    string
	KafkaBrokers   []string
	LogLevel       string
	LogFormat      string
}

func Load() Config {
	apiBase := strings.TrimRight(getEnv("API_BASE_URL", DefaultAPIBaseURL), "/")

	return Config{
		Addr:           getEnv("STOREFRONT_ADDR", ":8080"),
		EventsAddr:     getEnv("STOREFRONT_EVENTS_ADDR", ":8081"),
		APIBaseURL:     apiBase,
		ChatbotURL:     strings.TrimRight(getEnv("CHATBOT_URL", apiBase), "/"),
		ImageSearchURL: strings.TrimRight(getEnv("IMAGE_SEARCH_URL", "http://localhost:8000"), "/"),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 72*time.Hour),
		StateIdleTTL:   getEnvAsDuration("STATE_IDLE_TTL", 30*time.Minute),
		ChatPoolSize:   getEnvAsInt("CHAT_POOL_SIZE", 1000),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		CatalogTTL:     getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		RedisURL:       os.Getenv("REDIS_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
