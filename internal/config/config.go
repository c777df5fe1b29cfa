package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	JWTSecret       string
	TrustUserHeader bool

	EncryptKey        string
	EncryptLegacyKeys []string

	DirectoryURL     string
	DirectoryTimeout time.Duration
	RedisURL         string
	ProfileCacheTTL  time.Duration

	MaxMessageLength      int
	PaginationDefaultSize int
	PaginationMaxSize     int
	ReadTimeout           time.Duration

	CORSOrigins      []string
	WSAllowedOrigins []string

	DeliveryQueueSize int
	DeliveryWorkers   int
	DeliveryTimeout   time.Duration

	EventsExchange        string
	RoutingKeyMessageSent string
	RoutingKeyMessageRead string
}

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPass := getEnv("POSTGRES_PASSWORD", "postgres")
	dbName := getEnv("POSTGRES_DB", "messaging")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}

	cfg := &Config{
		AppName: getEnv("APP_NAME", "wellness messaging"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8083),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: getEnv("DATABASE_URL", u.String()),
		SQLitePath:  getEnv("SQLITE_PATH", "messaging.db"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		TrustUserHeader: getEnvAsBool("TRUST_USER_HEADER", false),

		EncryptKey:        os.Getenv("ENCRYPTION_KEY"),
		EncryptLegacyKeys: getEnvAsList("ENCRYPTION_LEGACY_KEYS", nil),

		DirectoryURL:     strings.TrimRight(getEnv("DIRECTORY_URL", "http://localhost:8082/usuarios"), "/"),
		DirectoryTimeout: getEnvAsDuration("DIRECTORY_TIMEOUT", 5*time.Second),
		RedisURL:         os.Getenv("REDIS_URL"),
		ProfileCacheTTL:  getEnvAsDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		MaxMessageLength:      getEnvAsInt("MAX_MESSAGE_LENGTH", 5000),
		PaginationDefaultSize: getEnvAsInt("PAGINATION_DEFAULT_SIZE", 20),
		PaginationMaxSize:     getEnvAsInt("PAGINATION_MAX_SIZE", 100),
		ReadTimeout:           getEnvAsDuration("READ_TIMEOUT", 10*time.Second),

		CORSOrigins:      getEnvAsList("CORS_ORIGINS", defaultOrigins),
		WSAllowedOrigins: getEnvAsList("WS_ALLOWED_ORIGINS", defaultOrigins),

		DeliveryQueueSize: getEnvAsInt("DELIVERY_QUEUE_SIZE", 1024),
		DeliveryWorkers:   getEnvAsInt("DELIVERY_WORKERS", 4),
		DeliveryTimeout:   getEnvAsDuration("DELIVERY_TIMEOUT", 5*time.Second),

		EventsExchange:        getEnv("EVENTS_EXCHANGE", "messaging.exchange"),
		RoutingKeyMessageSent: getEnv("EVENTS_ROUTING_KEY_MESSAGE_SENT", "message.sent"),
		RoutingKeyMessageRead: getEnv("EVENTS_ROUTING_KEY_MESSAGE_READ", "message.read"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.MaxMessageLength <= 0 {
		return nil, fmt.Errorf("MAX_MESSAGE_LENGTH must be positive")
	}
	if cfg.PaginationDefaultSize > cfg.PaginationMaxSize {
		cfg.PaginationDefaultSize = cfg.PaginationMaxSize
	}
	if cfg.DeliveryWorkers <= 0 {
		cfg.DeliveryWorkers = 1
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvAsList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
