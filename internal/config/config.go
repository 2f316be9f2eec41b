package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Port string

	DBDriver    string // postgres | sqlite
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	SQLitePath  string

	RedisURL   string
	SessionTTL time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
	LogFile  string

	CookieSecure bool

	AdminEmail    string
	AdminPassword string
}

// Load reads the configuration from the process environment.
// Call godotenv.Load before Load to pick up a .env file.
func Load() Config {
	return Config{
		Port: getenv("PORT", "3000"),

		DBDriver:    getenv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getenv("DB_NAME", "commust"),
		DBPort:      getenv("DB_PORT", "5432"),
		SQLitePath:  getenv("SQLITE_PATH", "commust.db"),

		RedisURL:   os.Getenv("REDIS_URL"),
		SessionTTL: getduration("SESSION_TTL", 24*time.Hour),

		JWTSecret: getenv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:    getduration("JWT_TTL", 24*time.Hour),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "catalog.products"),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		CookieSecure: getbool("COOKIE_SECURE", false),

		AdminEmail:    getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getenv("ADMIN_PASSWORD", "admin123"),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
