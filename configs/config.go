package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	MongoURI            string
	DBName              string
	BooksCollection     string
	JWTSecret           string
	UserId              string
	UserName            string
	UserPassword        string
	QueryTimeout        time.Duration
	PageSize            int
	AuditExportInterval time.Duration
	LogLevel            string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

const (
	DefaultMongoURI        = "mongodb://localhost:27017"
	DefaultDBName          = "plp_bookstore"
	DefaultBooksCollection = "books"
	DefaultPort            = "8080"
	DefaultPageSize        = 5
	DefaultQueryTimeout    = 10 * time.Second
	DefaultExportInterval  = 30 * time.Second
)

// LoadConfig reads the optional env files (".env" when none are given) and
// then the process environment.
func LoadConfig(envFiles ...string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(envFiles...); err == nil {
		cfg.EnvFileLoaded = true
	}

	cfg.Port = getenv("PORT", DefaultPort)
	cfg.MongoURI = getenv("MONGO_URI", DefaultMongoURI)
	cfg.DBName = getenv("DB_NAME", DefaultDBName)
	cfg.BooksCollection = getenv("BOOKS_COLLECTION", DefaultBooksCollection)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.UserId = os.Getenv("HARD_CODED_USER_ID")
	cfg.UserName = os.Getenv("HARD_CODED_USER_NAME")
	cfg.UserPassword = os.Getenv("HARD_CODED_USER_PASSWORD")
	cfg.LogLevel = getenv("LOG_LEVEL", "info")

	var err error
	if cfg.QueryTimeout, err = durationEnv("QUERY_TIMEOUT", DefaultQueryTimeout); err != nil {
		return cfg, err
	}
	if cfg.AuditExportInterval, err = durationEnv("AUDIT_EXPORT_INTERVAL", DefaultExportInterval); err != nil {
		return cfg, err
	}

	cfg.PageSize = DefaultPageSize
	if val := os.Getenv("PAGE_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid PAGE_SIZE %q: must be a positive integer", val)
		}
		cfg.PageSize = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, val)
	}
	return d, nil
}
