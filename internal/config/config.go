package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/bizadmin/pkg/config"
	pkgdb "github.com/Skotchmaster/bizadmin/pkg/db"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

var defaultOrigins = "http://localhost:3000,http://localhost:5173,http://localhost:8000"

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string

	SecretKey     string
	Algorithm     string
	AccessTTL     time.Duration
	LookupTimeout time.Duration

	DBDriver    string
	DatabaseURL string

	AllowedOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	LoginRatePerMinute int
	LoginBurst         int

	accessMinutes int
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_not_loaded", "error", err)
	}

	minutes := pkgconfig.EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	return Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "bizadmin"),
		Port:        pkgconfig.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		SecretKey:     os.Getenv("SECRET_KEY"),
		Algorithm:     pkgconfig.EnvDefault("ALGORITHM", tokens.AlgorithmHS256),
		AccessTTL:     time.Duration(minutes) * time.Minute,
		LookupTimeout: pkgconfig.EnvDurationDefault("AUTH_LOOKUP_TIMEOUT", 3*time.Second),

		DBDriver:    pkgconfig.EnvDefault("DB_DRIVER", pkgdb.DriverPGX),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		AllowedOrigins: pkgconfig.CSV(pkgconfig.EnvDefault("ALLOWED_ORIGINS", defaultOrigins)),

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   pkgconfig.EnvDefault("KAFKA_TOPIC", "account_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgconfig.EnvDefault("ES_INDEX", "users"),

		LoginRatePerMinute: pkgconfig.EnvIntDefault("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         pkgconfig.EnvIntDefault("LOGIN_BURST", 5),

		accessMinutes: minutes,
	}
}

// Validate returns the first problem as a *pkgconfig.ConfigurationError.
func (c Config) Validate() error {
	checks := []error{
		pkgconfig.RequireNonEmpty(c.SecretKey, "SECRET_KEY"),
		pkgconfig.RequireOneOf(c.Algorithm, "ALGORITHM", tokens.AlgorithmHS256),
		pkgconfig.RequirePositive(c.accessMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES"),
		pkgconfig.RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"),
		pkgconfig.RequireOneOf(c.DBDriver, "DB_DRIVER", pkgdb.DriverPGX, pkgdb.DriverPQ, pkgdb.DriverSQLite),
		pkgconfig.RequirePositive(int(c.LookupTimeout), "AUTH_LOOKUP_TIMEOUT"),
		pkgconfig.RequirePositive(c.LoginRatePerMinute, "LOGIN_RATE_PER_MINUTE"),
		pkgconfig.RequirePositive(c.LoginBurst, "LOGIN_BURST"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
