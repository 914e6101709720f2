package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the runtime configuration for the service. Values come
// from environment variables (optionally seeded from a .env file by
// main) with the defaults below. See .env.example.
type Config struct {
	ListenAddr string `env:"APP_LISTEN_ADDR" envDefault:":8080"`

	// DatabaseURL, when set, wins over the individual PGSQL_* values.
	DatabaseURL string `env:"APP_DATABASE_URL"`

	DBHost     string `env:"PGSQL_HOST" envDefault:"localhost"`
	DBPort     int    `env:"PGSQL_PORT" envDefault:"5432"`
	DBUser     string `env:"PGSQL_USER"`
	DBPassword string `env:"PGSQL_PASS"`
	DBName     string `env:"PGSQL_DB_NAME"`
	DBSSLMode  string `env:"PGSQL_SSLMODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	QueryTimeout    time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"30s"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	AIInsightURL      string        `env:"AI_INSIGHT_URL" envDefault:"http://localhost:8000/api/ai/generate/insights"`
	AITimeout         time.Duration `env:"AI_TIMEOUT" envDefault:"10s"`
	AIMaxRetries      uint64        `env:"AI_MAX_RETRIES" envDefault:"1"`
	AIRetryWait       time.Duration `env:"AI_RETRY_WAIT" envDefault:"250ms"`
	AIBreakerFailures uint32        `env:"AI_BREAKER_FAILURES" envDefault:"5"`
	AIBreakerCooldown time.Duration `env:"AI_BREAKER_COOLDOWN" envDefault:"30s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// OverviewRefreshInterval enables the area overview refresh worker when positive.
	OverviewRefreshInterval time.Duration `env:"OVERVIEW_REFRESH_INTERVAL" envDefault:"0s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogCaller bool   `env:"LOG_CALLER" envDefault:"false"`
}

// Load reads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && (c.DBUser == "" || c.DBName == "") {
		return errors.New("either APP_DATABASE_URL or PGSQL_USER and PGSQL_DB_NAME must be set")
	}
	if c.DatabaseURL != "" {
		dsn := strings.TrimSpace(c.DatabaseURL)
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
		}
	}
	if c.QueryTimeout <= 0 {
		return errors.New("DB_QUERY_TIMEOUT must be positive")
	}
	if c.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if _, err := url.ParseRequestURI(c.AIInsightURL); err != nil {
		return fmt.Errorf("AI_INSIGHT_URL: %w", err)
	}
	return nil
}

// DSN returns the connection string handed to the postgres driver.
func (c *Config) DSN() string {
	if dsn := strings.TrimSpace(c.DatabaseURL); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + quote(c.DBHost),
		fmt.Sprintf("port=%d", c.DBPort),
		"user=" + quote(c.DBUser),
		"dbname=" + quote(c.DBName),
		"sslmode=" + quote(c.DBSSLMode),
	}
	if c.DBPassword != "" {
		parts = append(parts, "password="+quote(c.DBPassword))
	}
	return strings.Join(parts, " ")
}

// quote escapes a libpq key/value DSN value.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
