package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

const (
	DefaultSyncInterval = "*/5 * * * *"
	DefaultSyncLimit    = 100
)

// Database holds the connection settings of the PostgreSQL mirror.
type Database struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Sync controls the periodic pull from Odoo into the mirror.
type Sync struct {
	// AutoSync is on unless ODOO_AUTO_SYNC is exactly "false".
	AutoSync bool
	Interval string
	Limit    int
}

type Config struct {
	Database Database
	Sync     Sync
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	port, err := cast.ToIntE(getEnv("MIRROR_DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("MIRROR_DB_PORT is not a number: %w", err)
	}
	limit, err := cast.ToIntE(getEnv("ODOO_SYNC_LIMIT", fmt.Sprint(DefaultSyncLimit)))
	if err != nil {
		return nil, fmt.Errorf("ODOO_SYNC_LIMIT is not a number: %w", err)
	}

	cfg := &Config{
		Database: Database{
			Host:            getEnv("MIRROR_DB_HOST", "localhost"),
			Port:            port,
			User:            getEnv("MIRROR_DB_USER", "postgres"),
			Password:        os.Getenv("MIRROR_DB_PASSWORD"),
			Name:            getEnv("MIRROR_DB_NAME", "odoo_mirror"),
			SSLMode:         getEnv("MIRROR_DB_SSLMODE", "disable"),
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Sync: Sync{
			AutoSync: os.Getenv("ODOO_AUTO_SYNC") != "false",
			Interval: getEnv("ODOO_SYNC_INTERVAL", DefaultSyncInterval),
			Limit:    limit,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("MIRROR_DB_HOST is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("MIRROR_DB_PORT %d is out of range", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("MIRROR_DB_NAME is required")
	}
	if c.Sync.Limit <= 0 {
		return fmt.Errorf("ODOO_SYNC_LIMIT must be positive, got %d", c.Sync.Limit)
	}
	if _, err := cron.ParseStandard(c.Sync.Interval); err != nil {
		return fmt.Errorf("ODOO_SYNC_INTERVAL %q is not a valid cron expression: %w", c.Sync.Interval, err)
	}
	return nil
}

// DSN renders the database settings as a libpq keyword/value string.
func (d Database) DSN() string {
	parts := []string{
		"host=" + quote(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"user=" + quote(d.User),
		"dbname=" + quote(d.Name),
		"sslmode=" + quote(d.SSLMode),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quote(d.Password))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
