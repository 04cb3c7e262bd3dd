// Package postgres stores the Odoo mirror in PostgreSQL.
//
// The tests in this package need a live server and are skipped unless
// MIRROR_TEST_DB=1. Run them against a throwaway database, for example:
//
//	docker run -d --rm -p 5432:5432 -e POSTGRES_PASSWORD=postgres -e POSTGRES_DB=odoo_mirror postgres:16
//	MIRROR_TEST_DB=1 MIRROR_DB_PASSWORD=postgres go test ./pkg/mirror/postgres/...
//
// The tests truncate every mirror table.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/natserract/odoo/pkg/config"
	"go.uber.org/zap"
)

//go:embed schema.sql
var SchemaSQL string

// DB wraps the pgx connection pool and provides methods for database operations
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a new database connection pool using pgx
func New(ctx context.Context, cfg config.Database, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection pool established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", poolConfig.MaxConns))

	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// InitSchema creates the mirror tables when they do not exist yet.
func (db *DB) InitSchema(ctx context.Context) error {
	db.logger.Info("Initializing database schema")

	if _, err := db.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("Database schema initialized successfully")
	return nil
}
