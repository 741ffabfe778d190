package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"home-price-api/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenDatabase connects gorm to the configured backend. Postgres goes
// through a pgx pool; the returned close func releases the pool and the
// sql.DB handle.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return db, closeSQL(db, nil), nil
	case "postgres", "":
		return openPostgres(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("db pool init failed: %w", err)
	}

	// Retry while postgres finishes starting up alongside the API.
	var lastErr error
	for i := 0; i < 10; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = pool.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			break
		}
		log.Printf("Postgres ping attempt %d/10 failed: %v", i+1, lastErr)
		time.Sleep(2 * time.Second)
	}
	if lastErr != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("db ping failed after 10 attempts: %w", lastErr)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		sqlDB.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	return db, closeSQL(db, pool.Close), nil
}

// gormConfig stamps created_at/updated_at in UTC so ordering is stable
// across backends.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func closeSQL(db *gorm.DB, after func()) func() {
	return func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		if after != nil {
			after()
		}
	}
}
