package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pool is an alias for pgxpool.Pool
type Pool = pgxpool.Pool

// NewPool creates a PostgreSQL connection pool wired into the fx lifecycle.
// The pool is pinged on start so a misconfigured DATABASE_URL fails fast.
func NewPool(lc fx.Lifecycle, logger *zap.Logger, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to create connection pool: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				logger.Error("database ping failed",
					zap.Error(err),
					zap.String("url", maskPassword(databaseURL)))
				return fmt.Errorf("[DATABASE] connection check failed: %w", err)
			}
			logger.Info("database connection established")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Close()
			logger.Info("database connection closed")
			return nil
		},
	})

	return pool, nil
}

// maskPassword hides the credential part of a connection URL for log output.
func maskPassword(url string) string {
	if url == "" {
		return "<empty>"
	}
	start := 0
	for i := 0; i < len(url); i++ {
		if url[i] == ':' && i > 0 && url[i-1] != '/' {
			start = i + 1
		}
		if url[i] == '@' && start > 0 {
			return url[:start] + "***" + url[i:]
		}
	}
	return url
}
