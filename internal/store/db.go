package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kabrax96/ConNL-dev/internal/config"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// Connect opens and pings a connection pool for cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if !cfg.HasDatabase() {
		return nil, apperrors.New(apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"database is not configured").
			WithSuggestion("set DATABASE_URL or SERVER_NAME and DATABASE_NAME")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"failed to parse database config")
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeConnection,
			"failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeConnection,
			"failed to reach database").
			WithContext("host", cfg.Host)
	}
	return pool, nil
}
