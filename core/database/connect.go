package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/avatarbot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	waitInterval   = 2 * time.Second
)

func connAttrs(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
}

// Connect opens the pool, verifies connectivity and applies pool limits.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := logger.Took(start)
	if err != nil {
		logger.Error(ctx, "db", "db.connect",
			append(connAttrs(cfg),
				slog.String("status", "fail"),
				slog.Duration("duration", took),
				slog.String("err", err.Error()),
			)...,
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.Info(ctx, "db", "db.connect",
		append(connAttrs(cfg),
			slog.String("status", "ok"),
			slog.Int("pool_open", cfg.MaxConnections),
			slog.Duration("duration", took),
		)...,
	)
	return db, nil
}

// WaitForPostgres pings the server until it answers or timeout elapses.
func WaitForPostgres(ctx context.Context, cfg Config, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-ticker.C:
		}
	}
}
