// Package store selects the persistence backend named in config.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/store/memory"
	"github.com/dkeye/hotspot/internal/store/postgres"
	"github.com/dkeye/hotspot/internal/store/redis"
	"github.com/dkeye/hotspot/internal/store/sqlite"
	"github.com/rs/zerolog/log"
)

var ErrUnknownDriver = errors.New("unknown store driver")

func Open(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	logger := log.With().Str("module", "store").Str("driver", cfg.Driver).Logger()
	switch cfg.Driver {
	case "", "memory":
		logger.Info().Msg("using in-memory store")
		return memory.New(), nil
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		logger.Info().Str("path", cfg.SQLite.Path).Msg("sqlite store ready")
		return s, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.Name).Msg("postgres store ready")
		return s, nil
	case "redis":
		s, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis store ready")
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
