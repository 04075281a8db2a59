package main

import (
	"context"
	"fmt"

	config "github.com/NordCoder/Krymon/internal/config/krymon"
	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/repository/file"
	"github.com/NordCoder/Krymon/internal/repository/redis"
	"go.uber.org/zap"
)

// initStore returns the configured backend and a closer for it.
func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		st, err := redis.Connect(ctx, cfg.Store.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis store", zap.String("addr", cfg.Store.Redis.Addr), zap.String("key", cfg.Store.Redis.Key))
		return st, st.Close, nil
	case config.BackendFile:
		st, err := file.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", zap.String("path", st.Path()))
		return st, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
