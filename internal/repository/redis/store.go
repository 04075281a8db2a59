package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/obs/retry"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ service.Store = (*Store)(nil)

type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// Store keeps the registry document under a single Redis key.
type Store struct {
	rdb goredis.UniversalClient
	key string
}

// Connect dials Redis and waits until it answers PING.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := retry.Do(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, retry.StoreConnectPolicy(log))
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return New(rdb, cfg.Key), nil
}

func New(rdb goredis.UniversalClient, key string) *Store {
	if key == "" {
		key = "krymon:services"
	}
	return &Store{rdb: rdb, key: key}
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Exists(ctx context.Context) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key).Result()
	if err != nil {
		return false, service.NewStoreError(service.OpExists, err)
	}
	return n > 0, nil
}

func (s *Store) Load(ctx context.Context) (service.Registry, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return service.Registry{}, service.NewStoreError(service.OpLoad, service.ErrNoDocument)
		}
		return service.Registry{}, service.NewStoreError(service.OpLoad, err)
	}
	if len(data) == 0 {
		return service.EmptyRegistry(), nil
	}

	var reg service.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return service.Registry{}, service.NewStoreError(service.OpDecode, err)
	}
	if err := reg.Validate(); err != nil {
		return service.Registry{}, service.NewStoreError(service.OpDecode, err)
	}
	return service.Normalize(reg), nil
}

func (s *Store) LoadOrEmpty(ctx context.Context) (service.Registry, error) {
	ok, err := s.Exists(ctx)
	if err != nil {
		return service.Registry{}, err
	}
	if !ok {
		return service.EmptyRegistry(), nil
	}
	return s.Load(ctx)
}

func (s *Store) Save(ctx context.Context, r service.Registry) error {
	data, err := json.Marshal(service.Normalize(r))
	if err != nil {
		return service.NewStoreError(service.OpEncode, err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return service.NewStoreError(service.OpSave, err)
	}
	return nil
}
