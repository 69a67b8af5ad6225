package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

// Clients holds the optional redis-backed collaborators. All fields are nil without REDIS_ADDR.
type Clients struct {
	Redis *goredis.Client
	Bus   redis.ProgressBus
	Cache redis.SnapshotCache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; progress bus and snapshot cache disabled")
		return Clients{}, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	bus, err := redis.NewProgressBus(log, rdb, cfg.RedisChannel)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis progress bus: %w", err)
	}

	out := Clients{Redis: rdb, Bus: bus}
	if cfg.CacheEnabled {
		cache, err := redis.NewSnapshotCache(log, rdb, cfg.CacheTTL)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init snapshot cache: %w", err)
		}
		out.Cache = cache
	}
	return out, nil
}

func (c Clients) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
