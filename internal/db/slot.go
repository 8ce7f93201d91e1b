package db

import (
	"context"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/migrate"
	slotrepo "storefront/internal/repository/slot"

	"github.com/rs/zerolog"
)

const redisKeyPrefix = "storefront"

// OpenSlot connects the cart slot backend named by cfg.SlotBackend. The
// returned func releases its connections.
func OpenSlot(ctx context.Context, cfg config.Config, logger zerolog.Logger) (slotrepo.Repository, func(), error) {
	switch cfg.SlotBackend {
	case config.SlotBackendPostgres:
		pool, err := Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return slotrepo.NewPostgres(pool, logger), pool.Close, nil
	case config.SlotBackendRedis:
		client, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return slotrepo.Prefixed(slotrepo.NewRedis(client), redisKeyPrefix), func() { client.Close() }, nil
	case config.SlotBackendMemory:
		return slotrepo.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown slot backend %q", cfg.SlotBackend)
	}
}
