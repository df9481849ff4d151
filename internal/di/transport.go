package di

import (
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/syncbus"
	infraRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/redis"
	lockRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/lock/redis"
	natsTransport "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/syncbus/nats"
	redisTransport "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/syncbus/redis"
)

// ProvideTransport selects the sync bus transport by sync.transport
func ProvideTransport(cfg *config.Config, redisProvider *infraRedis.Provider, logger *slog.Logger) (ports.Transport, error) {
	switch cfg.Sync.Transport {
	case config.TransportRedis:
		if redisProvider == nil {
			return nil, fmt.Errorf("sync transport redis requires redis.addr")
		}
		client := redisProvider.GetSync()
		if client == nil {
			return nil, fmt.Errorf("Redis Sync DB (key: 'sync') not found in config")
		}
		return redisTransport.NewTransport(client, cfg.Sync.Channel), nil

	case config.TransportNATS:
		return natsTransport.Connect(cfg.NATS.URL, cfg.Sync.Channel, cfg.App.InstanceID, logger)

	case config.TransportLocal:
		return syncbus.NewHub().Transport(), nil

	default:
		return nil, fmt.Errorf("unknown sync transport %q", cfg.Sync.Transport)
	}
}

// ProvideLocker returns a Redis locker, or nil when Redis is not configured
func ProvideLocker(redisProvider *infraRedis.Provider, logger *slog.Logger) ports.Locker {
	if redisProvider == nil {
		return nil
	}
	client := redisProvider.GetLock()
	if client == nil {
		return nil
	}
	return lockRedis.NewLocker(client, lockRedis.DefaultExpiration, logger)
}
