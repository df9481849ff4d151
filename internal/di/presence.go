package di

import (
	"log/slog"
	"time"

	infraRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/redis"
	presenceRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/presence/redis"
)

// ProvidePresence returns the node lease registry, or nil when Redis is not configured
func ProvidePresence(redisProvider *infraRedis.Provider, ttl time.Duration, logger *slog.Logger) *presenceRedis.Registry {
	if redisProvider == nil {
		return nil
	}
	client := redisProvider.GetPresence()
	if client == nil {
		return nil
	}
	return presenceRedis.NewRegistry(client, ttl, logger)
}
