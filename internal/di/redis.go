package di

import (
	"github.com/JoeShih716/go-gems-ledger/internal/config"
	infraRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/redis"
)

// InitializeRedisProvider initializes the Redis provider with config.
// 未設定 Redis 位址時回傳 nil (單機模式)。
func InitializeRedisProvider(cfg *config.Config) (*infraRedis.Provider, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	if len(cfg.Redis.DB) == 0 {
		cfg.Redis.DB = map[string]config.RedisDBConfig{string(infraRedis.DBNameSync): {Index: 0}}
	}
	return infraRedis.NewProvider(cfg.Redis)
}
