package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	pkgRedis "github.com/JoeShih716/go-gems-ledger/pkg/redis"
)

// DefaultExpiration 鎖的自動過期時間
const DefaultExpiration = 5 * time.Minute

// ensure interface compliance
var _ ports.Locker = (*Locker)(nil)

// Locker 以 Redis SETNX 實作跨實例互斥鎖
type Locker struct {
	client     *pkgRedis.Client
	expiration time.Duration
	logger     *slog.Logger
}

// NewLocker 建立 Locker；expiration <= 0 時使用 DefaultExpiration
func NewLocker(client *pkgRedis.Client, expiration time.Duration, logger *slog.Logger) *Locker {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{client: client, expiration: expiration, logger: logger}
}

// Acquire 嘗試取得鎖 (不等待)；已被其他實例持有時回傳 ports.ErrLockNotAcquired
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.AcquireLock(ctx, key, token, l.expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrLockNotAcquired, key)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.client.ReleaseLock(ctx, key, token); err != nil {
			l.logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}
	return release, nil
}
