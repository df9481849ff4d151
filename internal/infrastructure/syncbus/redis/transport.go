package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	pkgRedis "github.com/JoeShih716/go-gems-ledger/pkg/redis"
)

// ensure interface compliance
var _ ports.Transport = (*Transport)(nil)

// Transport 以 Redis Pub/Sub 實作跨實例的訊息傳輸。
// Redis Pub/Sub 不保留訊息；訂閱建立前發出的通知不會被收到。
type Transport struct {
	client  *pkgRedis.Client
	channel string

	mu   sync.Mutex
	subs []pkgRedis.Subscription
}

// NewTransport 建立 Redis 傳輸層
//
// 參數:
//
//	client: *pkgRedis.Client - Redis 客戶端
//	channel: string - 頻道名稱 (所有共用同一個持久層的實例必須相同)
func NewTransport(client *pkgRedis.Client, channel string) *Transport {
	return &Transport{
		client:  client,
		channel: channel,
	}
}

// Publish 發送訊息到頻道
func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	if err := t.client.Publish(ctx, t.channel, payload); err != nil {
		return fmt.Errorf("redis publish to %s: %w", t.channel, err)
	}
	return nil
}

// Subscribe 訂閱頻道
func (t *Transport) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	sub, err := t.client.Subscribe(ctx, t.channel, pkgRedis.MessageHandler(handler))
	if err != nil {
		return fmt.Errorf("redis subscribe to %s: %w", t.channel, err)
	}
	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return nil
}

// Close 取消所有訂閱 (Redis 連線由 Provider 管理，不在這裡關閉)
func (t *Transport) Close() error {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	var firstErr error
	for _, s := range subs {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
