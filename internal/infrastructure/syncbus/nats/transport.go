package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// ensure interface compliance
var _ ports.Transport = (*Transport)(nil)

// Transport 以 NATS Core Pub/Sub 實作跨實例的訊息傳輸。
// 每個實例都必須收到所有通知，因此不使用 Queue Group 或 JetStream Durable Consumer。
type Transport struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// Connect 連線到 NATS 並建立傳輸層
//
// 參數:
//
//	url: string - NATS 伺服器位址 (可用逗號分隔多台)
//	subject: string - 主題名稱
//	name: string - 連線名稱 (通常為實例 ID)
//	logger: *slog.Logger - 日誌
func Connect(url, subject, name string, logger *slog.Logger) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected with error", "error", err)
			} else {
				logger.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subj := ""
			if sub != nil {
				subj = sub.Subject
			}
			logger.Error("NATS async error", "subject", subj, "error", err)
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS", "servers", url, "subject", subject)
	return &Transport{nc: nc, subject: subject, logger: logger}, nil
}

// Publish 發送訊息
func (t *Transport) Publish(_ context.Context, payload []byte) error {
	if err := t.nc.Publish(t.subject, payload); err != nil {
		return fmt.Errorf("nats publish to %s: %w", t.subject, err)
	}
	return nil
}

// Subscribe 訂閱主題；ctx 結束時自動取消訂閱
func (t *Transport) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	sub, err := t.nc.Subscribe(t.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe to %s: %w", t.subject, err)
	}

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed && err != nats.ErrBadSubscription {
				t.logger.Warn("Failed to unsubscribe", "subject", t.subject, "error", err)
			}
		}()
	}
	return nil
}

// Close 送出緩衝中的訊息並關閉連線
func (t *Transport) Close() error {
	t.mu.Lock()
	t.subs = nil
	t.mu.Unlock()

	if err := t.nc.Drain(); err != nil {
		t.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// IsConnected 連線狀態
func (t *Transport) IsConnected() bool {
	return t.nc != nil && t.nc.IsConnected()
}
