package syncbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

const (
	defaultBuffer  = 1024
	publishTimeout = 5 * time.Second
)

// Handler 處理來自其他實例的訊息
type Handler func(ctx context.Context, msg Message)

// Bus 為 ports.Publisher 的實作。
// Publish 只把訊息放進佇列，由背景 worker 送到 Transport；發送失敗只記錄日誌。
type Bus struct {
	transport ports.Transport
	origin    string
	logger    *slog.Logger

	out     chan Message
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var _ ports.Publisher = (*Bus)(nil)

// NewBus 建立並啟動 Bus
//
// 參數:
//
//	transport: ports.Transport - 傳輸層
//	origin: string - 本實例 ID (空字串時自動產生)
//	logger: *slog.Logger - 日誌
func NewBus(transport ports.Transport, origin string, logger *slog.Logger) *Bus {
	if origin == "" {
		origin = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		transport: transport,
		origin:    origin,
		logger:    logger,
		out:       make(chan Message, defaultBuffer),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.run()
	return b
}

// Origin 本實例 ID
func (b *Bus) Origin() string {
	return b.origin
}

// Publish 發送變更通知 (Fire-and-forget，不會阻塞)
func (b *Bus) Publish(_ context.Context, kind ports.ChangeKind, id uuid.UUID) {
	msg := Message{Kind: kind, ID: id, Origin: b.origin}
	select {
	case b.out <- msg:
	case <-b.done:
	default:
		// 佇列已滿，改由背景排入
		go func() {
			select {
			case b.out <- msg:
			case <-b.done:
			}
		}()
	}
}

// Subscribe 訂閱其他實例的訊息；自己發出的訊息與無法解碼的訊息會被略過
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	err := b.transport.Subscribe(ctx, func(payload []byte) {
		msg, err := Unmarshal(payload)
		if err != nil {
			b.logger.Warn("Dropping sync message", "error", err)
			return
		}
		if msg.Origin == b.origin {
			return
		}
		handler(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe sync bus: %w", err)
	}
	return nil
}

// Close 送出佇列中剩餘的訊息後關閉傳輸層
func (b *Bus) Close() error {
	b.once.Do(func() { close(b.done) })
	<-b.stopped
	return b.transport.Close()
}

func (b *Bus) run() {
	defer close(b.stopped)
	for {
		select {
		case msg := <-b.out:
			b.send(msg)
		case <-b.done:
			for {
				select {
				case msg := <-b.out:
					b.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) send(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.transport.Publish(ctx, msg.Marshal()); err != nil {
		b.logger.Warn("Failed to publish sync message",
			"kind", msg.Kind.String(), "id", msg.ID, "error", err)
	}
}
