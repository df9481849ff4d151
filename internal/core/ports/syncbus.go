package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// Transport 為跨程序訊息的傳輸層 (Redis Pub/Sub、NATS...)
// 只負責搬運位元組；編碼與語意由 syncbus 處理。
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_transport.go -package=mock_ports github.com/JoeShih716/go-gems-ledger/internal/core/ports Transport
type Transport interface {
	// Publish 發送訊息
	Publish(ctx context.Context, payload []byte) error

	// Subscribe 訂閱訊息，handler 會在背景 goroutine 被呼叫
	Subscribe(ctx context.Context, handler func(payload []byte)) error

	// Close 關閉連線並停止訂閱
	Close() error
}

// Locker 定義跨實例的互斥鎖
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_locker.go -package=mock_ports github.com/JoeShih716/go-gems-ledger/internal/core/ports Locker
type Locker interface {
	// Acquire 嘗試取得鎖；取得失敗回傳 ErrLockNotAcquired
	// 回傳的 release 必須在完成後呼叫
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ChangeKind 跨實例變更通知的種類
type ChangeKind uint8

const (
	ChangeAccountUpdated ChangeKind = iota + 1
	ChangeCurrencyCreated
	ChangeCurrencyUpdated
	ChangeCurrencyDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAccountUpdated:
		return "account-updated"
	case ChangeCurrencyCreated:
		return "currency-created"
	case ChangeCurrencyUpdated:
		return "currency-updated"
	case ChangeCurrencyDeleted:
		return "currency-deleted"
	default:
		return "unknown"
	}
}

// Publisher 發送「某物已變更，請重新載入」的通知。
// 發送為 Fire-and-forget：不回傳錯誤，也不保證順序。
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_publisher.go -package=mock_ports github.com/JoeShih716/go-gems-ledger/internal/core/ports Publisher
type Publisher interface {
	Publish(ctx context.Context, kind ChangeKind, id uuid.UUID)
}

// NodeDirectory 列出目前存活的實例
type NodeDirectory interface {
	Nodes(ctx context.Context) ([]domain.Node, error)
}
