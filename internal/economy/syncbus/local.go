package syncbus

import (
	"context"
	"slices"
	"sync"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// Hub 同一個程序內的訊息中心，模擬多個實例共用一個 Pub/Sub 頻道。
// 單機部署 (sync.transport=local) 與測試使用。
type Hub struct {
	mu   sync.RWMutex
	subs map[*LocalTransport][]func([]byte)
}

// NewHub 建立訊息中心
func NewHub() *Hub {
	return &Hub{subs: make(map[*LocalTransport][]func([]byte))}
}

// Transport 建立一個連到此 Hub 的傳輸層
func (h *Hub) Transport() *LocalTransport {
	return &LocalTransport{hub: h}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	var handlers []func([]byte)
	for _, hs := range h.subs {
		handlers = append(handlers, hs...)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		data := slices.Clone(payload)
		go fn(data)
	}
}

// LocalTransport 為 Hub 上的 ports.Transport
type LocalTransport struct {
	hub *Hub
}

var _ ports.Transport = (*LocalTransport)(nil)

// Publish 廣播給 Hub 上所有訂閱者 (包含自己，由 Bus 過濾)
func (t *LocalTransport) Publish(_ context.Context, payload []byte) error {
	t.hub.broadcast(payload)
	return nil
}

// Subscribe 註冊訂閱；ctx 結束時自動取消
func (t *LocalTransport) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	t.hub.mu.Lock()
	t.hub.subs[t] = append(t.hub.subs[t], handler)
	t.hub.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			t.Close()
		}()
	}
	return nil
}

// Close 取消此傳輸層的所有訂閱
func (t *LocalTransport) Close() error {
	t.hub.mu.Lock()
	delete(t.hub.subs, t)
	t.hub.mu.Unlock()
	return nil
}
