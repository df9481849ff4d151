package event

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// PreHook 交易前通知；回傳 false 代表取消此筆交易，後續的 PreHook 不會被呼叫
type PreHook func(ctx context.Context, tx domain.Transaction) bool

// PostHook 交易後通知 (不可取消)
type PostHook func(ctx context.Context, tx domain.Transaction)

// Hooks 依註冊順序管理交易前後通知，並透過 Loop 在主執行環境上觸發
type Hooks struct {
	loop *Loop

	mu   sync.RWMutex
	pre  []PreHook
	post []PostHook
}

// NewHooks 建立通知管理器；loop 為 nil 時直接在呼叫端 goroutine 執行
func NewHooks(loop *Loop) *Hooks {
	return &Hooks{loop: loop}
}

// OnPre 註冊交易前通知
func (h *Hooks) OnPre(fn PreHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pre = append(h.pre, fn)
}

// OnPost 註冊交易後通知
func (h *Hooks) OnPost(fn PostHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.post = append(h.post, fn)
}

// FirePre 在主執行環境上依序呼叫所有 PreHook 並等待結果
//
// 回傳值:
//
//	bool: true 表示允許交易繼續
//	error: 無法排入主執行環境
func (h *Hooks) FirePre(ctx context.Context, tx domain.Transaction) (bool, error) {
	h.mu.RLock()
	hooks := append([]PreHook(nil), h.pre...)
	h.mu.RUnlock()
	if len(hooks) == 0 {
		return true, nil
	}

	return h.loop.Call(ctx, func(ctx context.Context) bool {
		for _, fn := range hooks {
			if !fn(ctx, tx) {
				return false
			}
		}
		return true
	})
}

// FirePost 將所有 PostHook 排入主執行環境，立即返回
func (h *Hooks) FirePost(tx domain.Transaction) {
	h.mu.RLock()
	hooks := append([]PostHook(nil), h.post...)
	h.mu.RUnlock()
	if len(hooks) == 0 {
		return
	}

	h.loop.Post(func(ctx context.Context) {
		for _, fn := range hooks {
			fn(ctx, tx)
		}
	})
}
