package account

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// DefaultTTL 快取項目自最後一次存取起的存活時間
const DefaultTTL = 10 * time.Minute

// Loader 從持久層讀取帳戶；找不到時回傳 (nil, nil)
type Loader func(ctx context.Context, id uuid.UUID) (*domain.Account, error)

// entry 為快取中的一筆紀錄。account 為 nil 代表「已確認不存在」，
// 與「尚未載入」(map 中沒有此鍵) 是不同的狀態。
type entry struct {
	account    *domain.Account
	lastAccess time.Time
}

// Cache 是以帳戶 ID 為鍵、具滑動過期時間的延遲載入快取。
//
//   - 同一個鍵同時只會有一個載入在進行 (singleflight)，其他呼叫端等待同一個結果。
//   - 「不存在」也會被快取。
//   - 載入失敗不會被快取，錯誤直接回傳給呼叫端。
//   - Refresh 為最終一致：重新載入期間，其他讀取者仍可能拿到舊值。
type Cache struct {
	load   Loader
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	loads   map[uuid.UUID]uint64 // 進行中載入的 token；被 Invalidate/Put 移除後結果不寫回
	nextTok uint64
}

// Option 快取設定
type Option func(*Cache)

// WithTTL 設定滑動過期時間
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger 設定日誌
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// NewCache 建立帳戶快取
func NewCache(load Loader, opts ...Option) *Cache {
	c := &Cache{
		load:    load,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		entries: make(map[uuid.UUID]*entry),
		loads:   make(map[uuid.UUID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get 取得帳戶。快取未命中或已過期時從持久層載入一次並快取結果。
//
// 回傳值:
//
//	*domain.Account: 帳戶；確認不存在時為 nil
//	error: 持久層讀取失敗 (無法判斷是否存在)
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if acc, ok := c.lookup(id); ok {
		return acc, nil
	}

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		if acc, ok := c.lookup(id); ok {
			return acc, nil
		}
		return c.fetch(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	acc, _ := v.(*domain.Account)
	return acc, nil
}

// Put 無條件覆寫快取中的帳戶
func (c *Cache) Put(acc *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loads, acc.ID)
	c.entries[acc.ID] = &entry{account: acc, lastAccess: c.now()}
}

// Invalidate 移除單一快取項目 (不影響持久層)
func (c *Cache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	delete(c.loads, id)
	c.group.Forget(id.String())
}

// InvalidateAll 清空整個快取 (不影響持久層)
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.loads {
		c.group.Forget(id.String())
	}
	clear(c.entries)
	clear(c.loads)
}

// Refresh 強制重新載入已快取的項目；未快取時不做任何事。
// 重新載入期間，同一個鍵的讀取者仍會拿到舊值，直到載入完成。
func (c *Cache) Refresh(ctx context.Context, id uuid.UUID) error {
	if !c.Contains(id) {
		return nil
	}
	// 與 Get 共用同一個 singleflight 鍵：重新載入期間未命中的讀取者等待同一次載入
	_, err, _ := c.group.Do(id.String(), func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), id)
	})
	return err
}

// Contains 判斷此鍵目前是否在快取中 (包含「不存在」的紀錄)
func (c *Cache) Contains(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return ok && !c.expired(e)
}

// Accounts 回傳目前快取中所有存在的帳戶
func (c *Cache) Accounts() []*domain.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.Account, 0, len(c.entries))
	for _, e := range c.entries {
		if e.account != nil && !c.expired(e) {
			out = append(out, e.account)
		}
	}
	return out
}

// FindByName 在快取中以暱稱搜尋帳戶 (不分大小寫)，不會觸發載入
func (c *Cache) FindByName(name string) *domain.Account {
	for _, acc := range c.Accounts() {
		if strings.EqualFold(acc.Nickname(), name) {
			c.touch(acc.ID)
			return acc
		}
	}
	return nil
}

// Len 快取項目數量 (含尚未清除的過期項目)
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Start 啟動背景清理，每隔 interval 移除過期項目，直到 ctx 結束
func (c *Cache) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.logger.Debug("Account cache swept", "evicted", n)
				}
			}
		}
	}()
}

// Sweep 移除所有過期項目，回傳移除數量
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

func (c *Cache) lookup(id uuid.UUID) (*domain.Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, id)
		return nil, false
	}
	e.lastAccess = c.now()
	return e.account, true
}

func (c *Cache) touch(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.lastAccess = c.now()
	}
}

// fetch 從持久層載入並寫回快取。
// 若載入期間此鍵被 Invalidate 或 Put，結果只回傳給呼叫端，不寫回快取。
func (c *Cache) fetch(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	c.mu.Lock()
	c.nextTok++
	tok := c.nextTok
	c.loads[id] = tok
	c.mu.Unlock()

	acc, err := c.load(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	current, stillValid := c.loads[id]
	if stillValid && current == tok {
		delete(c.loads, id)
	} else {
		stillValid = false
	}

	if err != nil {
		c.logger.Warn("Failed to load account", "account_id", id, "error", err)
		return nil, err
	}
	if stillValid {
		c.entries[id] = &entry{account: acc, lastAccess: c.now()}
	}
	return acc, nil
}

func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.lastAccess) > c.ttl
}
