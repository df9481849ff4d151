package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/event"
)

// DefaultTTL 排行快照的預設存活時間
const DefaultTTL = 5 * time.Minute

// Callback 非同步取得排行後的回呼，在主執行環境上執行
type Callback func(ctx context.Context, entries []domain.TopEntry, err error)

// Cache 依貨幣快取排行快照。
// 排行由持久層重新掃描計算，不讀取帳戶快取；同一貨幣同時只會有一次掃描。
type Cache struct {
	store  ports.TopListStore
	loop   *event.Loop
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*Snapshot
	gens      map[uuid.UUID]uint64 // 每次 Invalidate 遞增；掃描開始後世代改變則結果不寫回
}

// Option 排行快取設定
type Option func(*Cache)

// WithTTL 設定快照存活時間
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

// NewCache 建立排行快取
//
// 參數:
//
//	store: ports.TopListStore - 可掃描餘額的持久層
//	loop: *event.Loop - 回呼執行的主執行環境 (nil 時在背景 goroutine 回呼)
//	opts: ...Option - 其他設定
func NewCache(store ports.TopListStore, loop *event.Loop, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		loop:      loop,
		ttl:       DefaultTTL,
		now:       time.Now,
		logger:    slog.Default(),
		snapshots: make(map[uuid.UUID]*Snapshot),
		gens:      make(map[uuid.UUID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Supported 持久層是否支援排行
func (c *Cache) Supported() bool {
	return c.store.TopSupported()
}

// GetPage 非同步取得 [offset, offset+limit) 的排行，結果在主執行環境上交給 fn。
// 呼叫端不會被掃描阻塞。
func (c *Cache) GetPage(ctx context.Context, currency *domain.Currency, offset, limit int, fn Callback) {
	go func() {
		entries, err := c.Page(ctx, currency, offset, limit)
		c.loop.Post(func(loopCtx context.Context) {
			fn(loopCtx, entries, err)
		})
	}()
}

// Page 同步取得 [offset, offset+limit) 的排行。
// 快照有效時直接切片；否則重新掃描並替換快照。
func (c *Cache) Page(ctx context.Context, currency *domain.Currency, offset, limit int) ([]domain.TopEntry, error) {
	snap, err := c.snapshot(ctx, currency)
	if err != nil {
		return nil, err
	}
	return snap.Slice(offset, limit), nil
}

// Snapshot 取得目前有效的快照 (必要時重新計算)
func (c *Cache) Snapshot(ctx context.Context, currency *domain.Currency) (*Snapshot, error) {
	return c.snapshot(ctx, currency)
}

// Refresh 立即重新計算指定貨幣的快照
func (c *Cache) Refresh(ctx context.Context, currency *domain.Currency) error {
	c.Invalidate(currency.ID)
	_, err := c.snapshot(ctx, currency)
	return err
}

// Invalidate 丟棄指定貨幣的快照
func (c *Cache) Invalidate(currencyID uuid.UUID) {
	c.mu.Lock()
	delete(c.snapshots, currencyID)
	c.gens[currencyID]++
	c.mu.Unlock()
	c.group.Forget(currencyID.String())
}

// InvalidateAll 丟棄所有快照
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.gens))
	for id := range c.gens {
		c.gens[id]++
		ids = append(ids, id)
	}
	c.snapshots = make(map[uuid.UUID]*Snapshot)
	c.mu.Unlock()
	for _, id := range ids {
		c.group.Forget(id.String())
	}
}

func (c *Cache) live(currencyID uuid.UUID) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.snapshots[currencyID]
	if snap == nil || snap.Expired(c.now()) {
		return nil
	}
	return snap
}

func (c *Cache) snapshot(ctx context.Context, currency *domain.Currency) (*Snapshot, error) {
	if !c.store.TopSupported() {
		return nil, ports.ErrTopListUnsupported
	}
	if snap := c.live(currency.ID); snap != nil {
		return snap, nil
	}

	ch := c.group.DoChan(currency.ID.String(), func() (any, error) {
		return c.build(context.WithoutCancel(ctx), currency)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) build(ctx context.Context, currency *domain.Currency) (*Snapshot, error) {
	c.mu.Lock()
	gen := c.gens[currency.ID]
	c.gens[currency.ID] = gen
	c.mu.Unlock()

	started := c.now()
	scanned, err := c.store.ScanBalances(ctx, currency.ID)
	if err != nil {
		c.logger.Warn("Failed to scan balances for top list", "currency", currency.Singular(), "error", err)
		return nil, fmt.Errorf("failed to scan balances: %w", err)
	}

	snap := NewSnapshot(scanned, c.now(), c.ttl)

	c.mu.Lock()
	stale := c.gens[currency.ID] != gen
	if !stale {
		c.snapshots[currency.ID] = snap
	}
	c.mu.Unlock()
	if stale {
		// 掃描期間被 Invalidate：結果只交給這次的呼叫端
		c.logger.Debug("Top list invalidated during rebuild", "currency", currency.Singular())
		return snap, nil
	}

	c.logger.Debug("Top list rebuilt",
		"currency", currency.Singular(), "entries", snap.Len(), "took", c.now().Sub(started))
	return snap, nil
}
