package leaderboard_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/event"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/leaderboard"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
)

// countingStore 記錄掃描次數
type countingStore struct {
	*memory.Store
	scans atomic.Int32
}

func (s *countingStore) ScanBalances(ctx context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error) {
	s.scans.Add(1)
	return s.Store.ScanBalances(ctx, currencyID)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seed(t *testing.T, store *memory.Store, c *domain.Currency, balances map[string]int64) {
	t.Helper()
	for name, amount := range balances {
		acc := domain.NewAccount(uuid.New(), name)
		acc.SetRawBalance(c.ID, decimal.NewFromInt(amount))
		require.NoError(t, store.SaveAccount(context.Background(), acc))
	}
}

func TestCache_PageUsesSnapshotUntilExpired(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	seed(t, store.Store, gems, map[string]int64{"Steve": 300, "Alex": 100, "Broke": 0})

	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := leaderboard.NewCache(store, nil, leaderboard.WithTTL(5*time.Minute), leaderboard.WithClock(clk.Now))
	ctx := context.Background()

	// 1. 第一次查詢會掃描
	page, err := cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Steve", "Alex"}, names(page))
	assert.Equal(t, int32(1), store.scans.Load())

	// 2. 快照有效期間不反映新資料
	seed(t, store.Store, gems, map[string]int64{"Notch": 1000})
	page, err = cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, int32(1), store.scans.Load())

	// 3. 過期後重新掃描
	clk.Advance(5 * time.Minute)
	page, err = cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notch", "Steve", "Alex"}, names(page))
	assert.Equal(t, int32(2), store.scans.Load())
}

func TestCache_InvalidateForcesRescan(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	seed(t, store.Store, gems, map[string]int64{"Steve": 1})
	cache := leaderboard.NewCache(store, nil)
	ctx := context.Background()

	_, err := cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)

	cache.Invalidate(gems.ID)
	_, err = cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.scans.Load())

	require.NoError(t, cache.Refresh(ctx, gems))
	assert.Equal(t, int32(3), store.scans.Load())

	cache.InvalidateAll()
	_, err = cache.Page(ctx, gems, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(4), store.scans.Load())
}

func TestCache_OutOfRangeIsEmpty(t *testing.T) {
	store := memory.New()
	gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	seed(t, store, gems, map[string]int64{"Steve": 1})
	cache := leaderboard.NewCache(store, nil)

	page, err := cache.Page(context.Background(), gems, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestCache_Unsupported(t *testing.T) {
	cache := leaderboard.NewCache(memory.New(memory.WithoutTopList()), nil)

	assert.False(t, cache.Supported())
	_, err := cache.Page(context.Background(), domain.NewCurrency(uuid.New(), "Gem", "Gems"), 0, 10)
	assert.ErrorIs(t, err, ports.ErrTopListUnsupported)
}

func TestCache_GetPageCallbackOnLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := event.NewLoop(8, nil)
	loop.Start(ctx)
	defer loop.Stop()

	store := memory.New()
	gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	seed(t, store, gems, map[string]int64{"Steve": 10, "Alex": 20})
	cache := leaderboard.NewCache(store, loop)

	type result struct {
		entries []domain.TopEntry
		err     error
	}
	got := make(chan result, 1)
	cache.GetPage(ctx, gems, 0, 10, func(_ context.Context, entries []domain.TopEntry, err error) {
		got <- result{entries: entries, err: err}
	})

	select {
	case res := <-got:
		require.NoError(t, res.err)
		assert.Equal(t, []string{"Alex", "Steve"}, names(res.entries))
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not delivered")
	}
}

// gatedStore 的掃描會停在 gate 直到放行
type gatedStore struct {
	*memory.Store
	started chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) ScanBalances(ctx context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error) {
	entries, err := s.Store.ScanBalances(ctx, currencyID)
	s.started <- struct{}{}
	<-s.gate
	return entries, err
}

func TestCache_InvalidateDuringScanDropsResult(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *leaderboard.Cache, id uuid.UUID)
	}{
		{"invalidate", func(c *leaderboard.Cache, id uuid.UUID) { c.Invalidate(id) }},
		{"invalidate all", func(c *leaderboard.Cache, _ uuid.UUID) { c.InvalidateAll() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &gatedStore{Store: memory.New(), started: make(chan struct{}, 1), gate: make(chan struct{})}
			gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
			seed(t, store.Store, gems, map[string]int64{"Steve": 300})
			cache := leaderboard.NewCache(store, nil)
			ctx := context.Background()

			done := make(chan []domain.TopEntry, 1)
			go func() {
				page, err := cache.Page(ctx, gems, 0, 10)
				assert.NoError(t, err)
				done <- page
			}()

			<-store.started
			tt.invalidate(cache, gems.ID)
			close(store.gate)

			// 掃描發起者仍拿到結果
			assert.Equal(t, []string{"Steve"}, names(<-done))

			// 但結果沒有寫回：下一次查詢必須重新掃描
			next := make(chan struct{})
			go func() {
				defer close(next)
				_, err := cache.Page(ctx, gems, 0, 10)
				assert.NoError(t, err)
			}()
			select {
			case <-store.started:
			case <-time.After(time.Second):
				t.Fatal("invalidated snapshot was served without rescanning")
			}
			<-next
		})
	}
}
