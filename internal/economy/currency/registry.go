package currency

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// LockKeyPattern 維護作業 (移除貨幣、清空餘額) 的分散式鎖
const LockKeyPattern = "ledger:lock:currency:%s"

// Flusher 清空帳戶快取
type Flusher interface {
	FlushAll()
}

// Registry 管理所有有效的貨幣。
// 非空時恰好有一個預設貨幣；移除預設貨幣後直到重新指定之前都沒有預設貨幣。
type Registry struct {
	store     ports.CurrencyStore
	accounts  ports.AccountStore
	flusher   Flusher
	publisher ports.Publisher
	locker    ports.Locker
	logger    *slog.Logger

	mu         sync.RWMutex
	currencies map[uuid.UUID]*domain.Currency
}

// NewRegistry 建立貨幣註冊表
//
// 參數:
//
//	store: ports.CurrencyStore - 貨幣持久層
//	accounts: ports.AccountStore - 帳戶持久層 (移除貨幣與清空餘額時使用)
//	publisher: ports.Publisher - 跨實例通知
//	logger: *slog.Logger - 日誌
func NewRegistry(store ports.CurrencyStore, accounts ports.AccountStore, publisher ports.Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:      store,
		accounts:   accounts,
		publisher:  publisher,
		logger:     logger,
		currencies: make(map[uuid.UUID]*domain.Currency),
	}
}

// SetFlusher 設定帳戶快取 (帳戶管理器建立時需要 Registry，因此事後注入)
func (r *Registry) SetFlusher(f Flusher) {
	r.flusher = f
}

// SetLocker 設定分散式鎖；未設定時維護作業不加鎖
func (r *Registry) SetLocker(l ports.Locker) {
	r.locker = l
}

// Load 從持久層載入所有貨幣 (啟動時呼叫)
func (r *Registry) Load(ctx context.Context) error {
	list, err := r.store.LoadCurrencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load currencies: %w", err)
	}
	for _, c := range list {
		r.Add(c)
		s := c.Settings()
		r.logger.Info("Loaded currency",
			"currency", s.Singular, "default_balance", s.DefaultBalance.String(),
			"max_balance", s.MaxBalance.String(), "default", s.Default, "payable", s.Payable)
	}
	return nil
}

// Get 根據 ID 取得貨幣
func (r *Registry) Get(id uuid.UUID) *domain.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currencies[id]
}

// Lookup 根據名稱取得貨幣 (單數或複數，不分大小寫)
func (r *Registry) Lookup(name string) *domain.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) *domain.Currency {
	for _, c := range r.currencies {
		if c.Matches(name) {
			return c
		}
	}
	return nil
}

// Has 判斷名稱是否已被使用
func (r *Registry) Has(name string) bool {
	return r.Lookup(name) != nil
}

// Default 取得預設貨幣；沒有預設貨幣時回傳 ErrNoDefaultCurrency
func (r *Registry) Default() (*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.currencies {
		if c.IsDefault() {
			return c, nil
		}
	}
	return nil, domain.ErrNoDefaultCurrency
}

// All 回傳所有貨幣 (依單數名稱排序)
func (r *Registry) All() []*domain.Currency {
	r.mu.RLock()
	out := make([]*domain.Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		out = append(out, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Currency) int {
		return cmp.Compare(a.Singular(), b.Singular())
	})
	return out
}

// Len 貨幣數量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.currencies)
}

// Add 加入貨幣；已存在相同 ID 時不做任何事
func (r *Registry) Add(c *domain.Currency) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.currencies[c.ID]; !ok {
		r.currencies[c.ID] = c
	}
}

// Create 建立新貨幣並寫入持久層。
// 名稱已存在 (不分大小寫) 時回傳 ErrCurrencyExists。
// 註冊表原本為空時，新貨幣會成為預設貨幣。
func (r *Registry) Create(ctx context.Context, name string) (*domain.Currency, error) {
	r.mu.Lock()
	if r.lookupLocked(name) != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyExists, name)
	}
	c := domain.NewCurrency(uuid.New(), name, name)
	c.Update(func(s *domain.CurrencySettings) {
		s.ExchangeRate = decimal.NewFromInt(1)
		s.Default = len(r.currencies) == 0
	})
	r.currencies[c.ID] = c
	r.mu.Unlock()

	if err := r.store.SaveCurrency(ctx, c); err != nil {
		r.mu.Lock()
		delete(r.currencies, c.ID)
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to save currency %s: %w", name, err)
	}
	r.publisher.Publish(ctx, ports.ChangeCurrencyCreated, c.ID)

	r.logger.Info("Currency created", "currency", name, "currency_id", c.ID, "default", c.IsDefault())
	return c, nil
}

// Save 寫入持久層並通知其他實例重新載入
func (r *Registry) Save(ctx context.Context, c *domain.Currency) error {
	if err := r.store.SaveCurrency(ctx, c); err != nil {
		return fmt.Errorf("failed to save currency %s: %w", c.Singular(), err)
	}
	r.publisher.Publish(ctx, ports.ChangeCurrencyUpdated, c.ID)
	return nil
}

// SetDefault 指定預設貨幣，並清除其他貨幣的預設標記
func (r *Registry) SetDefault(ctx context.Context, target *domain.Currency) error {
	var changed []*domain.Currency
	r.mu.Lock()
	if _, ok := r.currencies[target.ID]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, target.ID)
	}
	for _, c := range r.currencies {
		want := c.ID == target.ID
		if c.IsDefault() != want {
			c.Update(func(s *domain.CurrencySettings) { s.Default = want })
			changed = append(changed, c)
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, c := range changed {
		if err := r.Save(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sync 從持久層重新讀取貨幣，並以 In-Place 的方式更新既有實例。
// 本機沒有此貨幣時，只有 create 為 true 才會加入。持久層已無資料時不做任何事。
func (r *Registry) Sync(ctx context.Context, id uuid.UUID, create bool) error {
	fresh, err := r.store.LoadCurrency(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load currency %s: %w", id, err)
	}
	if fresh == nil {
		return nil
	}
	if current := r.Get(id); current != nil {
		current.Apply(fresh)
		return nil
	}
	if create {
		r.Add(fresh)
	}
	return nil
}

// Forget 只從本機移除貨幣 (其他實例已刪除時使用)，回傳被移除的貨幣
func (r *Registry) Forget(id uuid.UUID) *domain.Currency {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.currencies[id]
	delete(r.currencies, id)
	return c
}

// Remove 從所有帳戶、註冊表與持久層移除貨幣，最後清空帳戶快取。
// 記憶體中的帳戶可能仍持有此貨幣的餘額，因此必須全部重新載入。
func (r *Registry) Remove(ctx context.Context, c *domain.Currency) error {
	release, err := r.lock(ctx, c)
	if err != nil {
		return err
	}
	defer release()

	accounts, err := r.accounts.OfflineAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	var errs []error
	for _, acc := range accounts {
		if !acc.RemoveBalance(c.ID) {
			continue
		}
		if err := r.accounts.SaveAccount(ctx, acc); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", acc.ID, err))
			continue
		}
		r.publisher.Publish(ctx, ports.ChangeAccountUpdated, acc.ID)
	}

	r.Forget(c.ID)

	if err := r.store.DeleteCurrency(ctx, c); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete currency %s: %w", c.ID, err))
	} else {
		r.publisher.Publish(ctx, ports.ChangeCurrencyDeleted, c.ID)
	}

	if r.flusher != nil {
		r.flusher.FlushAll()
	}

	r.logger.Info("Currency removed", "currency", c.Singular(), "currency_id", c.ID, "accounts", len(accounts))
	return errors.Join(errs...)
}

// RemoveByID 同 Remove，貨幣不存在時不做任何事
func (r *Registry) RemoveByID(ctx context.Context, id uuid.UUID) error {
	c := r.Get(id)
	if c == nil {
		return nil
	}
	return r.Remove(ctx, c)
}

// ClearBalances 將所有帳戶在此貨幣的餘額重設為預設餘額，最後清空帳戶快取
func (r *Registry) ClearBalances(ctx context.Context, c *domain.Currency) error {
	release, err := r.lock(ctx, c)
	if err != nil {
		return err
	}
	defer release()

	accounts, err := r.accounts.OfflineAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	def := c.DefaultBalance()
	var errs []error
	for _, acc := range accounts {
		acc.SetRawBalance(c.ID, def)
		if err := r.accounts.SaveAccount(ctx, acc); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", acc.ID, err))
			continue
		}
		r.publisher.Publish(ctx, ports.ChangeAccountUpdated, acc.ID)
	}

	if r.flusher != nil {
		r.flusher.FlushAll()
	}
	return errors.Join(errs...)
}

func (r *Registry) lock(ctx context.Context, c *domain.Currency) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	release, err := r.locker.Acquire(ctx, fmt.Sprintf(LockKeyPattern, c.ID))
	if err != nil {
		return nil, fmt.Errorf("currency %s maintenance: %w", c.Singular(), err)
	}
	return release, nil
}
