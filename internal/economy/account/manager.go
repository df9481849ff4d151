package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// CurrencySource 提供目前已註冊的所有貨幣 (建立帳戶時用於設定預設餘額)
type CurrencySource interface {
	All() []*domain.Currency
}

// Manager 負責帳戶的建立、查詢、刪除與快取管理
type Manager struct {
	cache      *Cache
	store      ports.AccountStore
	publisher  ports.Publisher
	currencies CurrencySource
	logger     *slog.Logger
}

// NewManager 建立帳戶管理器
//
// 參數:
//
//	store: ports.AccountStore - 帳戶持久層
//	publisher: ports.Publisher - 跨實例通知
//	currencies: CurrencySource - 貨幣來源
//	logger: *slog.Logger - 日誌
//	opts: ...Option - 快取設定
func NewManager(store ports.AccountStore, publisher ports.Publisher, currencies CurrencySource, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return &Manager{
		cache:      NewCache(store.LoadAccount, opts...),
		store:      store,
		publisher:  publisher,
		currencies: currencies,
		logger:     logger,
	}
}

// Cache 回傳底層的帳戶快取
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Create 建立、儲存並快取一個帳戶。
// 若帳戶已存在 (快取或資料庫)，直接回傳既有帳戶。
func (m *Manager) Create(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return m.create(ctx, id, "")
}

// CreateByName 以名稱建立帳戶。
// 帳戶 ID 由名稱以離線模式規則推導 (domain.OfflineID)，同名永遠對應同一個 ID；
// 名稱同時作為帳戶的識別，因此必須保存。
func (m *Manager) CreateByName(ctx context.Context, name string) (*domain.Account, error) {
	existing, err := m.FetchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return m.create(ctx, domain.OfflineID(name), name)
}

func (m *Manager) create(ctx context.Context, id uuid.UUID, nickname string) (*domain.Account, error) {
	existing, err := m.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	acc := domain.NewAccount(id, nickname)
	for _, c := range m.currencies.All() {
		acc.SetRawBalance(c.ID, c.DefaultBalance())
	}

	if err := m.store.CreateAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", id, err)
	}
	m.cache.Put(acc)
	m.publisher.Publish(ctx, ports.ChangeAccountUpdated, acc.ID)

	m.logger.Info("Account created", "account_id", acc.ID, "nickname", nickname)
	return acc, nil
}

// Fetch 根據 ID 取得帳戶：先查快取，再查資料庫；不存在時回傳 (nil, nil)
func (m *Manager) Fetch(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return m.cache.Get(ctx, id)
}

// FetchByName 根據暱稱取得帳戶：先搜尋快取，再查資料庫，找到時寫入快取
func (m *Manager) FetchByName(ctx context.Context, name string) (*domain.Account, error) {
	if acc := m.cache.FindByName(name); acc != nil {
		return acc, nil
	}
	acc, err := m.store.LoadAccountByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %q: %w", name, err)
	}
	if acc == nil {
		return nil, nil
	}
	m.cache.Put(acc)
	return acc, nil
}

// Has 判斷帳戶是否存在
func (m *Manager) Has(ctx context.Context, id uuid.UUID) (bool, error) {
	acc, err := m.Fetch(ctx, id)
	return acc != nil, err
}

// HasName 判斷指定暱稱的帳戶是否存在
func (m *Manager) HasName(ctx context.Context, name string) (bool, error) {
	acc, err := m.FetchByName(ctx, name)
	return acc != nil, err
}

// Delete 從快取與資料庫刪除帳戶
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.cache.Invalidate(id)
	if err := m.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	m.publisher.Publish(ctx, ports.ChangeAccountUpdated, id)
	return nil
}

// DeleteByName 以暱稱刪除帳戶
func (m *Manager) DeleteByName(ctx context.Context, name string) error {
	acc, err := m.FetchByName(ctx, name)
	if err != nil {
		return err
	}
	if acc == nil {
		return m.store.DeleteAccountByName(ctx, name)
	}
	return m.Delete(ctx, acc.ID)
}

// CacheAccount 將帳戶寫入快取，覆寫原有項目 (不論原本是否為「不存在」)
func (m *Manager) CacheAccount(acc *domain.Account) {
	m.cache.Put(acc)
}

// Cached 判斷帳戶是否在快取中
func (m *Manager) Cached(id uuid.UUID) bool {
	return m.cache.Contains(id)
}

// Refresh 從資料庫重新載入已快取的帳戶
func (m *Manager) Refresh(ctx context.Context, id uuid.UUID) error {
	return m.cache.Refresh(ctx, id)
}

// Flush 從記憶體移除單一帳戶
func (m *Manager) Flush(id uuid.UUID) {
	m.cache.Invalidate(id)
}

// FlushAll 從記憶體移除所有帳戶
func (m *Manager) FlushAll() {
	m.cache.InvalidateAll()
}

// CachedAccounts 回傳目前在記憶體中的帳戶
func (m *Manager) CachedAccounts() []*domain.Account {
	return m.cache.Accounts()
}

// OfflineAccounts 直接從資料庫讀取所有帳戶 (不經過快取)
func (m *Manager) OfflineAccounts(ctx context.Context) ([]*domain.Account, error) {
	return m.store.OfflineAccounts(ctx)
}
