package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// AccountStore 定義帳戶資料的持久化介面
// 找不到資料時回傳 (nil, nil)；回傳 error 代表「無法判斷」。
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_account_store.go -package=mock_ports github.com/JoeShih716/go-gems-ledger/internal/core/ports AccountStore
type AccountStore interface {
	// LoadAccount 根據 ID 讀取帳戶
	LoadAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// LoadAccountByName 根據暱稱讀取帳戶 (不分大小寫)
	LoadAccountByName(ctx context.Context, name string) (*domain.Account, error)

	// CreateAccount 建立帳戶
	CreateAccount(ctx context.Context, account *domain.Account) error

	// SaveAccount 儲存帳戶 (Upsert)
	SaveAccount(ctx context.Context, account *domain.Account) error

	// DeleteAccount 根據 ID 刪除帳戶
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// DeleteAccountByName 根據暱稱刪除帳戶
	DeleteAccountByName(ctx context.Context, name string) error

	// OfflineAccounts 讀取所有帳戶 (不經過快取)
	OfflineAccounts(ctx context.Context) ([]*domain.Account, error)
}

// CurrencyStore 定義貨幣資料的持久化介面
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_currency_store.go -package=mock_ports github.com/JoeShih716/go-gems-ledger/internal/core/ports CurrencyStore
type CurrencyStore interface {
	// LoadCurrencies 讀取所有貨幣
	LoadCurrencies(ctx context.Context) ([]*domain.Currency, error)

	// LoadCurrency 根據 ID 讀取貨幣
	LoadCurrency(ctx context.Context, id uuid.UUID) (*domain.Currency, error)

	// SaveCurrency 儲存貨幣 (Upsert)
	SaveCurrency(ctx context.Context, currency *domain.Currency) error

	// DeleteCurrency 刪除貨幣
	DeleteCurrency(ctx context.Context, currency *domain.Currency) error
}

// TopListStore 定義排行榜所需的掃描介面
type TopListStore interface {
	// TopSupported 回傳此 Store 是否支援排行查詢
	TopSupported() bool

	// ScanBalances 掃描所有帳戶在指定貨幣的餘額 (未排序、未過濾)
	ScanBalances(ctx context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error)
}

// Store 為完整的持久化後端
type Store interface {
	AccountStore
	CurrencyStore
	TopListStore

	Close() error
}
