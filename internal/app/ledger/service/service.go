package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/account"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/currency"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/leaderboard"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/ledger"
)

// MaxTopPage 排行榜可查詢的最大頁數
const MaxTopPage = 100

// EconomyService 對外的經濟系統入口
// 它組裝了帳戶管理、貨幣註冊表、帳務與排行快取
type EconomyService struct {
	accounts   *account.Manager
	currencies *currency.Registry
	ledger     *ledger.Ledger
	top        *leaderboard.Cache
	logger     *slog.Logger
}

// NewEconomyService 建立 Economy Service
func NewEconomyService(accounts *account.Manager, currencies *currency.Registry, l *ledger.Ledger, top *leaderboard.Cache, logger *slog.Logger) *EconomyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EconomyService{
		accounts:   accounts,
		currencies: currencies,
		ledger:     l,
		top:        top,
		logger:     logger,
	}
}

// Balance 單一貨幣的餘額
type Balance struct {
	CurrencyID uuid.UUID       `json:"currency_id"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Formatted  string          `json:"formatted"`
}

// AccountView 帳戶的唯讀快照
type AccountView struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname,omitempty"`
	Payable  bool      `json:"payable"`
	Balances []Balance `json:"balances"`
}

// ---------------------------------------------------------
// Account Logic
// ---------------------------------------------------------

// PullAccount 取得帳戶，不存在時建立
func (s *EconomyService) PullAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	acc, err := s.accounts.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if acc != nil {
		return acc, nil
	}
	return s.accounts.Create(ctx, id)
}

// Account 取得帳戶的唯讀快照；不存在時回傳 ErrAccountNotFound
func (s *EconomyService) Account(ctx context.Context, id uuid.UUID) (*AccountView, error) {
	acc, err := s.accounts.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if acc == nil {
		return nil, domain.ErrAccountNotFound
	}
	return s.view(acc), nil
}

func (s *EconomyService) view(acc *domain.Account) *AccountView {
	v := &AccountView{
		ID:       acc.ID,
		Nickname: acc.Nickname(),
		Payable:  acc.Payable(),
	}
	for _, c := range s.currencies.All() {
		v.Balances = append(v.Balances, balanceOf(acc, c))
	}
	return v
}

func balanceOf(acc *domain.Account, c *domain.Currency) Balance {
	amount := acc.Balance(c)
	return Balance{
		CurrencyID: c.ID,
		Currency:   c.Plural(),
		Amount:     amount,
		Formatted:  c.Format(amount),
	}
}

// ---------------------------------------------------------
// Currency Logic
// ---------------------------------------------------------

// Currency 依名稱取得貨幣；名稱為空時回傳預設貨幣
func (s *EconomyService) Currency(name string) (*domain.Currency, error) {
	if name == "" {
		return s.currencies.Default()
	}
	c := s.currencies.Lookup(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, name)
	}
	return c, nil
}

// Currencies 所有貨幣
func (s *EconomyService) Currencies() []*domain.Currency {
	return s.currencies.All()
}

// ---------------------------------------------------------
// Ledger Logic
// ---------------------------------------------------------

// GetBalance 查詢餘額；currencyName 為空時使用預設貨幣
func (s *EconomyService) GetBalance(ctx context.Context, id uuid.UUID, currencyName string) (Balance, error) {
	c, err := s.Currency(currencyName)
	if err != nil {
		return Balance{}, err
	}
	acc, err := s.PullAccount(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return balanceOf(acc, c), nil
}

// Deposit 存款；回傳是否執行與執行後的餘額
func (s *EconomyService) Deposit(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (bool, Balance, error) {
	return s.apply(ctx, id, currencyName, func(acc *domain.Account, c *domain.Currency) (bool, error) {
		return s.ledger.Deposit(ctx, acc, c, amount)
	})
}

// Withdraw 提款；回傳是否執行與執行後的餘額
func (s *EconomyService) Withdraw(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (bool, Balance, error) {
	return s.apply(ctx, id, currencyName, func(acc *domain.Account, c *domain.Currency) (bool, error) {
		return s.ledger.Withdraw(ctx, acc, c, amount)
	})
}

// SetBalance 設定餘額
func (s *EconomyService) SetBalance(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (Balance, error) {
	_, b, err := s.apply(ctx, id, currencyName, func(acc *domain.Account, c *domain.Currency) (bool, error) {
		return true, s.ledger.SetBalance(ctx, acc, c, amount)
	})
	return b, err
}

func (s *EconomyService) apply(ctx context.Context, id uuid.UUID, currencyName string, op func(*domain.Account, *domain.Currency) (bool, error)) (bool, Balance, error) {
	c, err := s.Currency(currencyName)
	if err != nil {
		return false, Balance{}, err
	}
	acc, err := s.PullAccount(ctx, id)
	if err != nil {
		return false, Balance{}, err
	}
	ok, err := op(acc, c)
	return ok, balanceOf(acc, c), err
}

// Pay 轉帳；收款方不存在時回傳 ErrAccountNotFound
func (s *EconomyService) Pay(ctx context.Context, from, to uuid.UUID, currencyName string, amount decimal.Decimal) error {
	c, err := s.Currency(currencyName)
	if err != nil {
		return err
	}
	payer, err := s.PullAccount(ctx, from)
	if err != nil {
		return err
	}
	payee, err := s.accounts.Fetch(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to fetch account: %w", err)
	}
	if payee == nil {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, to)
	}
	return s.ledger.Pay(ctx, payer, payee, c, amount)
}

// ---------------------------------------------------------
// Top List Logic
// ---------------------------------------------------------

// BalanceTop 查詢排行 (每頁 leaderboard.PageSize 筆，page 限制在 1..MaxTopPage)
func (s *EconomyService) BalanceTop(ctx context.Context, currencyName string, page int) ([]domain.TopEntry, int, error) {
	c, err := s.Currency(currencyName)
	if err != nil {
		return nil, 0, err
	}
	page = min(max(page, 1), MaxTopPage)
	offset := (page - 1) * leaderboard.PageSize
	entries, err := s.top.Page(ctx, c, offset, leaderboard.PageSize)
	if err != nil {
		return nil, page, err
	}
	return entries, page, nil
}
