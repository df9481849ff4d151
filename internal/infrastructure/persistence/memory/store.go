package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// ensure interface compliance
var _ ports.Store = (*Store)(nil)

// accountRow 與 SQL 後端相同的列格式：餘額以 JSON 保存
type accountRow struct {
	nickname string
	payable  bool
	balances []byte
}

// Store 為程序內的持久層 (單機、測試用)。
// 每次讀寫都會複製資料，呼叫端拿到的物件與 Store 內部互不影響，行為與 SQL 後端一致。
type Store struct {
	mu sync.RWMutex

	accounts   map[uuid.UUID]accountRow
	order      []uuid.UUID // 建立順序，讓掃描結果穩定
	currencies map[uuid.UUID]domain.CurrencySettings

	topSupported bool
}

// Option 記憶體 Store 設定
type Option func(*Store)

// WithoutTopList 模擬不支援排行的後端
func WithoutTopList() Option {
	return func(s *Store) { s.topSupported = false }
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts:     make(map[uuid.UUID]accountRow),
		currencies:   make(map[uuid.UUID]domain.CurrencySettings),
		topSupported: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Account Store implementation
func (s *Store) LoadAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return toAccount(id, row)
}

func (s *Store) LoadAccountByName(_ context.Context, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		row := s.accounts[id]
		if row.nickname != "" && strings.EqualFold(row.nickname, name) {
			return toAccount(id, row)
		}
	}
	return nil, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.SaveAccount(ctx, account)
}

func (s *Store) SaveAccount(_ context.Context, account *domain.Account) error {
	row, err := toRow(account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; !exists {
		s.order = append(s.order, account.ID)
	}
	s.accounts[account.ID] = row
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(id)
	return nil
}

func (s *Store) DeleteAccountByName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range slices.Clone(s.order) {
		if strings.EqualFold(s.accounts[id].nickname, name) {
			s.deleteLocked(id)
		}
	}
	return nil
}

func (s *Store) deleteLocked(id uuid.UUID) {
	if _, ok := s.accounts[id]; !ok {
		return
	}
	delete(s.accounts, id)
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })
}

func (s *Store) OfflineAccounts(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Account, 0, len(s.order))
	for _, id := range s.order {
		acc, err := toAccount(id, s.accounts[id])
		if err != nil {
			// 損毀的帳戶單獨略過
			continue
		}
		out = append(out, acc)
	}
	return out, nil
}

// Currency Store implementation
func (s *Store) LoadCurrencies(_ context.Context) ([]*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Currency, 0, len(s.currencies))
	for id, settings := range s.currencies {
		out = append(out, domain.RestoreCurrency(id, settings))
	}
	return out, nil
}

func (s *Store) LoadCurrency(_ context.Context, id uuid.UUID) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.currencies[id]
	if !ok {
		return nil, nil
	}
	return domain.RestoreCurrency(id, settings), nil
}

func (s *Store) SaveCurrency(_ context.Context, currency *domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currencies[currency.ID] = currency.Settings()
	return nil
}

func (s *Store) DeleteCurrency(_ context.Context, currency *domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.currencies, currency.ID)
	return nil
}

// Top List implementation
func (s *Store) TopSupported() bool {
	return s.topSupported
}

func (s *Store) ScanBalances(_ context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error) {
	if !s.topSupported {
		return nil, ports.ErrTopListUnsupported
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TopEntry, 0, len(s.order))
	for _, id := range s.order {
		row := s.accounts[id]
		balances, err := domain.DecodeBalances(row.balances)
		if err != nil {
			// 單一帳戶資料損毀不影響排行
			continue
		}
		amount, ok := balances[currencyID]
		if !ok {
			continue
		}
		name := row.nickname
		if name == "" {
			name = id.String()
		}
		out = append(out, domain.TopEntry{Name: name, Amount: amount})
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

// PutRaw 直接寫入原始餘額資料 (測試損毀資料用)
func (s *Store) PutRaw(id uuid.UUID, nickname string, balances []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[id]; !exists {
		s.order = append(s.order, id)
	}
	s.accounts[id] = accountRow{nickname: nickname, payable: true, balances: slices.Clone(balances)}
}

func toRow(account *domain.Account) (accountRow, error) {
	data, err := domain.EncodeBalances(account.Balances())
	if err != nil {
		return accountRow{}, err
	}
	return accountRow{
		nickname: account.Nickname(),
		payable:  account.Payable(),
		balances: data,
	}, nil
}

func toAccount(id uuid.UUID, row accountRow) (*domain.Account, error) {
	balances, err := domain.DecodeBalances(row.balances)
	if err != nil {
		return nil, err
	}
	return domain.RestoreAccount(id, row.nickname, row.payable, balances), nil
}
