package domain

import (
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account 代表一個實體 (玩家或以名稱合成的帳戶) 在各貨幣的餘額。
//
// 鎖的分工:
//   - Lock/Unlock 序列化同一帳戶的帳務操作 (存款、提款、設定餘額)，持有時間涵蓋整筆交易。
//   - 內部讀寫鎖只保護欄位本身，讓查詢餘額不必等待進行中的交易。
type Account struct {
	ID uuid.UUID

	txMu sync.Mutex

	mu          sync.RWMutex
	nickname    string
	payable     bool
	balances    map[uuid.UUID]decimal.Decimal
	accumulated map[uuid.UUID]decimal.Decimal
}

// NewAccount 建立一個新的帳戶實例
//
// 參數:
//
//	id: uuid.UUID - 帳戶 ID
//	nickname: string - 顯示名稱 (可為空)
//
// 回傳值:
//
//	*Account: 可接收款項、尚無任何餘額紀錄的帳戶
func NewAccount(id uuid.UUID, nickname string) *Account {
	return &Account{
		ID:          id,
		nickname:    nickname,
		payable:     true,
		balances:    make(map[uuid.UUID]decimal.Decimal),
		accumulated: make(map[uuid.UUID]decimal.Decimal),
	}
}

// RestoreAccount 由持久層的資料重建帳戶
func RestoreAccount(id uuid.UUID, nickname string, payable bool, balances map[uuid.UUID]decimal.Decimal) *Account {
	acc := NewAccount(id, nickname)
	acc.payable = payable
	maps.Copy(acc.balances, balances)
	return acc
}

// Lock 取得帳戶的交易鎖
func (a *Account) Lock() { a.txMu.Lock() }

// Unlock 釋放帳戶的交易鎖
func (a *Account) Unlock() { a.txMu.Unlock() }

func (a *Account) Nickname() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nickname
}

func (a *Account) SetNickname(nickname string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nickname = nickname
}

// DisplayName 有暱稱時回傳暱稱，否則回傳 ID
func (a *Account) DisplayName() string {
	if n := a.Nickname(); n != "" {
		return n
	}
	return a.ID.String()
}

// Payable 回傳此帳戶是否可接收存款
func (a *Account) Payable() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.payable
}

func (a *Account) SetPayable(payable bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payable = payable
}

// Balance 取得指定貨幣的餘額；未設定時回傳該貨幣的預設餘額
func (a *Account) Balance(c *Currency) decimal.Decimal {
	a.mu.RLock()
	bal, ok := a.balances[c.ID]
	a.mu.RUnlock()
	if !ok {
		return c.DefaultBalance()
	}
	return bal
}

// HasEnough 判斷餘額是否足夠
func (a *Account) HasEnough(c *Currency, amount decimal.Decimal) bool {
	return a.Balance(c).GreaterThanOrEqual(amount)
}

// WouldOverflow 判斷存入 amount 後是否會超過貨幣上限
func (a *Account) WouldOverflow(c *Currency, amount decimal.Decimal) bool {
	return a.Balance(c).Add(amount).GreaterThan(c.MaxBalance())
}

// SetRawBalance 直接寫入餘額，不經過任何檢查或通知。
// 僅供帳務流程與 Store 還原資料使用。
func (a *Account) SetRawBalance(currencyID uuid.UUID, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[currencyID] = amount
}

// HasBalance 判斷帳戶是否有該貨幣的餘額紀錄
func (a *Account) HasBalance(currencyID uuid.UUID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.balances[currencyID]
	return ok
}

// RemoveBalance 移除該貨幣的餘額紀錄，回傳是否有實際移除
func (a *Account) RemoveBalance(currencyID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.balances[currencyID]
	delete(a.balances, currencyID)
	delete(a.accumulated, currencyID)
	return ok
}

// Balances 回傳餘額表的複本
func (a *Account) Balances() map[uuid.UUID]decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.balances)
}

// AddAccumulated 累計存入金額 (統計用途，與餘額正確性無關)
func (a *Account) AddAccumulated(c *Currency, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accumulated[c.ID] = a.accumulated[c.ID].Add(amount)
}

// Accumulated 取得累計存入金額
func (a *Account) Accumulated(c *Currency) decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.accumulated[c.ID]
}
