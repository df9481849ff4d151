package domain

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxBalance 為未設定上限時的預設最大餘額
var DefaultMaxBalance = decimal.New(1, 15)

// CurrencySettings 貨幣的可變設定。
// Currency 在整個程序內只會有一個實例，更新時以 In-Place 的方式覆寫設定，
// 讓已持有該指標的呼叫端不需要重新取得。
type CurrencySettings struct {
	Singular         string          // 單數名稱
	Plural           string          // 複數名稱
	Symbol           string          // 顯示符號 (可為空)
	DefaultBalance   decimal.Decimal // 帳戶未設定時的預設餘額
	MaxBalance       decimal.Decimal // 最大餘額，超出部分會被截斷
	DecimalSupported bool            // 是否允許小數
	Payable          bool            // 是否允許玩家之間轉帳
	Default          bool            // 是否為預設貨幣
	Color            string          // 顯示顏色 (Hex, e.g. "#FFFFFF")
	ExchangeRate     decimal.Decimal // 匯率
}

// Currency 代表一種貨幣。
// ID 建立後不可變；其餘設定透過 Settings / Update 以讀寫鎖保護。
type Currency struct {
	ID uuid.UUID

	mu       sync.RWMutex
	settings CurrencySettings
}

// NewCurrency 建立一個新的貨幣實例
//
// 參數:
//
//	id: uuid.UUID - 貨幣唯一 ID
//	singular: string - 單數名稱
//	plural: string - 複數名稱
//
// 回傳值:
//
//	*Currency: 使用預設設定初始化的貨幣
func NewCurrency(id uuid.UUID, singular, plural string) *Currency {
	return &Currency{
		ID: id,
		settings: CurrencySettings{
			Singular:         singular,
			Plural:           plural,
			DefaultBalance:   decimal.Zero,
			MaxBalance:       DefaultMaxBalance,
			DecimalSupported: true,
			Payable:          true,
			Color:            "#FFFFFF",
			ExchangeRate:     decimal.NewFromInt(1),
		},
	}
}

// RestoreCurrency 由持久層的資料重建貨幣
func RestoreCurrency(id uuid.UUID, settings CurrencySettings) *Currency {
	return &Currency{ID: id, settings: settings}
}

// Settings 回傳目前設定的快照
func (c *Currency) Settings() CurrencySettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Update 在寫鎖內修改設定
func (c *Currency) Update(fn func(s *CurrencySettings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.settings)
}

// Apply 以另一個貨幣的設定覆寫自己 (ID 不變)。
// 用於跨實例同步：收到 currency-updated 後從 Store 重新讀取並套用。
func (c *Currency) Apply(other *Currency) {
	if other == nil || other == c {
		return
	}
	s := other.Settings()
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

func (c *Currency) Singular() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Singular
}

func (c *Currency) Plural() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Plural
}

// DisplayName 回傳用於顯示的名稱 (複數)
func (c *Currency) DisplayName() string {
	return c.Plural()
}

func (c *Currency) DefaultBalance() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.DefaultBalance
}

func (c *Currency) MaxBalance() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.MaxBalance
}

func (c *Currency) IsDefault() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Default
}

func (c *Currency) Payable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Payable
}

// Cap 將金額截斷至最大餘額
func (c *Currency) Cap(amount decimal.Decimal) decimal.Decimal {
	return decimal.Min(amount, c.MaxBalance())
}

// Matches 判斷名稱是否為此貨幣的單數或複數 (不分大小寫)
func (c *Currency) Matches(name string) bool {
	s := c.Settings()
	return strings.EqualFold(s.Singular, name) || strings.EqualFold(s.Plural, name)
}

// Format 依貨幣設定格式化金額，例如 "$1,000.50 Gems"
func (c *Currency) Format(amount decimal.Decimal) string {
	s := c.Settings()

	var num string
	if s.DecimalSupported {
		num = amount.StringFixed(2)
	} else {
		num = amount.Truncate(0).String()
	}

	name := s.Plural
	if amount.Equal(decimal.NewFromInt(1)) {
		name = s.Singular
	}

	var b strings.Builder
	b.WriteString(s.Symbol)
	b.WriteString(groupThousands(num))
	b.WriteByte(' ')
	b.WriteString(name)
	return b.String()
}

func groupThousands(num string) string {
	sign := ""
	if strings.HasPrefix(num, "-") {
		sign, num = "-", num[1:]
	}
	intPart, frac, hasFrac := strings.Cut(num, ".")
	if len(intPart) <= 3 {
		return sign + num
	}

	var b strings.Builder
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
