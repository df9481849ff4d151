package mysql

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// accountRecord 對應 <prefix>_accounts
type accountRecord struct {
	UUID        string `gorm:"column:uuid;type:varchar(255);primaryKey"`
	Nickname    string `gorm:"column:nickname;type:varchar(255);index"`
	Payable     bool   `gorm:"column:payable"`
	BalanceData string `gorm:"column:balance_data;type:longtext"`
}

// currencyRecord 對應 <prefix>_currencies
type currencyRecord struct {
	UUID              string          `gorm:"column:uuid;type:varchar(255);primaryKey"`
	NameSingular      string          `gorm:"column:name_singular;type:varchar(255)"`
	NamePlural        string          `gorm:"column:name_plural;type:varchar(255)"`
	DefaultBalance    decimal.Decimal `gorm:"column:default_balance;type:decimal(38,8)"`
	MaxBalance        decimal.Decimal `gorm:"column:max_balance;type:decimal(38,8)"`
	Symbol            string          `gorm:"column:symbol;type:varchar(10)"`
	DecimalsSupported bool            `gorm:"column:decimals_supported"`
	IsDefault         bool            `gorm:"column:is_default"`
	Payable           bool            `gorm:"column:payable"`
	Color             string          `gorm:"column:color;type:varchar(255)"`
	ExchangeRate      decimal.Decimal `gorm:"column:exchange_rate;type:decimal(38,8)"`
}

func toAccountRecord(acc *domain.Account) (accountRecord, error) {
	data, err := domain.EncodeBalances(acc.Balances())
	if err != nil {
		return accountRecord{}, err
	}
	return accountRecord{
		UUID:        acc.ID.String(),
		Nickname:    acc.Nickname(),
		Payable:     acc.Payable(),
		BalanceData: string(data),
	}, nil
}

func (r accountRecord) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	balances, err := domain.DecodeBalances([]byte(r.BalanceData))
	if err != nil {
		return nil, err
	}
	return domain.RestoreAccount(id, r.Nickname, r.Payable, balances), nil
}

func toCurrencyRecord(c *domain.Currency) currencyRecord {
	s := c.Settings()
	return currencyRecord{
		UUID:              c.ID.String(),
		NameSingular:      s.Singular,
		NamePlural:        s.Plural,
		DefaultBalance:    s.DefaultBalance,
		MaxBalance:        s.MaxBalance,
		Symbol:            s.Symbol,
		DecimalsSupported: s.DecimalSupported,
		IsDefault:         s.Default,
		Payable:           s.Payable,
		Color:             s.Color,
		ExchangeRate:      s.ExchangeRate,
	}
}

func (r currencyRecord) toDomain() (*domain.Currency, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	maxBalance := r.MaxBalance
	if maxBalance.IsZero() {
		maxBalance = domain.DefaultMaxBalance
	}
	rate := r.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	return domain.RestoreCurrency(id, domain.CurrencySettings{
		Singular:         r.NameSingular,
		Plural:           r.NamePlural,
		Symbol:           r.Symbol,
		DefaultBalance:   r.DefaultBalance,
		MaxBalance:       maxBalance,
		DecimalSupported: r.DecimalsSupported,
		Payable:          r.Payable,
		Default:          r.IsDefault,
		Color:            r.Color,
		ExchangeRate:     rate,
	}), nil
}
