package domain

import "github.com/shopspring/decimal"

// TransactionType 交易種類
type TransactionType int

const (
	TransactionWithdraw TransactionType = iota + 1
	TransactionDeposit
	TransactionSet
	TransactionPay
)

func (t TransactionType) String() string {
	switch t {
	case TransactionWithdraw:
		return "WITHDRAW"
	case TransactionDeposit:
		return "DEPOSIT"
	case TransactionSet:
		return "SET"
	case TransactionPay:
		return "PAY"
	default:
		return "UNKNOWN"
	}
}

// Transaction 為交易前後通知所攜帶的內容。
// Target 只有在 TransactionPay 時才有值 (收款方)。
type Transaction struct {
	Type     TransactionType
	Currency *Currency
	Account  *Account
	Target   *Account
	Amount   decimal.Decimal
}
