package domain

import "errors"

// 帳務相關的錯誤
var (
	ErrCurrencyExists       = errors.New("currency already exists")
	ErrCurrencyNotFound     = errors.New("currency not found")
	ErrNoDefaultCurrency    = errors.New("no default currency is provided")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNotPayable           = errors.New("account cannot receive currency")
	ErrCurrencyNotPayable   = errors.New("currency is not payable")
	ErrSelfPayment          = errors.New("cannot pay yourself")
	ErrBalanceOverflow      = errors.New("balance would exceed currency maximum")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrTransactionCancelled = errors.New("transaction cancelled")
	ErrMalformedBalances    = errors.New("malformed balance data")
)
