package audit

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// Logger 記錄每一筆已執行的帳務操作 (Economy Log)。
// 與營運日誌 (slog) 分開，輸出為一行一筆的 JSON，只寫不讀。
type Logger struct {
	log    *logrus.Logger
	closer io.Closer
}

// New 建立稽核日誌；path 為空時輸出到 stdout
func New(path string) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)

	if path == "" {
		l.SetOutput(os.Stdout)
		return &Logger{log: l}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}
	l.SetOutput(f)
	return &Logger{log: l, closer: f}, nil
}

// NewWithWriter 建立輸出到指定 Writer 的稽核日誌 (測試用)
func NewWithWriter(w io.Writer) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(w)
	return &Logger{log: l}
}

// Discard 不輸出任何內容的稽核日誌
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

// Close 關閉輸出檔案
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Transaction 記錄存款、提款或設定餘額
func (l *Logger) Transaction(tx domain.Transaction, newBalance decimal.Decimal) {
	if l == nil {
		return
	}
	c := tx.Currency
	fields := logrus.Fields{
		"type":        tx.Type.String(),
		"account_id":  tx.Account.ID.String(),
		"account":     tx.Account.DisplayName(),
		"currency_id": c.ID.String(),
		"amount":      tx.Amount.String(),
		"balance":     newBalance.String(),
	}

	var msg string
	switch tx.Type {
	case domain.TransactionWithdraw:
		msg = fmt.Sprintf("[WITHDRAW] Account: %s were withdrawn: %s and now has %s",
			tx.Account.DisplayName(), c.Format(tx.Amount), c.Format(newBalance))
	case domain.TransactionDeposit:
		msg = fmt.Sprintf("[DEPOSIT] Account: %s were deposited: %s and now has %s",
			tx.Account.DisplayName(), c.Format(tx.Amount), c.Format(newBalance))
	default:
		msg = fmt.Sprintf("[BALANCE SET] Account: %s were set to: %s",
			tx.Account.DisplayName(), c.Format(newBalance))
	}
	l.log.WithFields(fields).Info(msg)
}

// Payment 記錄玩家之間的轉帳
func (l *Logger) Payment(from, to *domain.Account, c *domain.Currency, amount decimal.Decimal) {
	if l == nil {
		return
	}
	l.log.WithFields(logrus.Fields{
		"type":        domain.TransactionPay.String(),
		"from_id":     from.ID.String(),
		"to_id":       to.ID.String(),
		"currency_id": c.ID.String(),
		"amount":      amount.String(),
	}).Infof("[PAYMENT] %s (New bal: %s) -> paid %s (New bal: %s) - An amount of %s",
		from.DisplayName(), c.Format(from.Balance(c)),
		to.DisplayName(), c.Format(to.Balance(c)),
		c.Format(amount))
}
