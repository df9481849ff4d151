package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/audit"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/event"
)

// Ledger 執行帳戶餘額的異動。
//
// 每一筆異動的流程固定為:
//  1. 前置檢查 (提款: 餘額足夠；存款: 帳戶可收款；設定: 無)
//  2. 在主執行環境上觸發可取消的交易前通知
//  3. 計算新餘額並截斷至貨幣上限
//  4. 寫入帳戶記憶體中的餘額 (存款另外累計存入金額)
//  5. 寫入持久層，再發送跨實例的 account-updated 通知
//  6. 在主執行環境上觸發交易後通知 (不等待)
//
// 同一個帳戶的異動會被序列化；不同帳戶之間互不影響。
type Ledger struct {
	store     ports.AccountStore
	publisher ports.Publisher
	hooks     *event.Hooks
	audit     *audit.Logger
	logger    *slog.Logger
}

// New 建立 Ledger
//
// 參數:
//
//	store: ports.AccountStore - 帳戶持久層
//	publisher: ports.Publisher - 跨實例通知
//	hooks: *event.Hooks - 交易前後通知
//	auditLog: *audit.Logger - 稽核日誌 (可為 nil)
//	logger: *slog.Logger - 日誌
func New(store ports.AccountStore, publisher ports.Publisher, hooks *event.Hooks, auditLog *audit.Logger, logger *slog.Logger) *Ledger {
	if hooks == nil {
		hooks = event.NewHooks(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:     store,
		publisher: publisher,
		hooks:     hooks,
		audit:     auditLog,
		logger:    logger,
	}
}

// Hooks 回傳交易通知管理器，供外部註冊觀察者
func (l *Ledger) Hooks() *event.Hooks {
	return l.hooks
}

// Withdraw 從帳戶提款。
// 餘額不足或交易被取消時回傳 false，餘額不變。
// 持久層寫入失敗時回傳 (true, err)：記憶體中的餘額已更新，但尚未落地。
func (l *Ledger) Withdraw(ctx context.Context, acc *domain.Account, c *domain.Currency, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, domain.ErrInvalidAmount
	}
	return l.mutate(ctx, domain.TransactionWithdraw, acc, c, amount, func() bool {
		return acc.HasEnough(c, amount)
	})
}

// Deposit 存款至帳戶。
// 帳戶不可收款或交易被取消時回傳 false。超出貨幣上限的部分會被截斷，不視為錯誤。
func (l *Ledger) Deposit(ctx context.Context, acc *domain.Account, c *domain.Currency, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, domain.ErrInvalidAmount
	}
	return l.mutate(ctx, domain.TransactionDeposit, acc, c, amount, acc.Payable)
}

// SetBalance 直接設定餘額 (截斷至上限)。交易被取消時不做任何事。
func (l *Ledger) SetBalance(ctx context.Context, acc *domain.Account, c *domain.Currency, amount decimal.Decimal) error {
	_, err := l.mutate(ctx, domain.TransactionSet, acc, c, amount, func() bool { return true })
	return err
}

func (l *Ledger) mutate(ctx context.Context, typ domain.TransactionType, acc *domain.Account, c *domain.Currency, amount decimal.Decimal, precondition func() bool) (bool, error) {
	acc.Lock()
	defer acc.Unlock()

	if !precondition() {
		return false, nil
	}

	tx := domain.Transaction{Type: typ, Currency: c, Account: acc, Amount: amount}
	allowed, err := l.hooks.FirePre(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("pre-transaction notification: %w", err)
	}
	if !allowed {
		l.logger.Debug("Transaction cancelled by observer", "type", typ.String(), "account_id", acc.ID, "currency", c.Plural())
		return false, nil
	}

	old := acc.Balance(c)
	var next decimal.Decimal
	switch typ {
	case domain.TransactionWithdraw:
		next = old.Sub(amount)
	case domain.TransactionDeposit:
		next = old.Add(amount)
	default:
		next = amount
	}
	capped := c.Cap(next)

	acc.SetRawBalance(c.ID, capped)
	if typ == domain.TransactionDeposit {
		acc.AddAccumulated(c, capped.Sub(old))
	}

	var persistErr error
	if err := l.store.SaveAccount(ctx, acc); err != nil {
		l.logger.Error("Failed to persist account after transaction",
			"type", typ.String(), "account_id", acc.ID, "currency", c.Plural(), "error", err)
		persistErr = fmt.Errorf("failed to save account %s: %w", acc.ID, err)
	} else {
		l.publisher.Publish(ctx, ports.ChangeAccountUpdated, acc.ID)
	}

	post := tx
	if typ == domain.TransactionSet {
		post.Amount = capped
	}
	l.hooks.FirePost(post)
	l.audit.Transaction(tx, capped)

	return true, persistErr
}
