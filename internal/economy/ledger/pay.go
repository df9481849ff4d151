package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// Pay 由 from 轉帳 amount 給 to。
//
// 檢查順序: 金額、貨幣可轉帳、非自己、收款方可收款、餘額足夠、收款方不會超過上限。
// 全部通過後觸發可取消的轉帳通知，再依序執行提款與存款 (各自也會觸發通知)。
// 收款方的存款被拒絕時，款項直接退回付款方 (不經過交易通知與收款檢查)。
func (l *Ledger) Pay(ctx context.Context, from, to *domain.Account, c *domain.Currency, amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return domain.ErrInvalidAmount
	case !c.Payable():
		return domain.ErrCurrencyNotPayable
	case from.ID == to.ID:
		return domain.ErrSelfPayment
	case !to.Payable():
		return domain.ErrNotPayable
	case !from.HasEnough(c, amount):
		return domain.ErrInsufficientFunds
	case to.WouldOverflow(c, amount):
		return domain.ErrBalanceOverflow
	}

	tx := domain.Transaction{Type: domain.TransactionPay, Currency: c, Account: from, Target: to, Amount: amount}
	allowed, err := l.hooks.FirePre(ctx, tx)
	if err != nil {
		return fmt.Errorf("pre-payment notification: %w", err)
	}
	if !allowed {
		return domain.ErrTransactionCancelled
	}

	ok, err := l.Withdraw(ctx, from, c, amount)
	if err != nil {
		return err
	}
	if !ok {
		if !from.HasEnough(c, amount) {
			return domain.ErrInsufficientFunds
		}
		return domain.ErrTransactionCancelled
	}

	ok, err = l.Deposit(ctx, to, c, amount)
	if err != nil {
		return err
	}
	if !ok {
		l.logger.Warn("Payment deposit rejected, refunding payer",
			"from", from.ID, "to", to.ID, "currency", c.Plural(), "amount", amount.String())
		if rerr := l.refund(ctx, from, c, amount); rerr != nil {
			return fmt.Errorf("refund failed after rejected payment: %w", rerr)
		}
		return domain.ErrTransactionCancelled
	}

	l.audit.Payment(from, to, c, amount)
	l.hooks.FirePost(tx)
	return nil
}

// refund 把已提出的金額加回帳戶並寫入持久層。
// 退款是補償而非新的交易，因此不觸發通知、不檢查帳戶是否可收款。
func (l *Ledger) refund(ctx context.Context, acc *domain.Account, c *domain.Currency, amount decimal.Decimal) error {
	acc.Lock()
	defer acc.Unlock()

	acc.SetRawBalance(c.ID, c.Cap(acc.Balance(c).Add(amount)))
	if err := l.store.SaveAccount(ctx, acc); err != nil {
		l.logger.Error("Failed to persist refunded account",
			"account_id", acc.ID, "currency", c.Plural(), "amount", amount.String(), "error", err)
		return fmt.Errorf("failed to save account %s: %w", acc.ID, err)
	}
	l.publisher.Publish(ctx, ports.ChangeAccountUpdated, acc.ID)
	return nil
}
