package syncbus

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// AccountInvalidator 本機的帳戶快取
type AccountInvalidator interface {
	Flush(id uuid.UUID)
	FlushAll()
}

// CurrencySyncer 本機的貨幣註冊表
type CurrencySyncer interface {
	Sync(ctx context.Context, id uuid.UUID, create bool) error
	Forget(id uuid.UUID) *domain.Currency
}

// TopListInvalidator 本機的排行快取
type TopListInvalidator interface {
	Invalidate(currencyID uuid.UUID)
}

// Listener 將其他實例的變更通知套用到本機快取。
// 一律丟棄或從持久層重新讀取，重複收到同一則訊息不會造成錯誤結果。
type Listener struct {
	accounts   AccountInvalidator
	currencies CurrencySyncer
	topList    TopListInvalidator
	logger     *slog.Logger
}

// NewListener 建立 Listener；topList 可為 nil
func NewListener(accounts AccountInvalidator, currencies CurrencySyncer, topList TopListInvalidator, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		accounts:   accounts,
		currencies: currencies,
		topList:    topList,
		logger:     logger,
	}
}

// Start 開始接收 Bus 上的訊息
func (l *Listener) Start(ctx context.Context, bus *Bus) error {
	return bus.Subscribe(ctx, l.Handle)
}

// Handle 處理單一訊息
func (l *Listener) Handle(ctx context.Context, msg Message) {
	switch msg.Kind {
	case ports.ChangeAccountUpdated:
		l.accounts.Flush(msg.ID)

	case ports.ChangeCurrencyCreated, ports.ChangeCurrencyUpdated:
		create := msg.Kind == ports.ChangeCurrencyCreated
		if err := l.currencies.Sync(ctx, msg.ID, create); err != nil {
			l.logger.Error("Failed to sync currency", "currency_id", msg.ID, "error", err)
		}

	case ports.ChangeCurrencyDeleted:
		l.currencies.Forget(msg.ID)
		l.accounts.FlushAll()
		if l.topList != nil {
			l.topList.Invalidate(msg.ID)
		}

	default:
		l.logger.Warn("Unknown sync message", "kind", msg.Kind.String(), "id", msg.ID)
		return
	}

	l.logger.Debug("Applied sync message", "kind", msg.Kind.String(), "id", msg.ID, "origin", msg.Origin)
}
