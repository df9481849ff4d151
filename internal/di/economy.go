package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JoeShih716/go-gems-ledger/internal/app/ledger/service"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/account"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/audit"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/currency"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/event"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/leaderboard"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/ledger"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/syncbus"
)

// EconomyOptions 組裝經濟系統所需的設定
type EconomyOptions struct {
	InstanceID     string
	AccountTTL     time.Duration
	SweepInterval  time.Duration
	LeaderboardTTL time.Duration
	Audit          *audit.Logger // nil 時不寫稽核日誌
	Locker         ports.Locker  // nil 時維護作業不加鎖
}

// Economy 一個實例內所有經濟系統元件
type Economy struct {
	Loop       *event.Loop
	Bus        *syncbus.Bus
	Currencies *currency.Registry
	Accounts   *account.Manager
	Ledger     *ledger.Ledger
	TopList    *leaderboard.Cache
	Listener   *syncbus.Listener
	Service    *service.EconomyService

	store  ports.Store
	audit  *audit.Logger
	logger *slog.Logger
	sweep  time.Duration
}

// ProvideEconomy 組裝經濟系統 (尚未啟動)
func ProvideEconomy(store ports.Store, transport ports.Transport, opts EconomyOptions, logger *slog.Logger) *Economy {
	if logger == nil {
		logger = slog.Default()
	}

	loop := event.NewLoop(0, logger)
	bus := syncbus.NewBus(transport, opts.InstanceID, logger)

	registry := currency.NewRegistry(store, store, bus, logger)
	if opts.Locker != nil {
		registry.SetLocker(opts.Locker)
	}

	accounts := account.NewManager(store, bus, registry, logger, account.WithTTL(opts.AccountTTL))
	registry.SetFlusher(accounts)

	l := ledger.New(store, bus, event.NewHooks(loop), opts.Audit, logger)
	top := leaderboard.NewCache(store, loop, leaderboard.WithTTL(opts.LeaderboardTTL), leaderboard.WithLogger(logger))
	listener := syncbus.NewListener(accounts, registry, top, logger)

	return &Economy{
		Loop:       loop,
		Bus:        bus,
		Currencies: registry,
		Accounts:   accounts,
		Ledger:     l,
		TopList:    top,
		Listener:   listener,
		Service:    service.NewEconomyService(accounts, registry, l, top, logger),
		store:      store,
		audit:      opts.Audit,
		logger:     logger,
		sweep:      opts.SweepInterval,
	}
}

// Start 啟動主執行環境、載入貨幣、開始接收同步訊息與清理過期帳戶
func (e *Economy) Start(ctx context.Context) error {
	e.Loop.Start(ctx)

	if err := e.Currencies.Load(ctx); err != nil {
		return err
	}
	if _, err := e.Currencies.Default(); err != nil {
		e.logger.Warn("No default currency is provided")
	}

	if err := e.Listener.Start(ctx, e.Bus); err != nil {
		return fmt.Errorf("failed to start sync listener: %w", err)
	}

	if e.sweep > 0 {
		e.Accounts.Cache().Start(ctx, e.sweep)
	}
	return nil
}

// Close 依序關閉同步匯流排、主執行環境、稽核日誌與持久層
func (e *Economy) Close() error {
	var errs []error
	if err := e.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sync bus: %w", err))
	}
	e.Loop.Stop()
	if err := e.audit.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close audit log: %w", err))
	}
	if err := e.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
