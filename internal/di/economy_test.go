package di_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
	"github.com/JoeShih716/go-gems-ledger/internal/di"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/audit"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/syncbus"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
)

func memoryConfig() *config.Config {
	var cfg config.Config
	cfg.Defaults()
	return &cfg
}

func TestProvideStore_Memory(t *testing.T) {
	store, err := di.ProvideStore(context.Background(), memoryConfig(), slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}

func TestProvideTransport(t *testing.T) {
	cfg := memoryConfig()

	transport, err := di.ProvideTransport(cfg, nil, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &syncbus.LocalTransport{}, transport)

	cfg.Sync.Transport = config.TransportRedis
	_, err = di.ProvideTransport(cfg, nil, slog.Default())
	assert.Error(t, err)

	assert.Nil(t, di.ProvideLocker(nil, slog.Default()))
	assert.Nil(t, di.ProvidePresence(nil, time.Second, slog.Default()))
}

func TestEconomy_Lifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	eco := di.ProvideEconomy(store, syncbus.NewHub().Transport(), di.EconomyOptions{
		InstanceID:     "node-a",
		AccountTTL:     time.Minute,
		SweepInterval:  time.Minute,
		LeaderboardTTL: time.Minute,
		Audit:          audit.Discard(),
	}, nil)
	require.NoError(t, eco.Start(ctx))
	assert.Equal(t, "node-a", eco.Bus.Origin())

	_, err := eco.Currencies.Create(ctx, "Gems")
	require.NoError(t, err)

	id := uuid.New()
	ok, bal, err := eco.Service.Deposit(ctx, id, "", decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, bal.Amount.Equal(decimal.NewFromInt(250)))

	entries, page, err := eco.Service.BalanceTop(ctx, "gems", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	require.Len(t, entries, 1)
	assert.Equal(t, id.String(), entries[0].Name)

	require.NoError(t, eco.Close())
}
