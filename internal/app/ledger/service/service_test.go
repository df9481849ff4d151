package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JoeShih716/go-gems-ledger/internal/app/ledger/service"
	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/account"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/audit"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/currency"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/leaderboard"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/ledger"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
	mock_ports "github.com/JoeShih716/go-gems-ledger/test/mocks/core/ports"
)

func newService(t *testing.T) (*service.EconomyService, *currency.Registry) {
	t.Helper()
	ctrl := gomock.NewController(t)
	publisher := mock_ports.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	store := memory.New()
	reg := currency.NewRegistry(store, store, publisher, nil)
	mgr := account.NewManager(store, publisher, reg, nil)
	svc := service.NewEconomyService(mgr, reg,
		ledger.New(store, publisher, nil, audit.Discard(), nil),
		leaderboard.NewCache(store, nil), nil)
	return svc, reg
}

func TestService_NoDefaultCurrency(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Currency("")
	assert.ErrorIs(t, err, domain.ErrNoDefaultCurrency)

	_, err = svc.GetBalance(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrNoDefaultCurrency)
}

func TestService_PullAccountCreatesOnce(t *testing.T) {
	svc, reg := newService(t)
	gems, err := reg.Create(context.Background(), "Gems")
	require.NoError(t, err)
	gems.Update(func(s *domain.CurrencySettings) { s.DefaultBalance = decimal.NewFromInt(25) })

	id := uuid.New()
	first, err := svc.PullAccount(context.Background(), id)
	require.NoError(t, err)
	second, err := svc.PullAccount(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, first, second)

	bal, err := svc.GetBalance(context.Background(), id, "GEMS")
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, gems.ID, bal.CurrencyID)
}

func TestService_AccountNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Account(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestService_BalanceTopClampsPage(t *testing.T) {
	svc, reg := newService(t)
	_, err := reg.Create(context.Background(), "Gems")
	require.NoError(t, err)

	_, page, err := svc.BalanceTop(context.Background(), "", -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	entries, page, err := svc.BalanceTop(context.Background(), "", service.MaxTopPage+1)
	require.NoError(t, err)
	assert.Equal(t, service.MaxTopPage, page)
	assert.Empty(t, entries)
}
