package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/account"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
	mock_ports "github.com/JoeShih716/go-gems-ledger/test/mocks/core/ports"
)

type staticCurrencies []*domain.Currency

func (s staticCurrencies) All() []*domain.Currency { return s }

func TestManager_CreateSeedsDefaultBalances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gems := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	gems.Update(func(s *domain.CurrencySettings) { s.DefaultBalance = decimal.NewFromInt(100) })
	coins := domain.NewCurrency(uuid.New(), "Coin", "Coins")

	store := memory.New()
	publisher := mock_ports.NewMockPublisher(ctrl)
	id := uuid.New()
	publisher.EXPECT().Publish(gomock.Any(), ports.ChangeAccountUpdated, id).Times(1)

	mgr := account.NewManager(store, publisher, staticCurrencies{gems, coins}, nil)

	// 1. 建立帳戶
	acc, err := mgr.Create(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, acc.Balance(gems).Equal(decimal.NewFromInt(100)))
	assert.True(t, acc.HasBalance(coins.ID))
	assert.True(t, mgr.Cached(id))

	// 2. 已寫入持久層
	stored, err := store.LoadAccount(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Balance(gems).Equal(decimal.NewFromInt(100)))

	// 3. 重複建立回傳既有帳戶，不再發送通知
	again, err := mgr.Create(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, acc, again)
}

func TestManager_CreateByNameUsesOfflineID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mock_ports.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	store := memory.New()
	mgr := account.NewManager(store, publisher, staticCurrencies{}, nil)

	acc, err := mgr.CreateByName(context.Background(), "Notch")
	require.NoError(t, err)
	assert.Equal(t, domain.OfflineID("Notch"), acc.ID)
	assert.Equal(t, "Notch", acc.Nickname())

	// 清掉快取後仍能以名稱從持久層找到
	mgr.FlushAll()
	found, err := mgr.FetchByName(context.Background(), "NOTCH")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, acc.ID, found.ID)
	assert.True(t, mgr.Cached(acc.ID))

	has, err := mgr.HasName(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManager_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mock_ports.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), ports.ChangeAccountUpdated, gomock.Any()).Times(2)

	store := memory.New()
	mgr := account.NewManager(store, publisher, staticCurrencies{}, nil)

	acc, err := mgr.Create(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), acc.ID))
	has, err := mgr.Has(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManager_CreateStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	errDown := errors.New("db down")
	store := mock_ports.NewMockAccountStore(ctrl)
	publisher := mock_ports.NewMockPublisher(ctrl)
	id := uuid.New()

	store.EXPECT().LoadAccount(gomock.Any(), id).Return(nil, nil)
	store.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(errDown)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	mgr := account.NewManager(store, publisher, staticCurrencies{}, nil)

	_, err := mgr.Create(context.Background(), id)
	assert.ErrorIs(t, err, errDown)

	// 建立失敗的帳戶不可留在快取中
	acc, err := mgr.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, acc)
	has, err := mgr.Has(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManager_FetchSurfacesLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	errDown := errors.New("db down")
	store := mock_ports.NewMockAccountStore(ctrl)
	id := uuid.New()
	store.EXPECT().LoadAccount(gomock.Any(), id).Return(nil, errDown)

	mgr := account.NewManager(store, mock_ports.NewMockPublisher(ctrl), staticCurrencies{}, nil)

	acc, err := mgr.Fetch(context.Background(), id)
	assert.Nil(t, acc)
	assert.ErrorIs(t, err, errDown)
}
