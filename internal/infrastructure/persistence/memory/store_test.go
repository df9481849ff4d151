package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
)

func TestStore_AccountsAreCopied(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	cid := uuid.New()

	acc := domain.NewAccount(uuid.New(), "Steve")
	acc.SetRawBalance(cid, decimal.NewFromInt(10))
	require.NoError(t, store.SaveAccount(ctx, acc))

	// 修改原本的物件不影響已保存的資料
	acc.SetRawBalance(cid, decimal.NewFromInt(99))

	loaded, err := store.LoadAccount(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.NotSame(t, acc, loaded)
	assert.True(t, loaded.Balances()[cid].Equal(decimal.NewFromInt(10)))
}

func TestStore_LookupByName(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SaveAccount(ctx, domain.NewAccount(uuid.New(), "")))
	steve := domain.NewAccount(uuid.New(), "Steve")
	require.NoError(t, store.SaveAccount(ctx, steve))

	got, err := store.LoadAccountByName(ctx, "STEVE")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, steve.ID, got.ID)

	// 空名稱不會對到沒有暱稱的帳戶
	got, err = store.LoadAccountByName(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.DeleteAccountByName(ctx, "steve"))
	got, err = store.LoadAccount(ctx, steve.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_MalformedRows(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	cid := uuid.New()

	good := domain.NewAccount(uuid.New(), "good")
	good.SetRawBalance(cid, decimal.NewFromInt(5))
	require.NoError(t, store.SaveAccount(ctx, good))

	badID := uuid.New()
	store.PutRaw(badID, "bad", []byte(`{not json`))

	// 單筆讀取回傳錯誤
	_, err := store.LoadAccount(ctx, badID)
	assert.ErrorIs(t, err, domain.ErrMalformedBalances)

	// 批次讀取略過損毀資料
	all, err := store.OfflineAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, good.ID, all[0].ID)

	entries, err := store.ScanBalances(ctx, cid)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].Name)
}

func TestStore_ScanBalances(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	gems, coins := uuid.New(), uuid.New()

	anon := domain.NewAccount(uuid.New(), "")
	anon.SetRawBalance(gems, decimal.NewFromInt(3))
	require.NoError(t, store.SaveAccount(ctx, anon))

	onlyCoins := domain.NewAccount(uuid.New(), "coins")
	onlyCoins.SetRawBalance(coins, decimal.NewFromInt(8))
	require.NoError(t, store.SaveAccount(ctx, onlyCoins))

	entries, err := store.ScanBalances(ctx, gems)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, anon.ID.String(), entries[0].Name)

	_, err = memory.New(memory.WithoutTopList()).ScanBalances(ctx, gems)
	assert.ErrorIs(t, err, ports.ErrTopListUnsupported)
}

func TestStore_Currencies(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	c := domain.NewCurrency(uuid.New(), "Gem", "Gems")
	require.NoError(t, store.SaveCurrency(ctx, c))

	loaded, err := store.LoadCurrency(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.NotSame(t, c, loaded)
	assert.Equal(t, c.Settings(), loaded.Settings())

	require.NoError(t, store.DeleteCurrency(ctx, c))
	list, err := store.LoadCurrencies(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
