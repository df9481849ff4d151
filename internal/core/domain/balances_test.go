package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

func TestBalances_RoundTrip(t *testing.T) {
	gems, coins := uuid.New(), uuid.New()
	in := map[uuid.UUID]decimal.Decimal{
		gems:  decimal.NewFromInt(500),
		coins: decimal.RequireFromString("12.75"),
	}

	data, err := domain.EncodeBalances(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"`+gems.String()+`":500`)

	out, err := domain.DecodeBalances(data)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[gems].Equal(in[gems]))
	assert.True(t, out[coins].Equal(in[coins]))
}

func TestDecodeBalances_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("null"), []byte("{}")} {
		out, err := domain.DecodeBalances(data)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestDecodeBalances_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":   `{oops`,
		"bad key":    `{"not-a-uuid": 1}`,
		"bad amount": `{"` + uuid.NewString() + `": "abc"}`,
		"array":      `[1,2,3]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := domain.DecodeBalances([]byte(data))
			assert.ErrorIs(t, err, domain.ErrMalformedBalances)
		})
	}
}
