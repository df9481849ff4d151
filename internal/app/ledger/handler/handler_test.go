package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JoeShih716/go-gems-ledger/internal/app/ledger/handler"
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

type testServer struct {
	http.Handler
	gems *domain.Currency
}

func newTestServer(t *testing.T, storeOpts ...memory.Option) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	publisher := mock_ports.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	store := memory.New(storeOpts...)
	reg := currency.NewRegistry(store, store, publisher, nil)
	gems, err := reg.Create(context.Background(), "Gems")
	require.NoError(t, err)
	gems.Update(func(s *domain.CurrencySettings) {
		s.Singular = "Gem"
		s.MaxBalance = decimal.NewFromInt(1_000_000)
	})

	mgr := account.NewManager(store, publisher, reg, nil)
	svc := service.NewEconomyService(
		mgr, reg,
		ledger.New(store, publisher, nil, audit.Discard(), nil),
		leaderboard.NewCache(store, nil),
		nil,
	)
	return &testServer{Handler: handler.NewRouter(svc, nil, nil), gems: gems}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

type mutationBody struct {
	Executed bool            `json:"executed"`
	Balance  service.Balance `json:"balance"`
}

func decodeMutation(t *testing.T, rec *httptest.ResponseRecorder) mutationBody {
	t.Helper()
	var out mutationBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Healthz(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ListCurrencies(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/currencies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Gems", list[0]["plural"])
	assert.Equal(t, true, list[0]["default"])
}

func TestHandler_GemsFlow(t *testing.T) {
	srv := newTestServer(t)
	base := "/v1/accounts/" + uuid.NewString()

	// 1. 存入 500
	rec := srv.do(t, http.MethodPost, base+"/deposit", `{"currency":"gems","amount":500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeMutation(t, rec)
	assert.True(t, out.Executed)
	assert.True(t, out.Balance.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "500.00 Gems", out.Balance.Formatted)

	// 2. 提款 600：未執行，餘額不變
	rec = srv.do(t, http.MethodPost, base+"/withdraw", `{"amount":600}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	out = decodeMutation(t, rec)
	assert.False(t, out.Executed)
	assert.True(t, out.Balance.Amount.Equal(decimal.NewFromInt(500)))

	// 3. 存入 999,999 後截斷至上限
	rec = srv.do(t, http.MethodPost, base+"/deposit", `{"amount":999999}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decodeMutation(t, rec)
	assert.True(t, out.Balance.Amount.Equal(decimal.NewFromInt(1_000_000)))

	// 4. 查詢帳戶
	rec = srv.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.AccountView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Balances, 1)
	assert.Equal(t, "1,000,000.00 Gems", view.Balances[0].Formatted)
}

func TestHandler_SetBalance(t *testing.T) {
	srv := newTestServer(t)
	base := "/v1/accounts/" + uuid.NewString()

	rec := srv.do(t, http.MethodPost, base+"/set", `{"currency":"Gem","amount":42}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeMutation(t, rec)
	assert.True(t, out.Executed)
	assert.True(t, out.Balance.Amount.Equal(decimal.NewFromInt(42)))
}

func TestHandler_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	base := "/v1/accounts/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad account id", http.MethodGet, "/v1/accounts/not-a-uuid", "", http.StatusBadRequest},
		{"unknown account", http.MethodGet, base, "", http.StatusNotFound},
		{"empty body", http.MethodPost, base + "/deposit", "", http.StatusBadRequest},
		{"unknown field", http.MethodPost, base + "/deposit", `{"amount":1,"bogus":true}`, http.StatusBadRequest},
		{"negative amount", http.MethodPost, base + "/deposit", `{"amount":-5}`, http.StatusBadRequest},
		{"unknown currency", http.MethodPost, base + "/deposit", `{"currency":"coins","amount":5}`, http.StatusNotFound},
		{"bad recipient", http.MethodPost, base + "/pay", `{"amount":5,"to":"nope"}`, http.StatusBadRequest},
		{"bad page", http.MethodGet, "/v1/leaderboard/gems?page=x", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Pay(t *testing.T) {
	srv := newTestServer(t)
	steve, alex := uuid.NewString(), uuid.NewString()

	// 收款方不存在
	rec := srv.do(t, http.MethodPost, "/v1/accounts/"+steve+"/pay", `{"amount":5,"to":"`+alex+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/accounts/"+steve+"/deposit", `{"amount":100}`).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/accounts/"+alex+"/set", `{"amount":0}`).Code)

	// 餘額不足
	rec = srv.do(t, http.MethodPost, "/v1/accounts/"+steve+"/pay", `{"amount":500,"to":"`+alex+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// 轉給自己
	rec = srv.do(t, http.MethodPost, "/v1/accounts/"+steve+"/pay", `{"amount":5,"to":"`+steve+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/v1/accounts/"+steve+"/pay", `{"amount":40,"to":"`+alex+`"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var view service.AccountView
	rec = srv.do(t, http.MethodGet, "/v1/accounts/"+alex, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Balances[0].Amount.Equal(decimal.NewFromInt(40)))
}

func TestHandler_Leaderboard(t *testing.T) {
	srv := newTestServer(t)
	for _, amount := range []string{"30", "10", "20"} {
		rec := srv.do(t, http.MethodPost, "/v1/accounts/"+uuid.NewString()+"/set", `{"amount":`+amount+`}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/v1/leaderboard/gems?page=0", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Page    int               `json:"page"`
		Entries []domain.TopEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	require.Len(t, body.Entries, 3)
	assert.True(t, body.Entries[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, body.Entries[2].Amount.Equal(decimal.NewFromInt(10)))

	rec = srv.do(t, http.MethodGet, "/v1/leaderboard/gems?page=500", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.MaxTopPage, body.Page)
	assert.Empty(t, body.Entries)
}

func TestHandler_LeaderboardUnsupported(t *testing.T) {
	srv := newTestServer(t, memory.WithoutTopList())

	rec := srv.do(t, http.MethodGet, "/v1/leaderboard/gems", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

type fakeDirectory struct {
	nodes []domain.Node
	err   error
}

func (f fakeDirectory) Nodes(context.Context) ([]domain.Node, error) {
	return f.nodes, f.err
}

func TestHandler_ListNodes(t *testing.T) {
	t.Run("presence disabled", func(t *testing.T) {
		srv := newTestServer(t)
		rec := srv.do(t, http.MethodGet, "/v1/nodes", "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("lists nodes", func(t *testing.T) {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		dir := fakeDirectory{nodes: []domain.Node{
			{InstanceID: "ledger-a", Endpoint: "10.0.0.1:8080", StartedAt: started},
			{InstanceID: "ledger-b", Endpoint: "10.0.0.2:8080", StartedAt: started},
		}}
		router := handler.NewRouter(nil, dir, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var out struct {
			Nodes []domain.Node `json:"nodes"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Nodes, 2)
		assert.Equal(t, "ledger-a", out.Nodes[0].InstanceID)
		assert.Equal(t, "10.0.0.2:8080", out.Nodes[1].Endpoint)
		assert.True(t, started.Equal(out.Nodes[0].StartedAt))
	})

	t.Run("directory failure", func(t *testing.T) {
		router := handler.NewRouter(nil, fakeDirectory{err: errors.New("redis down")}, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
