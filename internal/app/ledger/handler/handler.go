package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/app/ledger/service"
	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// EconomyService 定義 HTTP 層需要的經濟系統操作
type EconomyService interface {
	Currencies() []*domain.Currency
	Account(ctx context.Context, id uuid.UUID) (*service.AccountView, error)
	Deposit(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (bool, service.Balance, error)
	Withdraw(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (bool, service.Balance, error)
	SetBalance(ctx context.Context, id uuid.UUID, currencyName string, amount decimal.Decimal) (service.Balance, error)
	Pay(ctx context.Context, from, to uuid.UUID, currencyName string, amount decimal.Decimal) error
	BalanceTop(ctx context.Context, currencyName string, page int) ([]domain.TopEntry, int, error)
}

// HandlerProvider 將 EconomyService 包裝成 HTTP Handler
type HandlerProvider struct {
	svc    EconomyService
	nodes  ports.NodeDirectory
	logger *slog.Logger
}

// NewHandler 建立 Handler
//
// 參數:
//
//	svc: EconomyService - 經濟系統操作
//	nodes: ports.NodeDirectory - 實例目錄 (可為 nil，表示未啟用叢集)
//	logger: *slog.Logger - 日誌
func NewHandler(svc EconomyService, nodes ports.NodeDirectory, logger *slog.Logger) *HandlerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlerProvider{svc: svc, nodes: nodes, logger: logger}
}

// --- Helpers ---

func (h *HandlerProvider) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *HandlerProvider) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError 將領域錯誤對應到 HTTP 狀態碼
func (h *HandlerProvider) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrCurrencyNotFound),
		errors.Is(err, domain.ErrNoDefaultCurrency):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrNotPayable),
		errors.Is(err, domain.ErrCurrencyNotPayable),
		errors.Is(err, domain.ErrBalanceOverflow),
		errors.Is(err, domain.ErrTransactionCancelled):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSelfPayment),
		errors.Is(err, domain.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrTopListUnsupported):
		h.writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, ports.ErrLockNotAcquired):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseAccountID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "accountId")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing accountId")
	}
	return uuid.Parse(raw)
}

type amountRequest struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	To       string          `json:"to,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}
		return err
	}
	return nil
}

type currencyResponse struct {
	ID             uuid.UUID       `json:"id"`
	Singular       string          `json:"singular"`
	Plural         string          `json:"plural"`
	Symbol         string          `json:"symbol,omitempty"`
	DefaultBalance decimal.Decimal `json:"default_balance"`
	MaxBalance     decimal.Decimal `json:"max_balance"`
	Decimals       bool            `json:"decimals"`
	Payable        bool            `json:"payable"`
	Default        bool            `json:"default"`
	Color          string          `json:"color"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
}

type mutationResponse struct {
	Executed bool            `json:"executed"`
	Balance  service.Balance `json:"balance"`
}

// --- Handlers ---

// ListCurrencies handles GET /v1/currencies
func (h *HandlerProvider) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	list := h.svc.Currencies()
	out := make([]currencyResponse, 0, len(list))
	for _, c := range list {
		s := c.Settings()
		out = append(out, currencyResponse{
			ID:             c.ID,
			Singular:       s.Singular,
			Plural:         s.Plural,
			Symbol:         s.Symbol,
			DefaultBalance: s.DefaultBalance,
			MaxBalance:     s.MaxBalance,
			Decimals:       s.DecimalSupported,
			Payable:        s.Payable,
			Default:        s.Default,
			Color:          s.Color,
			ExchangeRate:   s.ExchangeRate,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetAccount handles GET /v1/accounts/{accountId}
func (h *HandlerProvider) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}
	view, err := h.svc.Account(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Deposit handles POST /v1/accounts/{accountId}/deposit
func (h *HandlerProvider) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Deposit)
}

// Withdraw handles POST /v1/accounts/{accountId}/withdraw
func (h *HandlerProvider) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Withdraw)
}

// SetBalance handles POST /v1/accounts/{accountId}/set
func (h *HandlerProvider) SetBalance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, id uuid.UUID, currency string, amount decimal.Decimal) (bool, service.Balance, error) {
		b, err := h.svc.SetBalance(ctx, id, currency, amount)
		return err == nil, b, err
	})
}

type mutation func(ctx context.Context, id uuid.UUID, currency string, amount decimal.Decimal) (bool, service.Balance, error)

func (h *HandlerProvider) mutate(w http.ResponseWriter, r *http.Request, op mutation) {
	id, err := parseAccountID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Amount.IsNegative() {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidAmount.Error())
		return
	}

	executed, balance, err := op(r.Context(), id, req.Currency, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if !executed {
		status = http.StatusConflict
	}
	h.writeJSON(w, status, mutationResponse{Executed: executed, Balance: balance})
}

// Pay handles POST /v1/accounts/{accountId}/pay
func (h *HandlerProvider) Pay(w http.ResponseWriter, r *http.Request) {
	from, err := parseAccountID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	to, err := uuid.Parse(req.To)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid recipient")
		return
	}

	if err := h.svc.Pay(r.Context(), from, to, req.Currency, req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leaderboard handles GET /v1/leaderboard/{currency}?page=N
func (h *HandlerProvider) Leaderboard(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = p
	}

	entries, page, err := h.svc.BalanceTop(r.Context(), chi.URLParam(r, "currency"), page)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"page":    page,
		"entries": entries,
	})
}

// ListNodes handles GET /v1/nodes
func (h *HandlerProvider) ListNodes(w http.ResponseWriter, r *http.Request) {
	if h.nodes == nil {
		h.writeError(w, http.StatusNotImplemented, "node presence is not enabled")
		return
	}
	nodes, err := h.nodes.Nodes(r.Context())
	if err != nil {
		h.logger.Error("failed to list nodes", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "node directory unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}
