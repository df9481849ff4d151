package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// NewRouter 建立並註冊所有 API 路由
func NewRouter(svc EconomyService, nodes ports.NodeDirectory, logger *slog.Logger) http.Handler {
	h := NewHandler(svc, nodes, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/currencies", h.ListCurrencies)
		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Post("/deposit", h.Deposit)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/set", h.SetBalance)
			r.Post("/pay", h.Pay)
		})
		r.Get("/leaderboard/{currency}", h.Leaderboard)
		r.Get("/nodes", h.ListNodes)
	})

	return r
}

// NewServer 建立 HTTP Server
func NewServer(port int, svc EconomyService, nodes ports.NodeDirectory, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(svc, nodes, logger),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
