package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/JoeShih716/go-gems-ledger/internal/app/ledger/handler"
	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/di"
	"github.com/JoeShih716/go-gems-ledger/internal/economy/audit"
	infraRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/redis"
	"github.com/JoeShih716/go-gems-ledger/internal/kit/bootstrap"
)

const serviceName = "gems.ledger"

func main() {
	// 1. 初始化 App (載入 Config, Logger)
	app, err := bootstrap.NewApp("ledger")
	if err != nil {
		slog.Error("Failed to bootstrap", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	cfg := app.Config

	slog.InfoContext(ctx, "Initializing dependencies concurrently...")

	// 2. 並行初始化資源 (Store, Redis, Audit)
	var (
		store         ports.Store
		redisProvider *infraRedis.Provider
		auditLog      *audit.Logger
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := di.ProvideStore(gctx, cfg, app.Logger)
		if err != nil {
			return fmt.Errorf("store init failed: %w", err)
		}
		store = s
		slog.Info("Store initialized", "type", cfg.Storage.Type)
		return nil
	})
	g.Go(func() error {
		p, err := di.InitializeRedisProvider(cfg)
		if err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		redisProvider = p
		if p != nil {
			slog.Info("Redis initialized")
		}
		return nil
	})
	g.Go(func() error {
		l, err := audit.New(cfg.Audit.Path)
		if err != nil {
			return err
		}
		auditLog = l
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("Dependency initialization failed", "error", err)
		closeAll(store, redisProvider, auditLog)
		os.Exit(1)
	}

	// 3. 同步匯流排傳輸層
	transport, err := di.ProvideTransport(cfg, redisProvider, app.Logger)
	if err != nil {
		slog.Error("Sync transport initialization failed", "error", err)
		closeAll(store, redisProvider, auditLog)
		os.Exit(1)
	}

	// 4. 組裝經濟系統 (Wiring)
	economy := di.ProvideEconomy(store, transport, di.EconomyOptions{
		InstanceID:     cfg.App.InstanceID,
		AccountTTL:     cfg.Cache.AccountTTL,
		SweepInterval:  cfg.Cache.SweepInterval,
		LeaderboardTTL: cfg.Leaderboard.TTL,
		Audit:          auditLog,
		Locker:         di.ProvideLocker(redisProvider, app.Logger),
	}, app.Logger)

	// 實例租約 (僅在有 Redis 時啟用)
	var nodes ports.NodeDirectory
	presenceDone := make(chan struct{})
	presence := di.ProvidePresence(redisProvider, cfg.Presence.TTL, app.Logger)
	if presence != nil {
		nodes = presence
	} else {
		close(presenceDone)
	}

	httpServer := handler.NewServer(cfg.App.Port, economy.Service, nodes, app.Logger)
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	// 5. 啟動服務
	runErr := app.Run(ctx, func(ctx context.Context) error {
		if err := economy.Start(ctx); err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		if presence != nil {
			go func() {
				defer close(presenceDone)
				presence.Run(ctx, domain.Node{
					InstanceID: cfg.App.InstanceID,
					Endpoint:   advertiseAddr(cfg.Presence.Advertise, cfg.App.Port),
					StartedAt:  time.Now().UTC(),
				})
			}()
		}
		g.Go(func() error {
			slog.Info("HTTP API listening", "port", cfg.App.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		if cfg.App.GrpcPort != 0 {
			g.Go(func() error {
				lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.GrpcPort))
				if err != nil {
					return fmt.Errorf("failed to listen: %w", err)
				}
				healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
				slog.Info("gRPC health listening", "port", cfg.App.GrpcPort)
				return grpcServer.Serve(lis)
			})
		}
		// 任一服務失敗時 errgroup 會以該錯誤取消 ctx
		<-ctx.Done()
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		return nil
	}, func() {
		healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown failed", "error", err)
		}
		grpcServer.GracefulStop()

		if err := economy.Close(); err != nil {
			slog.Warn("Economy shutdown failed", "error", err)
		}
		// 等待租約移除後才關閉 Redis
		select {
		case <-presenceDone:
		case <-shutdownCtx.Done():
		}
		if redisProvider != nil {
			redisProvider.Close()
		}
	})
	if runErr != nil {
		os.Exit(1)
	}
}

func closeAll(store ports.Store, redisProvider *infraRedis.Provider, auditLog *audit.Logger) {
	if store != nil {
		store.Close()
	}
	if redisProvider != nil {
		redisProvider.Close()
	}
	auditLog.Close()
}

// advertiseAddr 決定公告給其他實例的 HTTP 位址
func advertiseAddr(configured string, port int) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
