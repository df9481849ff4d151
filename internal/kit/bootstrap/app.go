package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
)

// App 封裝了應用程式的基礎組件
type App struct {
	Name   string
	Config *config.Config
	Logger *slog.Logger
}

// NewApp 建立一個新的應用程式實例
//
// 1. 初始化 Default Logger
// 2. 載入 Config (config.yaml + Env Override)
// 3. 依環境切換 Logger 格式，並附上實例 ID
func NewApp(appName string, configPath ...string) (*App, error) {
	// 1. 初始化基礎 Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 2. 載入設定
	cfg, err := config.Load(configPath...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.InstanceID == "" {
		cfg.App.InstanceID = uuid.NewString()
	}

	// 3. 根據環境重新配置 Logger
	// Production -> JSON (Structured Logging)
	// Others     -> Text (Readable)
	logger = slog.New(NewHandler(cfg.App.Env)).With("instance", cfg.App.InstanceID)
	slog.SetDefault(logger) // 更新 Default Logger

	return &App{
		Name:   appName,
		Config: cfg,
		Logger: logger,
	}, nil
}

// NewHandler 依環境回傳 slog.Handler
func NewHandler(env string) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, nil)
	case "debug":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		return slog.NewTextHandler(os.Stdout, nil)
	}
}

// Run 啟動應用程式並等待停止信號
//
// startFunc: 啟動服務的邏輯 (Blocking operation like http.ListenAndServe or grpc.Serve)
// cleanupFunc: 收到停止信號或服務異常結束後的清理邏輯
func (a *App) Run(ctx context.Context, startFunc func(ctx context.Context) error, cleanupFunc func()) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	// 背景啟動服務
	go func() {
		a.Logger.Info("Starting service", "app", a.Name, "env", a.Config.App.Env)
		errCh <- startFunc(ctx)
	}()

	// 等待停止信號
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			a.Logger.Error("Service stopped unexpectedly", "error", runErr)
		}
	}

	a.Logger.Info("Shutting down service...", "app", a.Name)
	if cleanupFunc != nil {
		cleanupFunc()
	}
	a.Logger.Info("Service exited", "app", a.Name)
	return runErr
}
