package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/postgres"
)

func main() {
	down := flag.Int("down", 0, "roll back N migrations instead of applying")
	configDir := flag.String("config", "./config", "config directory")
	flag.Parse()

	if err := run(*configDir, *down); err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migration run finished successfully")
}

func run(configDir string, down int) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Type != config.StoragePostgres {
		return fmt.Errorf("migrator only supports storage.type=postgres, got %q", cfg.Storage.Type)
	}

	if down > 0 {
		if err := postgres.MigrateDown(cfg.Postgres.DSN, down); err != nil {
			return err
		}
		slog.Info("migrations rolled back", "steps", down)
		return nil
	}

	version, err := postgres.MigrateUp(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "version", version)
	return nil
}
