package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/memory"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/mysql"
	"github.com/JoeShih716/go-gems-ledger/internal/infrastructure/persistence/postgres"
	mysqlpkg "github.com/JoeShih716/go-gems-ledger/pkg/mysql"
)

// ProvideStore selects the durable store by storage.type
func ProvideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.Store, error) {
	switch cfg.Storage.Type {
	case config.StorageMySQL:
		client, err := mysqlpkg.NewClient(mysqlpkg.Config{DSN: cfg.MySQLDSN()})
		if err != nil {
			return nil, err
		}
		store := mysql.NewStore(client, cfg.Storage.TablePrefix, logger)
		if err := store.Migrate(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return store, nil

	case config.StoragePostgres:
		return postgres.Connect(ctx, cfg.Postgres.DSN, logger)

	case config.StorageMemory:
		logger.Warn("Using in-memory store, balances will not survive a restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
