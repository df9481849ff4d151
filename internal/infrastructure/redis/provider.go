package redis

import (
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
	pkgRedis "github.com/JoeShih716/go-gems-ledger/pkg/redis"
)

type DBName string

const (
	DBNameSync DBName = "sync"
	DBNameLock DBName = "lock"
	// DBNamePresence 實例租約，未設定時共用 sync DB
	DBNamePresence DBName = "presence"
)

// DBSupplier defines the interface for retrieving specific Redis DB clients
type DBSupplier interface {
	GetSync() *pkgRedis.Client
	GetLock() *pkgRedis.Client
	GetPresence() *pkgRedis.Client
	Close() error
}

type Provider struct {
	databases map[DBName]*pkgRedis.Client
}

// NewProvider creates clients for all configured redis databases
func NewProvider(globalCfg config.RedisConfig) (*Provider, error) {
	clients := make(map[DBName]*pkgRedis.Client)

	// Iterate over the configured databases (e.g., "sync", "lock")
	for dbKey, dbConfig := range globalCfg.DB {
		// Combine global settings (Addr, Password) with specific DB index
		client, err := pkgRedis.NewClient(pkgRedis.Config{
			Addr:     globalCfg.Addr,
			Password: globalCfg.Password,
			DB:       dbConfig.Index,
		})
		if err != nil {
			// If one fails, close already created ones and return error
			for _, c := range clients {
				c.Close()
			}
			return nil, fmt.Errorf("failed to init redis db '%s': %w", dbKey, err)
		}

		clients[DBName(dbKey)] = client
	}

	return &Provider{databases: clients}, nil
}

// GetSync returns the client used for the sync bus channel
func (p *Provider) GetSync() *pkgRedis.Client {
	if client, ok := p.databases[DBNameSync]; ok {
		return client
	}
	slog.Warn("Redis Sync DB not found in config")
	return nil
}

// GetLock returns the client used for maintenance locks, falling back to the sync DB
func (p *Provider) GetLock() *pkgRedis.Client {
	if client, ok := p.databases[DBNameLock]; ok {
		return client
	}
	return p.GetSync()
}

// GetPresence returns the client used for node leases, falling back to the sync DB
func (p *Provider) GetPresence() *pkgRedis.Client {
	if client, ok := p.databases[DBNamePresence]; ok {
		return client
	}
	return p.GetSync()
}

func (p *Provider) Close() error {
	for _, client := range p.databases {
		client.Close()
	}
	return nil
}
