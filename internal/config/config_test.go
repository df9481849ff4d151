package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/config"
)

// clearEnv 避免執行環境的變數影響測試結果
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAppEnv, config.EnvPort, config.EnvGrpcPort, config.EnvInstanceID,
		config.EnvStorageType, config.EnvRedisAddr, config.EnvRedisPassword,
		config.EnvMySQLHost, config.EnvMySQLUser, config.EnvMySQLDB, config.EnvMySQLPort, config.EnvMySQLPassword,
		config.EnvPostgresDSN, config.EnvNATSURL, config.EnvSyncTransport, config.EnvAuditPath,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gems-ledger", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Type)
	assert.Equal(t, "gemseconomy", cfg.Storage.TablePrefix)
	assert.Equal(t, config.TransportLocal, cfg.Sync.Transport)
	assert.Equal(t, "gemseconomy:sync", cfg.Sync.Channel)
	assert.Equal(t, 10*time.Minute, cfg.Cache.AccountTTL)
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.Leaderboard.TTL)
	assert.Equal(t, 15*time.Second, cfg.Presence.TTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, `
app:
  name: ledger-test
  env: prod
  port: 9000
storage:
  type: mysql
  table_prefix: eco
mysql:
  host: db
  user: root
  password: secret
  dbname: economy
redis:
  addr: redis:6379
  db:
    sync:
      index: 1
    lock:
      index: 2
sync:
  transport: redis
cache:
  account_ttl: 30s
leaderboard:
  ttl: 1m
`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ledger-test", cfg.App.Name)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "eco", cfg.Storage.TablePrefix)
	assert.Equal(t, 2, cfg.Redis.DB["lock"].Index)
	assert.Equal(t, 30*time.Second, cfg.Cache.AccountTTL)
	assert.Equal(t, time.Minute, cfg.Leaderboard.TTL)
	assert.Equal(t, "root:secret@tcp(db:3306)/economy?charset=utf8mb4&parseTime=True&loc=Local", cfg.MySQLDSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, `
app:
  port: 9000
sync:
  transport: local
`)
	t.Setenv(config.EnvPort, "9100")
	t.Setenv(config.EnvStorageType, config.StoragePostgres)
	t.Setenv(config.EnvPostgresDSN, "postgres://u:p@localhost:5432/eco")
	t.Setenv(config.EnvSyncTransport, config.TransportNATS)
	t.Setenv(config.EnvNATSURL, "nats://localhost:4222")
	t.Setenv(config.EnvInstanceID, "pod-1")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, config.StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://u:p@localhost:5432/eco", cfg.Postgres.DSN)
	assert.Equal(t, config.TransportNATS, cfg.Sync.Transport)
	assert.Equal(t, "pod-1", cfg.App.InstanceID)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, "app: [unclosed")

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"defaults", func(c *config.Config) {}, false},
		{"postgres without dsn", func(c *config.Config) { c.Storage.Type = config.StoragePostgres }, true},
		{"unknown storage", func(c *config.Config) { c.Storage.Type = "sqlite" }, true},
		{"redis without addr", func(c *config.Config) { c.Sync.Transport = config.TransportRedis }, true},
		{"redis with addr", func(c *config.Config) {
			c.Sync.Transport = config.TransportRedis
			c.Redis.Addr = "localhost:6379"
		}, false},
		{"nats without url", func(c *config.Config) { c.Sync.Transport = config.TransportNATS }, true},
		{"unknown transport", func(c *config.Config) { c.Sync.Transport = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			cfg.Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
