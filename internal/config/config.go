package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 總配置結構
type Config struct {
	App         AppConfig         `yaml:"app"`
	Storage     StorageConfig     `yaml:"storage"`
	MySQL       MySQLConfig       `yaml:"mysql"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	NATS        NATSConfig        `yaml:"nats"`
	Sync        SyncConfig        `yaml:"sync"`
	Cache       CacheConfig       `yaml:"cache"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Audit       AuditConfig       `yaml:"audit"`
	Presence    PresenceConfig    `yaml:"presence"`
}

type AppConfig struct {
	Name       string `yaml:"name"`
	Env        string `yaml:"env"`
	Port       int    `yaml:"port"`        // HTTP API Port
	GrpcPort   int    `yaml:"grpc_port"`   // gRPC Health Port
	InstanceID string `yaml:"instance_id"` // 空值時於啟動時產生
}

// StorageConfig 持久層選擇
type StorageConfig struct {
	Type        string `yaml:"type"` // mysql | postgres | memory
	TablePrefix string `yaml:"table_prefix"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig Redis 全域設定；DB 以用途 (sync, lock) 對應到資料庫編號
type RedisConfig struct {
	Addr     string                   `yaml:"addr"`
	Password string                   `yaml:"password"`
	DB       map[string]RedisDBConfig `yaml:"db"`
}

type RedisDBConfig struct {
	Index int `yaml:"index"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// SyncConfig 跨實例同步
type SyncConfig struct {
	Transport string `yaml:"transport"` // redis | nats | local
	Channel   string `yaml:"channel"`
}

type CacheConfig struct {
	AccountTTL    time.Duration `yaml:"account_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LeaderboardConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type AuditConfig struct {
	Path string `yaml:"path"` // 空值時輸出到 stdout
}

// PresenceConfig 實例租約 (需要 Redis)
type PresenceConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	Advertise string        `yaml:"advertise"` // 對外公告的 HTTP 位址，空值時使用 hostname:port
}

// 儲存類型
const (
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// 同步傳輸類型
const (
	TransportRedis = "redis"
	TransportNATS  = "nats"
	TransportLocal = "local"
)

// Load 讀取設定檔
// 優先讀取 config/config.yaml，然後使用環境變數覆蓋，最後補上預設值
func Load(configPath ...string) (*Config, error) {
	// 1. 決定設定檔路徑
	dir := "./config"
	if len(configPath) > 0 {
		dir = configPath[0]
	}
	fullPath := filepath.Join(dir, "config.yaml")

	var cfg Config

	// 2. 讀取 YAML 檔案；找不到檔案時全靠環境變數
	data, err := os.ReadFile(fullPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml at %s: %w", fullPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file at %s: %w", fullPath, err)
	}

	// 3. 環境變數覆蓋 (Environment Variable Override)
	overrideWithEnv(&cfg)

	// 4. 預設值
	cfg.Defaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults 補上未設定的欄位
func (c *Config) Defaults() {
	if c.App.Name == "" {
		c.App.Name = "gems-ledger"
	}
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	if c.Storage.TablePrefix == "" {
		c.Storage.TablePrefix = "gemseconomy"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.Sync.Transport == "" {
		c.Sync.Transport = TransportLocal
	}
	if c.Sync.Channel == "" {
		c.Sync.Channel = "gemseconomy:sync"
	}
	if c.Cache.AccountTTL <= 0 {
		c.Cache.AccountTTL = 10 * time.Minute
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = time.Minute
	}
	if c.Leaderboard.TTL <= 0 {
		c.Leaderboard.TTL = 5 * time.Minute
	}
	if c.Presence.TTL <= 0 {
		c.Presence.TTL = 15 * time.Second
	}
}

// Validate 檢查設定組合是否合法
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMySQL, StorageMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when storage.type is postgres")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}

	switch c.Sync.Transport {
	case TransportLocal:
	case TransportRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required when sync.transport is redis")
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			return errors.New("nats.url is required when sync.transport is nats")
		}
	default:
		return fmt.Errorf("unknown sync.transport %q", c.Sync.Transport)
	}
	return nil
}

// IsProduction 是否為正式環境
func (c *Config) IsProduction() bool {
	return c.App.Env == "prod" || c.App.Env == "production"
}

// MySQLDSN 組出 GORM MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQL.User, c.MySQL.Password, c.MySQL.Host, c.MySQL.Port, c.MySQL.DBName)
}

func overrideWithEnv(cfg *Config) {
	// App
	if env := os.Getenv(EnvAppEnv); env != "" {
		cfg.App.Env = env
	}
	if portVal := os.Getenv(EnvPort); portVal != "" {
		if p, err := strconv.Atoi(portVal); err == nil {
			cfg.App.Port = p
		}
	}
	if grpcPortVal := os.Getenv(EnvGrpcPort); grpcPortVal != "" {
		if p, err := strconv.Atoi(grpcPortVal); err == nil {
			cfg.App.GrpcPort = p
		}
	}
	if val := os.Getenv(EnvInstanceID); val != "" {
		cfg.App.InstanceID = val
	}

	// Storage
	if val := os.Getenv(EnvStorageType); val != "" {
		cfg.Storage.Type = val
	}

	// MySQL
	if val := os.Getenv(EnvMySQLHost); val != "" {
		cfg.MySQL.Host = val
	}
	if val := os.Getenv(EnvMySQLPassword); val != "" {
		cfg.MySQL.Password = val
	}
	if val := os.Getenv(EnvMySQLUser); val != "" {
		cfg.MySQL.User = val
	}
	if val := os.Getenv(EnvMySQLDB); val != "" {
		cfg.MySQL.DBName = val
	}
	if val := os.Getenv(EnvMySQLPort); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.MySQL.Port = p
		}
	}

	// Postgres
	if val := os.Getenv(EnvPostgresDSN); val != "" {
		cfg.Postgres.DSN = val
	}

	// Redis
	if val := os.Getenv(EnvRedisAddr); val != "" {
		cfg.Redis.Addr = val
	}
	if val := os.Getenv(EnvRedisPassword); val != "" {
		cfg.Redis.Password = val
	}

	// NATS
	if val := os.Getenv(EnvNATSURL); val != "" {
		cfg.NATS.URL = val
	}

	// Sync
	if val := os.Getenv(EnvSyncTransport); val != "" {
		cfg.Sync.Transport = val
	}

	// Audit
	if val := os.Getenv(EnvAuditPath); val != "" {
		cfg.Audit.Path = val
	}
}
