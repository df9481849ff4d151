package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config 定義 Redis 連線配置
type Config struct {
	Addr     string // Redis 伺服器地址 (e.g., "localhost:6379")
	Password string // Redis 密碼 (若無則留空)
	DB       int    // 使用的資料庫編號
}

// Client 封裝 redis.Client 以提供更簡易的介面
type Client struct {
	rdb *redis.Client
}

// NewClient 建立並回傳一個新的 Redis 客戶端實例
//
// 參數:
//
//	cfg: Config - Redis 連線配置資訊
//
// 回傳值:
//
//	*Client: 封裝後的 Redis 客戶端實例
//	error: 若連線失敗則回傳錯誤
func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連線
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis 以既有的 redis.Client 建立 (測試用)
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close 關閉 Redis 連線
//
// 回傳值:
//
//	error: 若關閉失敗則回傳錯誤
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping 檢查連線狀態 (Health Check 用)
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ErrNil 鍵不存在
var ErrNil = redis.Nil

// IsNil 判斷錯誤是否為「鍵不存在」
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// SetStruct 將結構序列化為 JSON 後寫入
//
// 參數:
//
//	ctx: context.Context - 上下文
//	key: string - 鍵名
//	value: any - 要寫入的結構
//	expiration: time.Duration - 過期時間 (0 為不過期)
func (c *Client) SetStruct(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, expiration).Err()
}

// GetStruct 讀取 JSON 並反序列化到 dest；鍵不存在時回傳 ErrNil
func (c *Client) GetStruct(ctx context.Context, key string, dest any) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Expire 更新鍵的過期時間；回傳 false 代表鍵已不存在
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return c.rdb.Expire(ctx, key, expiration).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) SAdd(ctx context.Context, key string, members ...any) error {
	return c.rdb.SAdd(ctx, key, members...).Err()
}

func (c *Client) SRem(ctx context.Context, key string, members ...any) error {
	return c.rdb.SRem(ctx, key, members...).Err()
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.rdb.SMembers(ctx, key).Result()
}

// AcquireLock 嘗試獲取分散式鎖 (使用 SETNX)
//
// 參數:
//
//	ctx: context.Context - 上下文
//	key: string - 鎖的鍵名
//	value: string - 鎖的持有者標識 (通常是 uuid，用於釋放時驗證)
//	expiration: time.Duration - 鎖的自動過期時間，持有者當機時避免永遠鎖住
//
// 回傳值:
//
//	bool: 是否成功獲取鎖
//	error: Redis 系統錯誤
func (c *Client) AcquireLock(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, expiration).Result()
}

// releaseScript 只有當鎖的值與持有者相符時才刪除
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// ReleaseLock 釋放分散式鎖
// 只有當鎖的值與傳入的 value 相符時才會刪除，確保不會釋放別人的鎖。
//
// 參數:
//
//	ctx: context.Context - 上下文
//	key: string - 鎖的鍵名
//	value: string - 鎖的持有者標識
func (c *Client) ReleaseLock(ctx context.Context, key string, value string) error {
	return releaseScript.Run(ctx, c.rdb, []string{key}, value).Err()
}
