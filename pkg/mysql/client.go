package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 定義 MySQL 連線配置
type Config struct {
	DSN             string        // GORM MySQL DSN (user:pass@tcp(host:port)/db?parseTime=True)
	MaxOpenConns    int           // 最大連線數
	MaxIdleConns    int           // 最大閒置連線數
	ConnMaxLifetime time.Duration // 連線最長存活時間
	LogLevel        logger.LogLevel
}

// Client 封裝 gorm.DB
type Client struct {
	db *gorm.DB
}

// NewClient 建立並回傳一個新的 MySQL 客戶端實例
//
// 參數:
//
//	cfg: Config - 連線配置
//
// 回傳值:
//
//	*Client: 封裝後的客戶端
//	error: 若連線失敗則回傳錯誤
func NewClient(cfg Config) (*Client, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// 測試連線
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	return &Client{db: db}, nil
}

// NewFromGorm 以既有的 gorm.DB 建立
func NewFromGorm(db *gorm.DB) *Client {
	return &Client{db: db}
}

// DB 回傳底層的 gorm.DB
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
