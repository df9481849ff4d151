package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	mysqlpkg "github.com/JoeShih716/go-gems-ledger/pkg/mysql"
)

// ensure interface compliance
var _ ports.Store = (*Store)(nil)

// Store 實作 ports.Store (MySQL, GORM)
type Store struct {
	client          *mysqlpkg.Client
	accountsTable   string
	currenciesTable string
	logger          *slog.Logger
}

// NewStore 建立 MySQL Store
//
// 參數:
//
//	client: *mysqlpkg.Client - MySQL 客戶端
//	tablePrefix: string - 資料表前綴 (e.g. "gemseconomy" -> gemseconomy_accounts)
//	logger: *slog.Logger - 日誌
func NewStore(client *mysqlpkg.Client, tablePrefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:          client,
		accountsTable:   tablePrefix + "_accounts",
		currenciesTable: tablePrefix + "_currencies",
		logger:          logger,
	}
}

// Migrate 建立或更新資料表
func (s *Store) Migrate(ctx context.Context) error {
	db := s.client.DB().WithContext(ctx)
	if err := db.Table(s.currenciesTable).AutoMigrate(&currencyRecord{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.currenciesTable, err)
	}
	if err := db.Table(s.accountsTable).AutoMigrate(&accountRecord{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.accountsTable, err)
	}
	return nil
}

func (s *Store) accounts(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx).Table(s.accountsTable)
}

func (s *Store) currencies(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx).Table(s.currenciesTable)
}

// LoadAccount 根據 ID 取得帳戶
func (s *Store) LoadAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var rec accountRecord
	err := s.accounts(ctx).Where("uuid = ?", id.String()).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil if not found
		}
		return nil, err
	}
	return rec.toDomain()
}

// LoadAccountByName 根據暱稱取得帳戶 (MySQL 預設 collation 不分大小寫)
func (s *Store) LoadAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	var rec accountRecord
	err := s.accounts(ctx).Where("nickname = ?", name).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain()
}

// CreateAccount 建立帳戶
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.SaveAccount(ctx, account)
}

// SaveAccount 儲存帳戶 (Upsert)
func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	rec, err := toAccountRecord(account)
	if err != nil {
		return err
	}
	return s.accounts(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "payable", "balance_data"}),
	}).Create(&rec).Error
}

// DeleteAccount 根據 ID 刪除帳戶
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.accounts(ctx).Where("uuid = ?", id.String()).Delete(&accountRecord{}).Error
}

// DeleteAccountByName 根據暱稱刪除帳戶
func (s *Store) DeleteAccountByName(ctx context.Context, name string) error {
	return s.accounts(ctx).Where("nickname = ?", name).Delete(&accountRecord{}).Error
}

// OfflineAccounts 讀取所有帳戶；資料損毀的帳戶會被略過並記錄
func (s *Store) OfflineAccounts(ctx context.Context) ([]*domain.Account, error) {
	var recs []accountRecord
	if err := s.accounts(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(recs))
	for _, rec := range recs {
		acc, err := rec.toDomain()
		if err != nil {
			s.logger.Warn("Skipping malformed account", "account_id", rec.UUID, "error", err)
			continue
		}
		out = append(out, acc)
	}
	return out, nil
}

// LoadCurrencies 讀取所有貨幣
func (s *Store) LoadCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	var recs []currencyRecord
	if err := s.currencies(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Currency, 0, len(recs))
	for _, rec := range recs {
		c, err := rec.toDomain()
		if err != nil {
			s.logger.Warn("Skipping malformed currency", "currency_id", rec.UUID, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadCurrency 根據 ID 讀取貨幣
func (s *Store) LoadCurrency(ctx context.Context, id uuid.UUID) (*domain.Currency, error) {
	var rec currencyRecord
	err := s.currencies(ctx).Where("uuid = ?", id.String()).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain()
}

// SaveCurrency 儲存貨幣 (Upsert)
func (s *Store) SaveCurrency(ctx context.Context, currency *domain.Currency) error {
	rec := toCurrencyRecord(currency)
	return s.currencies(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

// DeleteCurrency 刪除貨幣
func (s *Store) DeleteCurrency(ctx context.Context, currency *domain.Currency) error {
	return s.currencies(ctx).Where("uuid = ?", currency.ID.String()).Delete(&currencyRecord{}).Error
}

// TopSupported MySQL 支援排行
func (s *Store) TopSupported() bool {
	return true
}

// ScanBalances 掃描所有帳戶在指定貨幣的餘額。
// 餘額以 JSON 保存，因此在應用端解析；只取必要欄位。
func (s *Store) ScanBalances(ctx context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error) {
	rows, err := s.accounts(ctx).Select("uuid", "nickname", "balance_data").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopEntry
	for rows.Next() {
		var id string
		var nickname, data sql.NullString
		if err := rows.Scan(&id, &nickname, &data); err != nil {
			return nil, err
		}
		balances, err := domain.DecodeBalances([]byte(data.String))
		if err != nil {
			continue
		}
		amount, ok := balances[currencyID]
		if !ok {
			continue
		}
		name := nickname.String
		if name == "" {
			name = id
		}
		out = append(out, domain.TopEntry{Name: name, Amount: amount})
	}
	return out, rows.Err()
}

// Close 關閉連線
func (s *Store) Close() error {
	return s.client.Close()
}
