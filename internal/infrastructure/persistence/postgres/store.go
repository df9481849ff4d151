package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// ensure interface compliance
var _ ports.Store = (*Store)(nil)

const (
	accountColumns  = `uuid::text, COALESCE(nickname, ''), payable, balance_data::text`
	currencyColumns = `uuid::text, name_singular, name_plural, default_balance::text,
		COALESCE(max_balance::text, ''), symbol, decimals_supported, is_default, payable, color, exchange_rate::text`
)

// Store 實作 ports.Store (PostgreSQL, pgx)。
// 資料表由 MigrateUp 建立；餘額以 JSONB 保存，排行掃描在資料庫端取出單一貨幣的餘額。
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect 建立連線池
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStore(pool, logger), nil
}

// NewStore 以既有的連線池建立 Store
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

func (s *Store) LoadAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM gemseconomy_accounts WHERE uuid = $1::uuid`, id.String())
	return scanAccount(row)
}

func (s *Store) LoadAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM gemseconomy_accounts WHERE lower(nickname) = lower($1) LIMIT 1`, name)
	return scanAccount(row)
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.SaveAccount(ctx, account)
}

func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	data, err := domain.EncodeBalances(account.Balances())
	if err != nil {
		return err
	}
	var nickname *string
	if n := account.Nickname(); n != "" {
		nickname = &n
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO gemseconomy_accounts (uuid, nickname, payable, balance_data)
		VALUES ($1::uuid, $2, $3, $4::jsonb)
		ON CONFLICT (uuid) DO UPDATE
		SET nickname = EXCLUDED.nickname, payable = EXCLUDED.payable, balance_data = EXCLUDED.balance_data`,
		account.ID.String(), nickname, account.Payable(), string(data))
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.ID, err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM gemseconomy_accounts WHERE uuid = $1::uuid`, id.String())
	return err
}

func (s *Store) DeleteAccountByName(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM gemseconomy_accounts WHERE lower(nickname) = lower($1)`, name)
	return err
}

func (s *Store) OfflineAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM gemseconomy_accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedBalances) {
				s.logger.Warn("Skipping malformed account", "error", err)
				continue
			}
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) LoadCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+currencyColumns+` FROM gemseconomy_currencies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) LoadCurrency(ctx context.Context, id uuid.UUID) (*domain.Currency, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+currencyColumns+` FROM gemseconomy_currencies WHERE uuid = $1::uuid`, id.String())
	c, err := scanCurrency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *Store) SaveCurrency(ctx context.Context, currency *domain.Currency) error {
	st := currency.Settings()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gemseconomy_currencies (uuid, name_singular, name_plural, default_balance, max_balance,
			symbol, decimals_supported, is_default, payable, color, exchange_rate)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11::numeric)
		ON CONFLICT (uuid) DO UPDATE SET
			name_singular = EXCLUDED.name_singular,
			name_plural = EXCLUDED.name_plural,
			default_balance = EXCLUDED.default_balance,
			max_balance = EXCLUDED.max_balance,
			symbol = EXCLUDED.symbol,
			decimals_supported = EXCLUDED.decimals_supported,
			is_default = EXCLUDED.is_default,
			payable = EXCLUDED.payable,
			color = EXCLUDED.color,
			exchange_rate = EXCLUDED.exchange_rate`,
		currency.ID.String(), st.Singular, st.Plural, st.DefaultBalance.String(), st.MaxBalance.String(),
		st.Symbol, st.DecimalSupported, st.Default, st.Payable, st.Color, st.ExchangeRate.String())
	if err != nil {
		return fmt.Errorf("save currency %s: %w", currency.ID, err)
	}
	return nil
}

func (s *Store) DeleteCurrency(ctx context.Context, currency *domain.Currency) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM gemseconomy_currencies WHERE uuid = $1::uuid`, currency.ID.String())
	return err
}

func (s *Store) TopSupported() bool {
	return true
}

// ScanBalances 只取出含有該貨幣的帳戶與其餘額
func (s *Store) ScanBalances(ctx context.Context, currencyID uuid.UUID) ([]domain.TopEntry, error) {
	key := currencyID.String()
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(nickname, ''), uuid::text), balance_data->>$1
		FROM gemseconomy_accounts
		WHERE jsonb_exists(balance_data, $1)`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopEntry
	for rows.Next() {
		var name string
		var raw *string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		amount, err := decimal.NewFromString(*raw)
		if err != nil {
			continue
		}
		out = append(out, domain.TopEntry{Name: name, Amount: amount})
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var id, nickname, data string
	var payable bool
	if err := row.Scan(&id, &nickname, &payable, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	balances, err := domain.DecodeBalances([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", id, err)
	}
	return domain.RestoreAccount(accountID, nickname, payable, balances), nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var (
		id, singular, plural, defBalance, maxBalance, symbol, color, rate string
		decimals, isDefault, payable                                   bool
	)
	if err := row.Scan(&id, &singular, &plural, &defBalance, &maxBalance, &symbol,
		&decimals, &isDefault, &payable, &color, &rate); err != nil {
		return nil, err
	}
	currencyID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	settings := domain.CurrencySettings{
		Singular:         singular,
		Plural:           plural,
		Symbol:           symbol,
		DefaultBalance:   decimal.RequireFromString(defBalance),
		MaxBalance:       domain.DefaultMaxBalance,
		DecimalSupported: decimals,
		Payable:          payable,
		Default:          isDefault,
		Color:            color,
		ExchangeRate:     decimal.RequireFromString(rate),
	}
	if maxBalance != "" {
		if v, err := decimal.NewFromString(maxBalance); err == nil && v.IsPositive() {
			settings.MaxBalance = v
		}
	}
	return domain.RestoreCurrency(currencyID, settings), nil
}
