// Package postgres implements the storage interfaces backed by PostgreSQL.
// Multi-row operations (investment purchase, maturation, deposit approval,
// withdrawal hold and refund, referral reward) run inside a single database
// transaction so partial application cannot occur.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vestapay/platform/internal/app/domain/profile"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.ProfileStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.InvestmentStore = (*Store)(nil)
var _ storage.PaymentStore = (*Store)(nil)
var _ storage.ReferralStore = (*Store)(nil)
var _ storage.GamificationStore = (*Store)(nil)
var _ storage.SettingStore = (*Store)(nil)
var _ storage.SecurityStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if connMaxLifetime > 0 {
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func translateErr(err error, label string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", label, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", label, storage.ErrConflict)
	}
	return err
}

// --- ProfileStore -----------------------------------------------------------

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, display_name, password_hash, referral_code, referred_by, hide_balance, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Email, p.DisplayName, p.PasswordHash, p.ReferralCode, toNullString(p.ReferredBy), p.HideBalance, p.IsAdmin, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, translateErr(err, "profile "+p.Email)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	existing, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		return profile.Profile{}, err
	}

	p.Email = existing.Email
	p.ReferralCode = existing.ReferralCode
	p.ReferredBy = existing.ReferredBy
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = $2, password_hash = $3, hide_balance = $4, is_admin = $5, updated_at = $6
		WHERE id = $1
	`, p.ID, p.DisplayName, p.PasswordHash, p.HideBalance, p.IsAdmin, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", p.ID, storage.ErrNotFound)
	}
	return p, nil
}

const profileColumns = `id, email, display_name, password_hash, referral_code, referred_by, hide_balance, is_admin, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (profile.Profile, error) {
	var (
		p          profile.Profile
		referredBy sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.ReferralCode, &referredBy, &p.HideBalance, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return profile.Profile{}, err
	}
	if referredBy.Valid {
		p.ReferredBy = referredBy.String
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, translateErr(err, "profile "+id)
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, translateErr(err, "profile "+email)
	}
	return p, nil
}

func (s *Store) GetProfileByReferralCode(ctx context.Context, code string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE referral_code = $1`, strings.TrimSpace(code))
	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, translateErr(err, "referral code "+code)
	}
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- WalletStore ------------------------------------------------------------

func (s *Store) CreateWallet(ctx context.Context, w wallet.Wallet) (wallet.Wallet, error) {
	w.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (profile_id, balance, total_invested, total_returns, pending_returns, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ProfileID, w.Balance, w.TotalInvested, w.TotalReturns, w.PendingReturns, w.UpdatedAt)
	if err != nil {
		return wallet.Wallet{}, translateErr(err, "wallet "+w.ProfileID)
	}
	return w, nil
}

func (s *Store) GetWallet(ctx context.Context, profileID string) (wallet.Wallet, error) {
	var w wallet.Wallet
	err := s.db.GetContext(ctx, &w, `
		SELECT profile_id, balance, total_invested, total_returns, pending_returns, updated_at
		FROM wallets WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return wallet.Wallet{}, translateErr(err, "wallet "+profileID)
	}
	return w, nil
}

func (s *Store) ApplyWalletDelta(ctx context.Context, profileID string, d wallet.Delta, tx wallet.Transaction) (wallet.Wallet, wallet.Transaction, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}
	defer dbTx.Rollback()

	w, tx, err := applyWalletDeltaTx(ctx, dbTx, profileID, d, tx)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}
	if err := dbTx.Commit(); err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}
	return w, tx, nil
}

// applyWalletDeltaTx applies a wallet delta and inserts the ledger row within
// the caller's transaction. The balance guard lives in the UPDATE predicate so
// concurrent requests cannot drive the balance negative.
func applyWalletDeltaTx(ctx context.Context, dbTx *sqlx.Tx, profileID string, d wallet.Delta, tx wallet.Transaction) (wallet.Wallet, wallet.Transaction, error) {
	now := time.Now().UTC()

	var w wallet.Wallet
	row := dbTx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $2,
		    total_invested = total_invested + $3,
		    total_returns = total_returns + $4,
		    pending_returns = pending_returns + $5,
		    updated_at = $6
		WHERE profile_id = $1 AND balance + $2 >= 0
		RETURNING profile_id, balance, total_invested, total_returns, pending_returns, updated_at
	`, profileID, d.Balance, d.TotalInvested, d.TotalReturns, d.PendingReturns, now)
	if err := row.Scan(&w.ProfileID, &w.Balance, &w.TotalInvested, &w.TotalReturns, &w.PendingReturns, &w.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing wallet from an insufficient balance.
			var exists bool
			if checkErr := dbTx.QueryRowContext(ctx, `SELECT true FROM wallets WHERE profile_id = $1`, profileID).Scan(&exists); checkErr == nil && exists {
				return wallet.Wallet{}, wallet.Transaction{}, storage.ErrInsufficientBalance
			}
			return wallet.Wallet{}, wallet.Transaction{}, fmt.Errorf("wallet %s: %w", profileID, storage.ErrNotFound)
		}
		return wallet.Wallet{}, wallet.Transaction{}, err
	}

	tx, err := insertTransactionTx(ctx, dbTx, profileID, tx)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}
	return w, tx, nil
}

func insertTransactionTx(ctx context.Context, dbTx *sqlx.Tx, profileID string, tx wallet.Transaction) (wallet.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.ProfileID = profileID
	if tx.Status == "" {
		tx.Status = wallet.StatusCompleted
	}
	tx.CreatedAt = time.Now().UTC()

	_, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, profile_id, type, amount, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tx.ID, tx.ProfileID, tx.Type, tx.Amount, tx.Description, tx.Status, tx.CreatedAt)
	if err != nil {
		return wallet.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, profileID string) ([]wallet.Transaction, error) {
	var result []wallet.Transaction
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, profile_id, type, amount, description, status, created_at
		FROM transactions
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	return result, nil
}
