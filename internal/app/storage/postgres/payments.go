package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vestapay/platform/internal/app/domain/payment"
	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage"
)

// --- PaymentStore: deposits -------------------------------------------------

func (s *Store) CreateDeposit(ctx context.Context, d payment.Deposit) (payment.Deposit, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Status = payment.StatusPending
	d.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deposits (id, profile_id, amount, method, reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.ProfileID, d.Amount, d.Method, d.Reference, d.Status, d.CreatedAt)
	if err != nil {
		return payment.Deposit{}, translateErr(err, "deposit "+d.ID)
	}
	return d, nil
}

const depositColumns = `id, profile_id, amount, method, reference, status, reviewed_by, reviewed_at, created_at`

func scanDeposit(row interface{ Scan(...any) error }) (payment.Deposit, error) {
	var (
		d          payment.Deposit
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.ProfileID, &d.Amount, &d.Method, &d.Reference, &d.Status, &reviewedBy, &reviewedAt, &d.CreatedAt); err != nil {
		return payment.Deposit{}, err
	}
	if reviewedBy.Valid {
		d.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		d.ReviewedAt = reviewedAt.Time.UTC()
	}
	return d, nil
}

func (s *Store) GetDeposit(ctx context.Context, id string) (payment.Deposit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id)
	d, err := scanDeposit(row)
	if err != nil {
		return payment.Deposit{}, translateErr(err, "deposit "+id)
	}
	return d, nil
}

func (s *Store) ListDeposits(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE ($1 = '' OR profile_id = $1) AND ($2 = false OR status = $3)
		ORDER BY created_at DESC
	`, profileID, pendingOnly, payment.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payment.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) ApproveDeposit(ctx context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Deposit, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.Deposit{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	now := time.Now().UTC()
	row := dbTx.QueryRowContext(ctx, `
		UPDATE deposits
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+depositColumns+`
	`, id, payment.StatusApproved, reviewerID, now, payment.StatusPending)
	d, err := scanDeposit(row)
	if err != nil {
		return payment.Deposit{}, wallet.Wallet{}, pendingGuardErr(ctx, dbTx, err, "deposits", "deposit", id)
	}

	w, _, err := applyWalletDeltaTx(ctx, dbTx, d.ProfileID, wallet.Delta{Balance: d.Amount}, tx)
	if err != nil {
		return payment.Deposit{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return payment.Deposit{}, wallet.Wallet{}, err
	}
	return d, w, nil
}

func (s *Store) RejectDeposit(ctx context.Context, id, reviewerID string) (payment.Deposit, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE deposits
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+depositColumns+`
	`, id, payment.StatusRejected, reviewerID, time.Now().UTC(), payment.StatusPending)
	d, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var status string
			if checkErr := s.db.QueryRowContext(ctx, `SELECT status FROM deposits WHERE id = $1`, id).Scan(&status); checkErr == nil {
				return payment.Deposit{}, fmt.Errorf("deposit %s already %s: %w", id, status, storage.ErrConflict)
			}
			return payment.Deposit{}, fmt.Errorf("deposit %s: %w", id, storage.ErrNotFound)
		}
		return payment.Deposit{}, err
	}
	return d, nil
}

// pendingGuardErr resolves a no-rows result from a status-guarded UPDATE into
// ErrConflict (row exists but left pending) or ErrNotFound.
func pendingGuardErr(ctx context.Context, dbTx *sqlx.Tx, err error, table, label, id string) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var status string
	if checkErr := dbTx.QueryRowContext(ctx, `SELECT status FROM `+table+` WHERE id = $1`, id).Scan(&status); checkErr == nil {
		return fmt.Errorf("%s %s already %s: %w", label, id, status, storage.ErrConflict)
	}
	return fmt.Errorf("%s %s: %w", label, id, storage.ErrNotFound)
}

// --- PaymentStore: withdrawals ----------------------------------------------

func (s *Store) CreateWithdrawal(ctx context.Context, w payment.Withdrawal, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	// Hold the amount up front; rejection later refunds it.
	wal, _, err := applyWalletDeltaTx(ctx, dbTx, w.ProfileID, wallet.Delta{Balance: -w.Amount}, tx)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Status = payment.StatusPending
	w.CreatedAt = time.Now().UTC()
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, profile_id, amount, destination, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.ProfileID, w.Amount, w.Destination, w.Status, w.CreatedAt)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}
	return w, wal, nil
}

const withdrawalColumns = `id, profile_id, amount, destination, status, reviewed_by, reviewed_at, created_at`

func scanWithdrawal(row interface{ Scan(...any) error }) (payment.Withdrawal, error) {
	var (
		w          payment.Withdrawal
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&w.ID, &w.ProfileID, &w.Amount, &w.Destination, &w.Status, &reviewedBy, &reviewedAt, &w.CreatedAt); err != nil {
		return payment.Withdrawal{}, err
	}
	if reviewedBy.Valid {
		w.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		w.ReviewedAt = reviewedAt.Time.UTC()
	}
	return w, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (payment.Withdrawal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	w, err := scanWithdrawal(row)
	if err != nil {
		return payment.Withdrawal{}, translateErr(err, "withdrawal "+id)
	}
	return w, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Withdrawal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE ($1 = '' OR profile_id = $1) AND ($2 = false OR status = $3)
		ORDER BY created_at DESC
	`, profileID, pendingOnly, payment.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payment.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (s *Store) ApproveWithdrawal(ctx context.Context, id, reviewerID string) (payment.Withdrawal, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE withdrawals
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+withdrawalColumns+`
	`, id, payment.StatusApproved, reviewerID, time.Now().UTC(), payment.StatusPending)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var status string
			if checkErr := s.db.QueryRowContext(ctx, `SELECT status FROM withdrawals WHERE id = $1`, id).Scan(&status); checkErr == nil {
				return payment.Withdrawal{}, fmt.Errorf("withdrawal %s already %s: %w", id, status, storage.ErrConflict)
			}
			return payment.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, storage.ErrNotFound)
		}
		return payment.Withdrawal{}, err
	}
	return w, nil
}

func (s *Store) RejectWithdrawal(ctx context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx, `
		UPDATE withdrawals
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+withdrawalColumns+`
	`, id, payment.StatusRejected, reviewerID, time.Now().UTC(), payment.StatusPending)
	w, err := scanWithdrawal(row)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, pendingGuardErr(ctx, dbTx, err, "withdrawals", "withdrawal", id)
	}

	// Release the hold taken at submission.
	wal, _, err := applyWalletDeltaTx(ctx, dbTx, w.ProfileID, wallet.Delta{Balance: w.Amount}, tx)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}
	return w, wal, nil
}

// --- ReferralStore ----------------------------------------------------------

func (s *Store) CreateReferral(ctx context.Context, r referral.Referral) (referral.Referral, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = referral.StatusPending
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_id, reward_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.ReferrerID, r.ReferredID, r.RewardAmount, r.Status, r.CreatedAt)
	if err != nil {
		return referral.Referral{}, translateErr(err, "referral "+r.ReferredID)
	}
	return r, nil
}

const referralColumns = `id, referrer_id, referred_id, reward_amount, status, rewarded_at, created_at`

func scanReferral(row interface{ Scan(...any) error }) (referral.Referral, error) {
	var (
		r          referral.Referral
		rewardedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.RewardAmount, &r.Status, &rewardedAt, &r.CreatedAt); err != nil {
		return referral.Referral{}, err
	}
	if rewardedAt.Valid {
		r.RewardedAt = rewardedAt.Time.UTC()
	}
	return r, nil
}

func (s *Store) GetPendingReferralByReferred(ctx context.Context, referredID string) (referral.Referral, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+referralColumns+` FROM referrals
		WHERE referred_id = $1 AND status = $2
	`, referredID, referral.StatusPending)
	r, err := scanReferral(row)
	if err != nil {
		return referral.Referral{}, translateErr(err, "referral for "+referredID)
	}
	return r, nil
}

func (s *Store) RewardReferral(ctx context.Context, id string, tx wallet.Transaction) (referral.Referral, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return referral.Referral{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx, `
		UPDATE referrals
		SET status = $2, rewarded_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+referralColumns+`
	`, id, referral.StatusRewarded, time.Now().UTC(), referral.StatusPending)
	r, err := scanReferral(row)
	if err != nil {
		return referral.Referral{}, wallet.Wallet{}, pendingGuardErr(ctx, dbTx, err, "referrals", "referral", id)
	}

	w, _, err := applyWalletDeltaTx(ctx, dbTx, r.ReferrerID, wallet.Delta{Balance: r.RewardAmount}, tx)
	if err != nil {
		return referral.Referral{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return referral.Referral{}, wallet.Wallet{}, err
	}
	return r, w, nil
}

func (s *Store) ListReferrals(ctx context.Context, referrerID string) ([]referral.Referral, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+referralColumns+` FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []referral.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
