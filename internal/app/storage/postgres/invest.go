package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vestapay/platform/internal/app/domain/investment"
	"github.com/vestapay/platform/internal/app/domain/product"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage"
)

// --- ProductStore -----------------------------------------------------------

func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, expected_return, duration_days, total_units, units_sold, active, popular, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.Name, p.Price, p.ExpectedReturn, p.DurationDays, p.TotalUnits, p.UnitsSold, p.Active, p.Popular, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return product.Product{}, translateErr(err, "product "+p.Name)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	existing, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return product.Product{}, err
	}
	p.UnitsSold = existing.UnitsSold
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, expected_return = $4, duration_days = $5, total_units = $6, active = $7, popular = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Price, p.ExpectedReturn, p.DurationDays, p.TotalUnits, p.Active, p.Popular, p.UpdatedAt)
	if err != nil {
		return product.Product{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return product.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (product.Product, error) {
	var p product.Product
	err := s.db.GetContext(ctx, &p, `
		SELECT id, name, price, expected_return, duration_days, total_units, units_sold, active, popular, created_at, updated_at
		FROM products WHERE id = $1
	`, id)
	if err != nil {
		return product.Product{}, translateErr(err, "product "+id)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	var result []product.Product
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, name, price, expected_return, duration_days, total_units, units_sold, active, popular, created_at, updated_at
		FROM products
		WHERE $1 = false OR active = true
		ORDER BY created_at
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- InvestmentStore --------------------------------------------------------

func (s *Store) PurchaseInvestment(ctx context.Context, inv investment.Investment, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	// Claim a unit first; total_units = 0 means unlimited inventory.
	result, err := dbTx.ExecContext(ctx, `
		UPDATE products
		SET units_sold = units_sold + 1, updated_at = $2
		WHERE id = $1 AND (total_units = 0 OR units_sold < total_units)
	`, inv.ProductID, time.Now().UTC())
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists bool
		if checkErr := dbTx.QueryRowContext(ctx, `SELECT true FROM products WHERE id = $1`, inv.ProductID).Scan(&exists); checkErr == nil && exists {
			return investment.Investment{}, wallet.Wallet{}, storage.ErrSoldOut
		}
		return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("product %s: %w", inv.ProductID, storage.ErrNotFound)
	}

	w, _, err := applyWalletDeltaTx(ctx, dbTx, inv.ProfileID, wallet.Delta{
		Balance:        -inv.Amount,
		TotalInvested:  inv.Amount,
		PendingReturns: inv.Profit(),
	}, tx)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.Status = investment.StatusActive
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO investments (id, profile_id, product_id, amount, expected_return, status, purchased_at, matures_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, inv.ID, inv.ProfileID, inv.ProductID, inv.Amount, inv.ExpectedReturn, inv.Status, inv.PurchasedAt, inv.MaturesAt)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	return inv, w, nil
}

func (s *Store) MatureInvestment(ctx context.Context, id string, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error) {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	defer dbTx.Rollback()

	// The status guard makes repeated sweeps over the same investment safe:
	// only the first transition matches.
	now := time.Now().UTC()
	var inv investment.Investment
	var maturedAt sql.NullTime
	row := dbTx.QueryRowContext(ctx, `
		UPDATE investments
		SET status = $2, matured_at = $3
		WHERE id = $1 AND status = $4
		RETURNING id, profile_id, product_id, amount, expected_return, status, purchased_at, matures_at, matured_at
	`, id, investment.StatusMatured, now, investment.StatusActive)
	if err := row.Scan(&inv.ID, &inv.ProfileID, &inv.ProductID, &inv.Amount, &inv.ExpectedReturn, &inv.Status, &inv.PurchasedAt, &inv.MaturesAt, &maturedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var status string
			if checkErr := dbTx.QueryRowContext(ctx, `SELECT status FROM investments WHERE id = $1`, id).Scan(&status); checkErr == nil {
				return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("investment %s already %s: %w", id, status, storage.ErrConflict)
			}
			return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("investment %s: %w", id, storage.ErrNotFound)
		}
		return investment.Investment{}, wallet.Wallet{}, err
	}
	if maturedAt.Valid {
		inv.MaturedAt = maturedAt.Time.UTC()
	}

	w, _, err := applyWalletDeltaTx(ctx, dbTx, inv.ProfileID, wallet.Delta{
		Balance:        inv.ExpectedReturn,
		TotalReturns:   inv.Profit(),
		PendingReturns: -inv.Profit(),
	}, tx)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	return inv, w, nil
}

const investmentColumns = `id, profile_id, product_id, amount, expected_return, status, purchased_at, matures_at, matured_at`

func scanInvestment(row interface{ Scan(...any) error }) (investment.Investment, error) {
	var (
		inv       investment.Investment
		maturedAt sql.NullTime
	)
	if err := row.Scan(&inv.ID, &inv.ProfileID, &inv.ProductID, &inv.Amount, &inv.ExpectedReturn, &inv.Status, &inv.PurchasedAt, &inv.MaturesAt, &maturedAt); err != nil {
		return investment.Investment{}, err
	}
	if maturedAt.Valid {
		inv.MaturedAt = maturedAt.Time.UTC()
	}
	return inv, nil
}

func (s *Store) GetInvestment(ctx context.Context, id string) (investment.Investment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id)
	inv, err := scanInvestment(row)
	if err != nil {
		return investment.Investment{}, translateErr(err, "investment "+id)
	}
	return inv, nil
}

func (s *Store) ListInvestments(ctx context.Context, profileID string) ([]investment.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE $1 = '' OR profile_id = $1
		ORDER BY purchased_at
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []investment.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (s *Store) ListMaturable(ctx context.Context, now time.Time) ([]investment.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE status = $1 AND matures_at <= $2
		ORDER BY matures_at
	`, investment.StatusActive, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []investment.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}
