// Package investments implements product purchase and maturation. Both paths
// commit the wallet delta, the ledger row and the investment row in one store
// transaction.
package investments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vestapay/platform/internal/app/domain/investment"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/metrics"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// ErrProductInactive rejects purchases of retired products.
var ErrProductInactive = errors.New("product is not available")

// Service manages investments.
type Service struct {
	products storage.ProductStore
	store    storage.InvestmentStore
	log      *logger.Logger
	now      func() time.Time
}

// New constructs an investment service.
func New(products storage.ProductStore, store storage.InvestmentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("investments")
	}
	return &Service{products: products, store: store, log: log, now: time.Now}
}

// Create purchases a product. The amount must cover at least one unit; larger
// amounts scale the expected return proportionally.
func (s *Service) Create(ctx context.Context, profileID, productID string, amount float64) (investment.Investment, wallet.Wallet, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	if !p.Active {
		return investment.Investment{}, wallet.Wallet{}, ErrProductInactive
	}
	if amount < p.Price {
		return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("amount must be at least the product price of %.2f", p.Price)
	}

	purchasedAt := s.now().UTC()
	inv := investment.Investment{
		ProfileID:      profileID,
		ProductID:      productID,
		Amount:         amount,
		ExpectedReturn: p.ExpectedReturn * amount / p.Price,
		PurchasedAt:    purchasedAt,
		MaturesAt:      purchasedAt.Add(time.Duration(p.DurationDays) * 24 * time.Hour),
	}

	created, w, err := s.store.PurchaseInvestment(ctx, inv, wallet.Transaction{
		Type:        wallet.TypeInvestment,
		Amount:      -amount,
		Description: fmt.Sprintf("Investment in %s", p.Name),
	})
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}
	metrics.RecordLedgerEntry(wallet.TypeInvestment)
	s.log.Infof("investment %s created for %s (%.2f)", created.ID, profileID, amount)
	return created, w, nil
}

// List returns a profile's investments.
func (s *Service) List(ctx context.Context, profileID string) ([]investment.Investment, error) {
	return s.store.ListInvestments(ctx, profileID)
}

// MatureDue matures every active investment whose term has elapsed. The store
// guard makes concurrent or repeated sweeps safe: the second attempt on the
// same id reports a conflict and is skipped. Returns the number matured.
func (s *Service) MatureDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListMaturable(ctx, now)
	if err != nil {
		return 0, err
	}

	matured := 0
	for _, inv := range due {
		_, _, err := s.store.MatureInvestment(ctx, inv.ID, wallet.Transaction{
			Type:        wallet.TypeReturn,
			Amount:      inv.ExpectedReturn,
			Description: "Investment return",
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			s.log.WithError(err).Warnf("mature investment %s failed", inv.ID)
			continue
		}
		metrics.RecordLedgerEntry(wallet.TypeReturn)
		matured++
	}
	if matured > 0 {
		metrics.RecordMaturations(matured)
		s.log.Infof("matured %d investments", matured)
	}
	return matured, nil
}
