// Package wallets exposes wallet reads and admin balance adjustments. All
// wallet mutation funnels through the store's atomic delta primitive.
package wallets

import (
	"context"
	"fmt"

	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// Service manages wallet access.
type Service struct {
	store storage.WalletStore
	log   *logger.Logger
}

// New constructs a wallet service.
func New(store storage.WalletStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("wallets")
	}
	return &Service{store: store, log: log}
}

// Get returns the wallet for a profile.
func (s *Service) Get(ctx context.Context, profileID string) (wallet.Wallet, error) {
	return s.store.GetWallet(ctx, profileID)
}

// Transactions lists the ledger for a profile, newest first.
func (s *Service) Transactions(ctx context.Context, profileID string) ([]wallet.Transaction, error) {
	return s.store.ListTransactions(ctx, profileID)
}

// Adjust applies an admin balance correction. The amount may be negative but
// cannot take the balance below zero.
func (s *Service) Adjust(ctx context.Context, adminID, profileID string, amount float64, reason string) (wallet.Wallet, error) {
	if amount == 0 {
		return wallet.Wallet{}, fmt.Errorf("amount must not be zero")
	}
	if reason == "" {
		reason = "Balance adjustment"
	}
	w, _, err := s.store.ApplyWalletDelta(ctx, profileID, wallet.Delta{Balance: amount}, wallet.Transaction{
		Type:        wallet.TypeAdminAdjustment,
		Amount:      amount,
		Description: reason,
	})
	if err != nil {
		return wallet.Wallet{}, err
	}
	s.log.WithField("admin", adminID).Infof("wallet %s adjusted by %.2f", profileID, amount)
	return w, nil
}
