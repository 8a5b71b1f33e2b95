// Package referrals exposes a referrer's referral list and totals. Reward
// payment lives in the deposit approval flow; this service is read-only.
package referrals

import (
	"context"

	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// Service reads referral state.
type Service struct {
	store storage.ReferralStore
	log   *logger.Logger
}

// New constructs a referral service.
func New(store storage.ReferralStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("referrals")
	}
	return &Service{store: store, log: log}
}

// List returns the referrals made by a profile.
func (s *Service) List(ctx context.Context, referrerID string) ([]referral.Referral, error) {
	return s.store.ListReferrals(ctx, referrerID)
}

// Stats aggregates a referrer's totals.
func (s *Service) Stats(ctx context.Context, referrerID string) (referral.Stats, error) {
	list, err := s.store.ListReferrals(ctx, referrerID)
	if err != nil {
		return referral.Stats{}, err
	}

	stats := referral.Stats{TotalReferred: len(list)}
	for _, r := range list {
		if r.Status == referral.StatusRewarded {
			stats.TotalRewarded++
			stats.TotalEarned += r.RewardAmount
		}
	}
	return stats, nil
}
