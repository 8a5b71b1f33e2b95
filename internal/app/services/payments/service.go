// Package payments implements deposit and withdrawal requests and their
// admin review flow. Withdrawal submission takes the balance hold atomically
// with the row insert; deposit approval credits the wallet and fires the
// one-time referral reward for the depositor's referrer.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/vestapay/platform/internal/app/domain/payment"
	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

var (
	ErrDepositsFrozen    = errors.New("deposits are temporarily frozen")
	ErrWithdrawalsFrozen = errors.New("withdrawals are temporarily frozen")
)

// Service manages deposits and withdrawals.
type Service struct {
	store          storage.PaymentStore
	referrals      storage.ReferralStore
	security       storage.SecurityStore
	settings       *settings.Service
	alertThreshold float64
	log            *logger.Logger
}

// New constructs a payment service. alertThreshold is the withdrawal amount
// at which a suspicious-activity row is written; zero disables the alert.
func New(store storage.PaymentStore, referrals storage.ReferralStore, sec storage.SecurityStore, st *settings.Service, alertThreshold float64, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	return &Service{
		store:          store,
		referrals:      referrals,
		security:       sec,
		settings:       st,
		alertThreshold: alertThreshold,
		log:            log,
	}
}

// CreateDeposit submits a deposit for admin review. The wallet is untouched
// until approval.
func (s *Service) CreateDeposit(ctx context.Context, profileID string, amount float64, method, reference string) (payment.Deposit, error) {
	if amount <= 0 {
		return payment.Deposit{}, fmt.Errorf("amount must be positive")
	}
	if method == "" {
		return payment.Deposit{}, fmt.Errorf("payment method is required")
	}
	if s.settings.DepositsFrozen(ctx) {
		return payment.Deposit{}, ErrDepositsFrozen
	}

	d, err := s.store.CreateDeposit(ctx, payment.Deposit{
		ProfileID: profileID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
	})
	if err != nil {
		return payment.Deposit{}, err
	}
	s.log.Infof("deposit %s submitted by %s (%.2f via %s)", d.ID, profileID, amount, method)
	return d, nil
}

// ListDeposits returns deposits for a profile, or all pending when profileID
// is empty (admin view).
func (s *Service) ListDeposits(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Deposit, error) {
	return s.store.ListDeposits(ctx, profileID, pendingOnly)
}

// ApproveDeposit credits the depositor's wallet and, on their first approved
// deposit, pays the referrer's pending reward. The referral flips to rewarded
// in the same store call that credits it, so later approvals find nothing.
func (s *Service) ApproveDeposit(ctx context.Context, adminID, depositID string) (payment.Deposit, error) {
	pending, err := s.store.GetDeposit(ctx, depositID)
	if err != nil {
		return payment.Deposit{}, err
	}

	d, _, err := s.store.ApproveDeposit(ctx, depositID, adminID, wallet.Transaction{
		Type:        wallet.TypeDeposit,
		Amount:      pending.Amount,
		Description: "Deposit approved",
	})
	if err != nil {
		return payment.Deposit{}, err
	}
	s.log.WithField("admin", adminID).Infof("deposit %s approved (%.2f)", d.ID, d.Amount)

	s.rewardReferrer(ctx, d.ProfileID)
	return d, nil
}

func (s *Service) rewardReferrer(ctx context.Context, depositorID string) {
	ref, err := s.referrals.GetPendingReferralByReferred(ctx, depositorID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WithError(err).Warnf("referral lookup for %s failed", depositorID)
		}
		return
	}

	_, _, err = s.referrals.RewardReferral(ctx, ref.ID, wallet.Transaction{
		Type:        wallet.TypeReferralBonus,
		Amount:      ref.RewardAmount,
		Description: "Referral bonus",
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return
		}
		s.log.WithError(err).Warnf("reward referral %s failed", ref.ID)
		return
	}
	s.log.Infof("referral %s rewarded (%.2f to %s)", ref.ID, ref.RewardAmount, ref.ReferrerID)
}

// RejectDeposit declines a pending deposit.
func (s *Service) RejectDeposit(ctx context.Context, adminID, depositID string) (payment.Deposit, error) {
	d, err := s.store.RejectDeposit(ctx, depositID, adminID)
	if err != nil {
		return payment.Deposit{}, err
	}
	s.log.WithField("admin", adminID).Infof("deposit %s rejected", d.ID)
	return d, nil
}

// CreateWithdrawal submits a payout request and debits the wallet
// immediately. Large requests are flagged for review.
func (s *Service) CreateWithdrawal(ctx context.Context, profileID string, amount float64, destination string) (payment.Withdrawal, wallet.Wallet, error) {
	if amount <= 0 {
		return payment.Withdrawal{}, wallet.Wallet{}, fmt.Errorf("amount must be positive")
	}
	if destination == "" {
		return payment.Withdrawal{}, wallet.Wallet{}, fmt.Errorf("destination is required")
	}
	if s.settings.WithdrawalsFrozen(ctx) {
		return payment.Withdrawal{}, wallet.Wallet{}, ErrWithdrawalsFrozen
	}

	w, wal, err := s.store.CreateWithdrawal(ctx, payment.Withdrawal{
		ProfileID:   profileID,
		Amount:      amount,
		Destination: destination,
	}, wallet.Transaction{
		Type:        wallet.TypeWithdrawal,
		Amount:      -amount,
		Description: "Withdrawal request",
	})
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	if s.alertThreshold > 0 && amount >= s.alertThreshold && s.security != nil {
		_, auditErr := s.security.CreateActivity(ctx, security.Activity{
			ProfileID: profileID,
			Kind:      security.KindLargeWithdrawal,
			Severity:  security.SeverityHigh,
			Detail:    fmt.Sprintf("withdrawal of %.2f requested", amount),
		})
		if auditErr != nil {
			s.log.WithError(auditErr).Warn("record large withdrawal")
		}
	}

	s.log.Infof("withdrawal %s submitted by %s (%.2f)", w.ID, profileID, amount)
	return w, wal, nil
}

// ListWithdrawals returns withdrawals for a profile, or all pending when
// profileID is empty (admin view).
func (s *Service) ListWithdrawals(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Withdrawal, error) {
	return s.store.ListWithdrawals(ctx, profileID, pendingOnly)
}

// ApproveWithdrawal completes a payout. The hold was taken at submission, so
// no further wallet mutation happens here.
func (s *Service) ApproveWithdrawal(ctx context.Context, adminID, withdrawalID string) (payment.Withdrawal, error) {
	w, err := s.store.ApproveWithdrawal(ctx, withdrawalID, adminID)
	if err != nil {
		return payment.Withdrawal{}, err
	}
	s.log.WithField("admin", adminID).Infof("withdrawal %s approved (%.2f)", w.ID, w.Amount)
	return w, nil
}

// RejectWithdrawal declines a pending payout and refunds the hold.
func (s *Service) RejectWithdrawal(ctx context.Context, adminID, withdrawalID string) (payment.Withdrawal, wallet.Wallet, error) {
	pending, err := s.store.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	w, wal, err := s.store.RejectWithdrawal(ctx, withdrawalID, adminID, wallet.Transaction{
		Type:        wallet.TypeWithdrawal,
		Amount:      pending.Amount,
		Description: "Withdrawal rejected, hold refunded",
	})
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}
	s.log.WithField("admin", adminID).Infof("withdrawal %s rejected, %.2f refunded", w.ID, w.Amount)
	return w, wal, nil
}
