package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vestapay/platform/internal/app/domain/gamification"
	"github.com/vestapay/platform/internal/app/domain/investment"
	"github.com/vestapay/platform/internal/app/domain/payment"
	"github.com/vestapay/platform/internal/app/domain/product"
	"github.com/vestapay/platform/internal/app/domain/profile"
	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/domain/setting"
	"github.com/vestapay/platform/internal/app/domain/wallet"
)

// Shared store errors. Stores translate backend-specific failures into these
// so services can branch without knowing the backend.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("conflict")
	ErrSoldOut             = errors.New("product sold out")
)

// ProfileStore persists user profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error)
	GetProfileByReferralCode(ctx context.Context, code string) (profile.Profile, error)
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// WalletStore persists wallets and the transaction ledger. ApplyWalletDelta
// is the single primitive for wallet mutation: the delta and the ledger row
// are applied atomically, and a delta that would take the balance below zero
// fails with ErrInsufficientBalance.
type WalletStore interface {
	CreateWallet(ctx context.Context, w wallet.Wallet) (wallet.Wallet, error)
	GetWallet(ctx context.Context, profileID string) (wallet.Wallet, error)
	ApplyWalletDelta(ctx context.Context, profileID string, d wallet.Delta, tx wallet.Transaction) (wallet.Wallet, wallet.Transaction, error)
	ListTransactions(ctx context.Context, profileID string) ([]wallet.Transaction, error)
}

// ProductStore persists investable products.
type ProductStore interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id string) (product.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]product.Product, error)
}

// InvestmentStore persists investments. Purchase and maturation are atomic:
// the wallet mutation, the ledger row and the investment row commit together.
// MatureInvestment is idempotent; a second call on the same id returns
// ErrConflict because the status guard no longer matches.
type InvestmentStore interface {
	PurchaseInvestment(ctx context.Context, inv investment.Investment, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error)
	MatureInvestment(ctx context.Context, id string, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error)
	GetInvestment(ctx context.Context, id string) (investment.Investment, error)
	ListInvestments(ctx context.Context, profileID string) ([]investment.Investment, error)
	ListMaturable(ctx context.Context, now time.Time) ([]investment.Investment, error)
}

// PaymentStore persists deposit and withdrawal requests. CreateWithdrawal
// takes the optimistic hold (wallet debit) atomically with the row insert;
// the approve/reject transitions are guarded by status = pending.
type PaymentStore interface {
	CreateDeposit(ctx context.Context, d payment.Deposit) (payment.Deposit, error)
	GetDeposit(ctx context.Context, id string) (payment.Deposit, error)
	ListDeposits(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Deposit, error)
	ApproveDeposit(ctx context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Deposit, wallet.Wallet, error)
	RejectDeposit(ctx context.Context, id, reviewerID string) (payment.Deposit, error)

	CreateWithdrawal(ctx context.Context, w payment.Withdrawal, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error)
	GetWithdrawal(ctx context.Context, id string) (payment.Withdrawal, error)
	ListWithdrawals(ctx context.Context, profileID string, pendingOnly bool) ([]payment.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id, reviewerID string) (payment.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error)
}

// ReferralStore persists referral links. RewardReferral flips a pending
// referral to rewarded and credits the referrer atomically; a referral that
// is not pending returns ErrConflict.
type ReferralStore interface {
	CreateReferral(ctx context.Context, r referral.Referral) (referral.Referral, error)
	GetPendingReferralByReferred(ctx context.Context, referredID string) (referral.Referral, error)
	RewardReferral(ctx context.Context, id string, tx wallet.Transaction) (referral.Referral, wallet.Wallet, error)
	ListReferrals(ctx context.Context, referrerID string) ([]referral.Referral, error)
}

// ProfileTotals aggregates the figures achievements are measured against.
type ProfileTotals struct {
	TotalInvested  float64
	TotalDeposited float64
	ReferralCount  int
	LongestStreak  int
}

// GamificationStore persists streaks, levels, spins, achievements and
// challenges. CreateStreakClaim and CreateSpin enforce their uniqueness keys
// with ErrConflict.
type GamificationStore interface {
	GetStreak(ctx context.Context, profileID string) (gamification.Streak, error)
	UpsertStreak(ctx context.Context, s gamification.Streak) (gamification.Streak, error)
	CreateStreakClaim(ctx context.Context, c gamification.StreakClaim) (gamification.StreakClaim, error)

	GetLevel(ctx context.Context, profileID string) (gamification.Level, error)
	UpsertLevel(ctx context.Context, l gamification.Level) (gamification.Level, error)

	CreateSpin(ctx context.Context, s gamification.SpinRecord) (gamification.SpinRecord, error)
	GetSpinForDate(ctx context.Context, profileID string, date time.Time) (gamification.SpinRecord, error)

	CreateAchievement(ctx context.Context, a gamification.Achievement) (gamification.Achievement, error)
	ListAchievements(ctx context.Context) ([]gamification.Achievement, error)
	CreateUserAchievement(ctx context.Context, ua gamification.UserAchievement) (gamification.UserAchievement, error)
	ListUserAchievements(ctx context.Context, profileID string) ([]gamification.UserAchievement, error)

	CreateChallenge(ctx context.Context, c gamification.WeeklyChallenge) (gamification.WeeklyChallenge, error)
	ListChallenges(ctx context.Context, at time.Time) ([]gamification.WeeklyChallenge, error)
	GetChallenge(ctx context.Context, id string) (gamification.WeeklyChallenge, error)
	CreateUserChallenge(ctx context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error)
	GetUserChallenge(ctx context.Context, profileID, challengeID string) (gamification.UserChallenge, error)
	UpdateUserChallenge(ctx context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error)
	ExpireUserChallenges(ctx context.Context, before time.Time) (int, error)

	ProfileTotals(ctx context.Context, profileID string) (ProfileTotals, error)
}

// SettingStore persists typed platform settings.
type SettingStore interface {
	UpsertSetting(ctx context.Context, s setting.Setting) (setting.Setting, error)
	GetSetting(ctx context.Context, key string) (setting.Setting, error)
	ListSettings(ctx context.Context) ([]setting.Setting, error)
}

// SecurityStore persists suspicious activity audit rows.
type SecurityStore interface {
	CreateActivity(ctx context.Context, a security.Activity) (security.Activity, error)
	ListActivities(ctx context.Context, unresolvedOnly bool) ([]security.Activity, error)
	ResolveActivity(ctx context.Context, id string) (security.Activity, error)
}
