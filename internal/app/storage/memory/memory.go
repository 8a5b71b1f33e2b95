package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
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
	"github.com/vestapay/platform/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development. Multi-row operations hold the store lock for their whole
// duration, giving the same atomicity the postgres store gets from database
// transactions.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	profiles        map[string]profile.Profile
	profilesByEmail map[string]string
	profilesByCode  map[string]string
	wallets         map[string]wallet.Wallet
	transactions    map[string][]wallet.Transaction
	products        map[string]product.Product
	investments     map[string]investment.Investment
	deposits        map[string]payment.Deposit
	withdrawals     map[string]payment.Withdrawal
	referrals       map[string]referral.Referral

	streaks          map[string]gamification.Streak
	streakClaims     map[string]gamification.StreakClaim
	levels           map[string]gamification.Level
	spins            map[string]gamification.SpinRecord
	achievements     map[string]gamification.Achievement
	userAchievements map[string][]gamification.UserAchievement
	challenges       map[string]gamification.WeeklyChallenge
	userChallenges   map[string]gamification.UserChallenge

	settings   map[string]setting.Setting
	activities map[string]security.Activity
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

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:           1,
		profiles:         make(map[string]profile.Profile),
		profilesByEmail:  make(map[string]string),
		profilesByCode:   make(map[string]string),
		wallets:          make(map[string]wallet.Wallet),
		transactions:     make(map[string][]wallet.Transaction),
		products:         make(map[string]product.Product),
		investments:      make(map[string]investment.Investment),
		deposits:         make(map[string]payment.Deposit),
		withdrawals:      make(map[string]payment.Withdrawal),
		referrals:        make(map[string]referral.Referral),
		streaks:          make(map[string]gamification.Streak),
		streakClaims:     make(map[string]gamification.StreakClaim),
		levels:           make(map[string]gamification.Level),
		spins:            make(map[string]gamification.SpinRecord),
		achievements:     make(map[string]gamification.Achievement),
		userAchievements: make(map[string][]gamification.UserAchievement),
		challenges:       make(map[string]gamification.WeeklyChallenge),
		userChallenges:   make(map[string]gamification.UserChallenge),
		settings:         make(map[string]setting.Setting),
		activities:       make(map[string]security.Activity),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ProfileStore implementation -------------------------------------------------

func (s *Store) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if _, exists := s.profilesByEmail[email]; exists {
		return profile.Profile{}, fmt.Errorf("email %s: %w", email, storage.ErrConflict)
	}
	if p.ReferralCode != "" {
		if _, exists := s.profilesByCode[p.ReferralCode]; exists {
			return profile.Profile{}, fmt.Errorf("referral code %s: %w", p.ReferralCode, storage.ErrConflict)
		}
	}

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.Email = email
	p.CreatedAt = now
	p.UpdatedAt = now

	s.profiles[p.ID] = p
	s.profilesByEmail[email] = p.ID
	if p.ReferralCode != "" {
		s.profilesByCode[p.ReferralCode] = p.ID
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.profiles[p.ID]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", p.ID, storage.ErrNotFound)
	}
	p.Email = original.Email
	p.ReferralCode = original.ReferralCode
	p.ReferredBy = original.ReferredBy
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.profilesByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile for %s: %w", email, storage.ErrNotFound)
	}
	return s.profiles[id], nil
}

func (s *Store) GetProfileByReferralCode(_ context.Context, code string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.profilesByCode[strings.TrimSpace(code)]
	if !ok {
		return profile.Profile{}, fmt.Errorf("referral code %s: %w", code, storage.ErrNotFound)
	}
	return s.profiles[id], nil
}

func (s *Store) ListProfiles(_ context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	delete(s.profiles, id)
	delete(s.profilesByEmail, p.Email)
	delete(s.profilesByCode, p.ReferralCode)
	delete(s.wallets, id)
	delete(s.transactions, id)
	delete(s.streaks, id)
	delete(s.levels, id)
	return nil
}

// WalletStore implementation --------------------------------------------------

func (s *Store) CreateWallet(_ context.Context, w wallet.Wallet) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.ProfileID]; exists {
		return wallet.Wallet{}, fmt.Errorf("wallet %s: %w", w.ProfileID, storage.ErrConflict)
	}
	w.UpdatedAt = time.Now().UTC()
	s.wallets[w.ProfileID] = w
	return w, nil
}

func (s *Store) GetWallet(_ context.Context, profileID string) (wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[profileID]
	if !ok {
		return wallet.Wallet{}, fmt.Errorf("wallet %s: %w", profileID, storage.ErrNotFound)
	}
	return w, nil
}

func (s *Store) ApplyWalletDelta(_ context.Context, profileID string, d wallet.Delta, tx wallet.Transaction) (wallet.Wallet, wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyWalletDeltaLocked(profileID, d, tx)
}

func (s *Store) applyWalletDeltaLocked(profileID string, d wallet.Delta, tx wallet.Transaction) (wallet.Wallet, wallet.Transaction, error) {
	w, ok := s.wallets[profileID]
	if !ok {
		return wallet.Wallet{}, wallet.Transaction{}, fmt.Errorf("wallet %s: %w", profileID, storage.ErrNotFound)
	}
	if w.Balance+d.Balance < 0 {
		return wallet.Wallet{}, wallet.Transaction{}, storage.ErrInsufficientBalance
	}

	w.Balance += d.Balance
	w.TotalInvested += d.TotalInvested
	w.TotalReturns += d.TotalReturns
	w.PendingReturns += d.PendingReturns
	w.UpdatedAt = time.Now().UTC()
	s.wallets[profileID] = w

	tx = s.appendTransactionLocked(profileID, tx)
	return w, tx, nil
}

func (s *Store) appendTransactionLocked(profileID string, tx wallet.Transaction) wallet.Transaction {
	if tx.ID == "" {
		tx.ID = s.nextIDLocked()
	}
	tx.ProfileID = profileID
	if tx.Status == "" {
		tx.Status = wallet.StatusCompleted
	}
	tx.CreatedAt = time.Now().UTC()
	s.transactions[profileID] = append(s.transactions[profileID], tx)
	return tx
}

func (s *Store) ListTransactions(_ context.Context, profileID string) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := s.transactions[profileID]
	result := make([]wallet.Transaction, len(txs))
	copy(result, txs)
	// newest first
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ProductStore implementation -------------------------------------------------

func (s *Store) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	original, ok := s.products[p.ID]
	if !ok {
		return product.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrNotFound)
	}
	p.UnitsSold = original.UnitsSold
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, activeOnly bool) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		if activeOnly && !p.Active {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// InvestmentStore implementation ----------------------------------------------

func (s *Store) PurchaseInvestment(_ context.Context, inv investment.Investment, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prod, ok := s.products[inv.ProductID]
	if !ok {
		return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("product %s: %w", inv.ProductID, storage.ErrNotFound)
	}
	if prod.TotalUnits > 0 && prod.UnitsSold >= prod.TotalUnits {
		return investment.Investment{}, wallet.Wallet{}, storage.ErrSoldOut
	}

	w, _, err := s.applyWalletDeltaLocked(inv.ProfileID, wallet.Delta{
		Balance:        -inv.Amount,
		TotalInvested:  inv.Amount,
		PendingReturns: inv.Profit(),
	}, tx)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}

	prod.UnitsSold++
	prod.UpdatedAt = time.Now().UTC()
	s.products[prod.ID] = prod

	if inv.ID == "" {
		inv.ID = s.nextIDLocked()
	}
	inv.Status = investment.StatusActive
	s.investments[inv.ID] = inv
	return inv, w, nil
}

func (s *Store) MatureInvestment(_ context.Context, id string, tx wallet.Transaction) (investment.Investment, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("investment %s: %w", id, storage.ErrNotFound)
	}
	if inv.Status != investment.StatusActive {
		return investment.Investment{}, wallet.Wallet{}, fmt.Errorf("investment %s already %s: %w", id, inv.Status, storage.ErrConflict)
	}

	w, _, err := s.applyWalletDeltaLocked(inv.ProfileID, wallet.Delta{
		Balance:        inv.ExpectedReturn,
		TotalReturns:   inv.Profit(),
		PendingReturns: -inv.Profit(),
	}, tx)
	if err != nil {
		return investment.Investment{}, wallet.Wallet{}, err
	}

	inv.Status = investment.StatusMatured
	inv.MaturedAt = time.Now().UTC()
	s.investments[id] = inv
	return inv, w, nil
}

func (s *Store) GetInvestment(_ context.Context, id string) (investment.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investments[id]
	if !ok {
		return investment.Investment{}, fmt.Errorf("investment %s: %w", id, storage.ErrNotFound)
	}
	return inv, nil
}

func (s *Store) ListInvestments(_ context.Context, profileID string) ([]investment.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []investment.Investment
	for _, inv := range s.investments {
		if profileID == "" || inv.ProfileID == profileID {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PurchasedAt.Before(result[j].PurchasedAt) })
	return result, nil
}

func (s *Store) ListMaturable(_ context.Context, now time.Time) ([]investment.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []investment.Investment
	for _, inv := range s.investments {
		if inv.Status == investment.StatusActive && !inv.MaturesAt.After(now) {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MaturesAt.Before(result[j].MaturesAt) })
	return result, nil
}

// PaymentStore implementation -------------------------------------------------

func (s *Store) CreateDeposit(_ context.Context, d payment.Deposit) (payment.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = s.nextIDLocked()
	}
	d.Status = payment.StatusPending
	d.CreatedAt = time.Now().UTC()
	s.deposits[d.ID] = d
	return d, nil
}

func (s *Store) GetDeposit(_ context.Context, id string) (payment.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deposits[id]
	if !ok {
		return payment.Deposit{}, fmt.Errorf("deposit %s: %w", id, storage.ErrNotFound)
	}
	return d, nil
}

func (s *Store) ListDeposits(_ context.Context, profileID string, pendingOnly bool) ([]payment.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []payment.Deposit
	for _, d := range s.deposits {
		if profileID != "" && d.ProfileID != profileID {
			continue
		}
		if pendingOnly && d.Status != payment.StatusPending {
			continue
		}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ApproveDeposit(_ context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Deposit, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return payment.Deposit{}, wallet.Wallet{}, fmt.Errorf("deposit %s: %w", id, storage.ErrNotFound)
	}
	if d.Status != payment.StatusPending {
		return payment.Deposit{}, wallet.Wallet{}, fmt.Errorf("deposit %s already %s: %w", id, d.Status, storage.ErrConflict)
	}

	w, _, err := s.applyWalletDeltaLocked(d.ProfileID, wallet.Delta{Balance: d.Amount}, tx)
	if err != nil {
		return payment.Deposit{}, wallet.Wallet{}, err
	}

	d.Status = payment.StatusApproved
	d.ReviewedBy = reviewerID
	d.ReviewedAt = time.Now().UTC()
	s.deposits[id] = d
	return d, w, nil
}

func (s *Store) RejectDeposit(_ context.Context, id, reviewerID string) (payment.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return payment.Deposit{}, fmt.Errorf("deposit %s: %w", id, storage.ErrNotFound)
	}
	if d.Status != payment.StatusPending {
		return payment.Deposit{}, fmt.Errorf("deposit %s already %s: %w", id, d.Status, storage.ErrConflict)
	}
	d.Status = payment.StatusRejected
	d.ReviewedBy = reviewerID
	d.ReviewedAt = time.Now().UTC()
	s.deposits[id] = d
	return d, nil
}

func (s *Store) CreateWithdrawal(_ context.Context, w payment.Withdrawal, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wal, _, err := s.applyWalletDeltaLocked(w.ProfileID, wallet.Delta{Balance: -w.Amount}, tx)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	if w.ID == "" {
		w.ID = s.nextIDLocked()
	}
	w.Status = payment.StatusPending
	w.CreatedAt = time.Now().UTC()
	s.withdrawals[w.ID] = w
	return w, wal, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (payment.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return payment.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, storage.ErrNotFound)
	}
	return w, nil
}

func (s *Store) ListWithdrawals(_ context.Context, profileID string, pendingOnly bool) ([]payment.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []payment.Withdrawal
	for _, w := range s.withdrawals {
		if profileID != "" && w.ProfileID != profileID {
			continue
		}
		if pendingOnly && w.Status != payment.StatusPending {
			continue
		}
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ApproveWithdrawal(_ context.Context, id, reviewerID string) (payment.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return payment.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, storage.ErrNotFound)
	}
	if w.Status != payment.StatusPending {
		return payment.Withdrawal{}, fmt.Errorf("withdrawal %s already %s: %w", id, w.Status, storage.ErrConflict)
	}
	w.Status = payment.StatusApproved
	w.ReviewedBy = reviewerID
	w.ReviewedAt = time.Now().UTC()
	s.withdrawals[id] = w
	return w, nil
}

func (s *Store) RejectWithdrawal(_ context.Context, id, reviewerID string, tx wallet.Transaction) (payment.Withdrawal, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return payment.Withdrawal{}, wallet.Wallet{}, fmt.Errorf("withdrawal %s: %w", id, storage.ErrNotFound)
	}
	if w.Status != payment.StatusPending {
		return payment.Withdrawal{}, wallet.Wallet{}, fmt.Errorf("withdrawal %s already %s: %w", id, w.Status, storage.ErrConflict)
	}

	wal, _, err := s.applyWalletDeltaLocked(w.ProfileID, wallet.Delta{Balance: w.Amount}, tx)
	if err != nil {
		return payment.Withdrawal{}, wallet.Wallet{}, err
	}

	w.Status = payment.StatusRejected
	w.ReviewedBy = reviewerID
	w.ReviewedAt = time.Now().UTC()
	s.withdrawals[id] = w
	return w, wal, nil
}

// ReferralStore implementation ------------------------------------------------

func (s *Store) CreateReferral(_ context.Context, r referral.Referral) (referral.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = s.nextIDLocked()
	}
	r.Status = referral.StatusPending
	r.CreatedAt = time.Now().UTC()
	s.referrals[r.ID] = r
	return r, nil
}

func (s *Store) GetPendingReferralByReferred(_ context.Context, referredID string) (referral.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.referrals {
		if r.ReferredID == referredID && r.Status == referral.StatusPending {
			return r, nil
		}
	}
	return referral.Referral{}, fmt.Errorf("pending referral for %s: %w", referredID, storage.ErrNotFound)
}

func (s *Store) RewardReferral(_ context.Context, id string, tx wallet.Transaction) (referral.Referral, wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.referrals[id]
	if !ok {
		return referral.Referral{}, wallet.Wallet{}, fmt.Errorf("referral %s: %w", id, storage.ErrNotFound)
	}
	if r.Status != referral.StatusPending {
		return referral.Referral{}, wallet.Wallet{}, fmt.Errorf("referral %s already %s: %w", id, r.Status, storage.ErrConflict)
	}

	w, _, err := s.applyWalletDeltaLocked(r.ReferrerID, wallet.Delta{Balance: r.RewardAmount}, tx)
	if err != nil {
		return referral.Referral{}, wallet.Wallet{}, err
	}

	r.Status = referral.StatusRewarded
	r.RewardedAt = time.Now().UTC()
	s.referrals[id] = r
	return r, w, nil
}

func (s *Store) ListReferrals(_ context.Context, referrerID string) ([]referral.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []referral.Referral
	for _, r := range s.referrals {
		if referrerID == "" || r.ReferrerID == referrerID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// GamificationStore implementation --------------------------------------------

func (s *Store) GetStreak(_ context.Context, profileID string) (gamification.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.streaks[profileID]
	if !ok {
		return gamification.Streak{}, fmt.Errorf("streak %s: %w", profileID, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) UpsertStreak(_ context.Context, st gamification.Streak) (gamification.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = time.Now().UTC()
	s.streaks[st.ProfileID] = st
	return st, nil
}

func (s *Store) CreateStreakClaim(_ context.Context, c gamification.StreakClaim) (gamification.StreakClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d/%s", c.ProfileID, c.StreakDay, dateKey(c.ClaimDate))
	if _, exists := s.streakClaims[key]; exists {
		return gamification.StreakClaim{}, fmt.Errorf("streak claim %s: %w", key, storage.ErrConflict)
	}
	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	c.CreatedAt = time.Now().UTC()
	s.streakClaims[key] = c
	return c, nil
}

func (s *Store) GetLevel(_ context.Context, profileID string) (gamification.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.levels[profileID]
	if !ok {
		return gamification.Level{}, fmt.Errorf("level %s: %w", profileID, storage.ErrNotFound)
	}
	return l, nil
}

func (s *Store) UpsertLevel(_ context.Context, l gamification.Level) (gamification.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.UpdatedAt = time.Now().UTC()
	s.levels[l.ProfileID] = l
	return l, nil
}

func (s *Store) CreateSpin(_ context.Context, sp gamification.SpinRecord) (gamification.SpinRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sp.ProfileID + "/" + dateKey(sp.SpinDate)
	if _, exists := s.spins[key]; exists {
		return gamification.SpinRecord{}, fmt.Errorf("spin %s: %w", key, storage.ErrConflict)
	}
	if sp.ID == "" {
		sp.ID = s.nextIDLocked()
	}
	sp.CreatedAt = time.Now().UTC()
	s.spins[key] = sp
	return sp, nil
}

func (s *Store) GetSpinForDate(_ context.Context, profileID string, date time.Time) (gamification.SpinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spins[profileID+"/"+dateKey(date)]
	if !ok {
		return gamification.SpinRecord{}, fmt.Errorf("spin for %s: %w", profileID, storage.ErrNotFound)
	}
	return sp, nil
}

func (s *Store) CreateAchievement(_ context.Context, a gamification.Achievement) (gamification.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	a.CreatedAt = time.Now().UTC()
	s.achievements[a.ID] = a
	return a, nil
}

func (s *Store) ListAchievements(_ context.Context) ([]gamification.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]gamification.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Threshold < result[j].Threshold })
	return result, nil
}

func (s *Store) CreateUserAchievement(_ context.Context, ua gamification.UserAchievement) (gamification.UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.userAchievements[ua.ProfileID] {
		if existing.AchievementID == ua.AchievementID {
			return gamification.UserAchievement{}, fmt.Errorf("achievement %s already awarded: %w", ua.AchievementID, storage.ErrConflict)
		}
	}
	if ua.ID == "" {
		ua.ID = s.nextIDLocked()
	}
	ua.AwardedAt = time.Now().UTC()
	s.userAchievements[ua.ProfileID] = append(s.userAchievements[ua.ProfileID], ua)
	return ua, nil
}

func (s *Store) ListUserAchievements(_ context.Context, profileID string) ([]gamification.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uas := s.userAchievements[profileID]
	result := make([]gamification.UserAchievement, len(uas))
	copy(result, uas)
	return result, nil
}

func (s *Store) CreateChallenge(_ context.Context, c gamification.WeeklyChallenge) (gamification.WeeklyChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	c.CreatedAt = time.Now().UTC()
	s.challenges[c.ID] = c
	return c, nil
}

func (s *Store) ListChallenges(_ context.Context, at time.Time) ([]gamification.WeeklyChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []gamification.WeeklyChallenge
	for _, c := range s.challenges {
		if at.IsZero() || (!c.StartsAt.After(at) && c.EndsAt.After(at)) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (s *Store) GetChallenge(_ context.Context, id string) (gamification.WeeklyChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return gamification.WeeklyChallenge{}, fmt.Errorf("challenge %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateUserChallenge(_ context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uc.ProfileID + "/" + uc.ChallengeID
	if _, exists := s.userChallenges[key]; exists {
		return gamification.UserChallenge{}, fmt.Errorf("challenge %s already joined: %w", uc.ChallengeID, storage.ErrConflict)
	}
	if uc.ID == "" {
		uc.ID = s.nextIDLocked()
	}
	uc.Status = gamification.ChallengeJoined
	uc.JoinedAt = time.Now().UTC()
	s.userChallenges[key] = uc
	return uc, nil
}

func (s *Store) GetUserChallenge(_ context.Context, profileID, challengeID string) (gamification.UserChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uc, ok := s.userChallenges[profileID+"/"+challengeID]
	if !ok {
		return gamification.UserChallenge{}, fmt.Errorf("user challenge %s/%s: %w", profileID, challengeID, storage.ErrNotFound)
	}
	return uc, nil
}

func (s *Store) UpdateUserChallenge(_ context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uc.ProfileID + "/" + uc.ChallengeID
	if _, ok := s.userChallenges[key]; !ok {
		return gamification.UserChallenge{}, fmt.Errorf("user challenge %s: %w", key, storage.ErrNotFound)
	}
	s.userChallenges[key] = uc
	return uc, nil
}

func (s *Store) ExpireUserChallenges(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for key, uc := range s.userChallenges {
		if uc.Status != gamification.ChallengeJoined {
			continue
		}
		c, ok := s.challenges[uc.ChallengeID]
		if !ok || c.EndsAt.After(before) {
			continue
		}
		uc.Status = gamification.ChallengeExpired
		s.userChallenges[key] = uc
		expired++
	}
	return expired, nil
}

func (s *Store) ProfileTotals(_ context.Context, profileID string) (storage.ProfileTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals storage.ProfileTotals
	if w, ok := s.wallets[profileID]; ok {
		totals.TotalInvested = w.TotalInvested
	}
	for _, d := range s.deposits {
		if d.ProfileID == profileID && d.Status == payment.StatusApproved {
			totals.TotalDeposited += d.Amount
		}
	}
	for _, r := range s.referrals {
		if r.ReferrerID == profileID {
			totals.ReferralCount++
		}
	}
	if st, ok := s.streaks[profileID]; ok {
		totals.LongestStreak = st.LongestStreak
	}
	return totals, nil
}

// SettingStore implementation -------------------------------------------------

func (s *Store) UpsertSetting(_ context.Context, st setting.Setting) (setting.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = time.Now().UTC()
	value := make([]byte, len(st.Value))
	copy(value, st.Value)
	st.Value = value
	s.settings[st.Key] = st
	return st, nil
}

func (s *Store) GetSetting(_ context.Context, key string) (setting.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	if !ok {
		return setting.Setting{}, fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListSettings(_ context.Context) ([]setting.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]setting.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// SecurityStore implementation ------------------------------------------------

func (s *Store) CreateActivity(_ context.Context, a security.Activity) (security.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	a.CreatedAt = time.Now().UTC()
	s.activities[a.ID] = a
	return a, nil
}

func (s *Store) ListActivities(_ context.Context, unresolvedOnly bool) ([]security.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []security.Activity
	for _, a := range s.activities {
		if unresolvedOnly && a.Resolved {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ResolveActivity(_ context.Context, id string) (security.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return security.Activity{}, fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	a.Resolved = true
	s.activities[id] = a
	return a, nil
}
