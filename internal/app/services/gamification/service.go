// Package gamification implements the engagement reward machines: daily
// login streaks with milestone claims, XP levels, the daily spin wheel,
// pull-based achievements and weekly challenges. Every payout funnels into
// the wallet ledger like any other credit.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vestapay/platform/internal/app/domain/gamification"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

var (
	ErrAlreadySpun       = errors.New("free spin already used today")
	ErrMilestoneNotMet   = errors.New("streak milestone not reached")
	ErrUnknownMilestone  = errors.New("no reward at this streak day")
	ErrChallengeInactive = errors.New("challenge is not active")
	ErrNotJoined         = errors.New("challenge not joined")
)

// streakMilestones maps streak day to the claimable bonus.
var streakMilestones = map[int]float64{
	3:  500,
	7:  1500,
	14: 4000,
	30: 10000,
}

// levelThresholds is scanned for the highest entry whose XP requirement is
// met. Must stay ascending.
var levelThresholds = []struct {
	XP    int64
	Level int
	Title string
}{
	{0, 1, "Starter"},
	{100, 2, "Saver"},
	{300, 3, "Investor"},
	{700, 4, "Strategist"},
	{1500, 5, "Mogul"},
	{3000, 6, "Tycoon"},
}

const loginXP = 10

// Service manages gamification state.
type Service struct {
	store       storage.GamificationStore
	wallets     storage.WalletStore
	spinCeiling float64
	log         *logger.Logger
	now         func() time.Time
}

// New constructs a gamification service. spinCeiling caps the daily spin
// payout regardless of the client-claimed prize.
func New(store storage.GamificationStore, wallets storage.WalletStore, spinCeiling float64, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("gamification")
	}
	if spinCeiling <= 0 {
		spinCeiling = 5000
	}
	return &Service{store: store, wallets: wallets, spinCeiling: spinCeiling, log: log, now: time.Now}
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordLogin advances the login streak: +1 on an exactly-one-day gap, reset
// to 1 on a longer gap, unchanged on a same-day repeat. Each distinct login
// day also grants XP.
func (s *Service) RecordLogin(ctx context.Context, profileID string) (gamification.Streak, error) {
	today := dateOf(s.now())

	st, err := s.store.GetStreak(ctx, profileID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return gamification.Streak{}, err
		}
		st = gamification.Streak{ProfileID: profileID}
	}

	switch {
	case st.LastLoginDate.Equal(today):
		return st, nil
	case st.LastLoginDate.Equal(today.AddDate(0, 0, -1)):
		st.CurrentStreak++
	default:
		st.CurrentStreak = 1
	}
	if st.CurrentStreak > st.LongestStreak {
		st.LongestStreak = st.CurrentStreak
	}
	st.LastLoginDate = today

	saved, err := s.store.UpsertStreak(ctx, st)
	if err != nil {
		return gamification.Streak{}, err
	}
	if _, err := s.addXP(ctx, profileID, loginXP); err != nil {
		s.log.WithError(err).Warnf("login xp for %s failed", profileID)
	}
	return saved, nil
}

// ClaimStreakReward pays the milestone bonus for the given streak day. The
// claim row's (profile, day, date) key limits it to once per day.
func (s *Service) ClaimStreakReward(ctx context.Context, profileID string, streakDay int) (float64, error) {
	amount, ok := streakMilestones[streakDay]
	if !ok {
		return 0, ErrUnknownMilestone
	}

	st, err := s.store.GetStreak(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if st.CurrentStreak < streakDay {
		return 0, ErrMilestoneNotMet
	}

	_, err = s.store.CreateStreakClaim(ctx, gamification.StreakClaim{
		ProfileID: profileID,
		StreakDay: streakDay,
		ClaimDate: dateOf(s.now()),
		Amount:    amount,
	})
	if err != nil {
		return 0, err
	}

	if err := s.credit(ctx, profileID, wallet.TypeStreakBonus, amount, fmt.Sprintf("Day %d streak bonus", streakDay)); err != nil {
		return 0, err
	}
	return amount, nil
}

// Spin consumes the daily free spin. The server clamps the payout to its
// ceiling no matter what prize the client claims.
func (s *Service) Spin(ctx context.Context, profileID string, claimedPrize float64) (gamification.SpinRecord, error) {
	today := dateOf(s.now())
	if _, err := s.store.GetSpinForDate(ctx, profileID, today); err == nil {
		return gamification.SpinRecord{}, ErrAlreadySpun
	} else if !errors.Is(err, storage.ErrNotFound) {
		return gamification.SpinRecord{}, err
	}

	prize := claimedPrize
	if prize < 0 {
		prize = 0
	}
	if prize > s.spinCeiling {
		s.log.Warnf("spin prize %.2f from %s clamped to %.2f", claimedPrize, profileID, s.spinCeiling)
		prize = s.spinCeiling
	}

	rec, err := s.store.CreateSpin(ctx, gamification.SpinRecord{
		ProfileID: profileID,
		SpinDate:  today,
		Prize:     prize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return gamification.SpinRecord{}, ErrAlreadySpun
		}
		return gamification.SpinRecord{}, err
	}

	if prize > 0 {
		if err := s.credit(ctx, profileID, wallet.TypeSpinPrize, prize, "Daily spin prize"); err != nil {
			return gamification.SpinRecord{}, err
		}
	}
	return rec, nil
}

// CheckAchievements aggregates the profile's totals and awards any newly met
// achievements, paying each reward once. Returns the new awards.
func (s *Service) CheckAchievements(ctx context.Context, profileID string) ([]gamification.Achievement, error) {
	totals, err := s.store.ProfileTotals(ctx, profileID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}
	held, err := s.store.ListUserAchievements(ctx, profileID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(held))
	for _, ua := range held {
		have[ua.AchievementID] = true
	}

	var awarded []gamification.Achievement
	for _, a := range all {
		if have[a.ID] || metricValue(totals, a.Metric) < a.Threshold {
			continue
		}
		_, err := s.store.CreateUserAchievement(ctx, gamification.UserAchievement{
			ProfileID:     profileID,
			AchievementID: a.ID,
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			return awarded, err
		}
		if a.Reward > 0 {
			if err := s.credit(ctx, profileID, wallet.TypeAchievementBonus, a.Reward, "Achievement: "+a.Name); err != nil {
				return awarded, err
			}
		}
		awarded = append(awarded, a)
	}
	return awarded, nil
}

func metricValue(t storage.ProfileTotals, metric string) float64 {
	switch metric {
	case gamification.MetricTotalInvested:
		return t.TotalInvested
	case gamification.MetricTotalDeposited:
		return t.TotalDeposited
	case gamification.MetricReferralCount:
		return float64(t.ReferralCount)
	case gamification.MetricLongestStreak:
		return float64(t.LongestStreak)
	default:
		return 0
	}
}

// CreateAchievement registers an achievement definition. Admin only.
func (s *Service) CreateAchievement(ctx context.Context, a gamification.Achievement) (gamification.Achievement, error) {
	if a.Name == "" {
		return gamification.Achievement{}, fmt.Errorf("name is required")
	}
	switch a.Metric {
	case gamification.MetricTotalInvested, gamification.MetricTotalDeposited,
		gamification.MetricReferralCount, gamification.MetricLongestStreak:
	default:
		return gamification.Achievement{}, fmt.Errorf("unknown metric %q", a.Metric)
	}
	if a.Threshold <= 0 {
		return gamification.Achievement{}, fmt.Errorf("threshold must be positive")
	}
	return s.store.CreateAchievement(ctx, a)
}

// CreateChallenge registers a weekly challenge. Admin only.
func (s *Service) CreateChallenge(ctx context.Context, c gamification.WeeklyChallenge) (gamification.WeeklyChallenge, error) {
	if c.Name == "" {
		return gamification.WeeklyChallenge{}, fmt.Errorf("name is required")
	}
	if c.Target <= 0 {
		return gamification.WeeklyChallenge{}, fmt.Errorf("target must be positive")
	}
	if !c.EndsAt.After(c.StartsAt) {
		return gamification.WeeklyChallenge{}, fmt.Errorf("ends_at must follow starts_at")
	}
	return s.store.CreateChallenge(ctx, c)
}

// ListChallenges returns the challenges active right now.
func (s *Service) ListChallenges(ctx context.Context) ([]gamification.WeeklyChallenge, error) {
	return s.store.ListChallenges(ctx, s.now().UTC())
}

// JoinChallenge enrolls the profile in an active challenge.
func (s *Service) JoinChallenge(ctx context.Context, profileID, challengeID string) (gamification.UserChallenge, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return gamification.UserChallenge{}, err
	}
	now := s.now().UTC()
	if now.Before(c.StartsAt) || !now.Before(c.EndsAt) {
		return gamification.UserChallenge{}, ErrChallengeInactive
	}
	return s.store.CreateUserChallenge(ctx, gamification.UserChallenge{
		ProfileID:   profileID,
		ChallengeID: challengeID,
	})
}

// ProgressChallenge advances the profile's counter. Reaching the target pays
// the reward and completes the entry; further progress is ignored.
func (s *Service) ProgressChallenge(ctx context.Context, profileID, challengeID string, increment int) (gamification.UserChallenge, error) {
	if increment <= 0 {
		return gamification.UserChallenge{}, fmt.Errorf("increment must be positive")
	}

	uc, err := s.store.GetUserChallenge(ctx, profileID, challengeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return gamification.UserChallenge{}, ErrNotJoined
		}
		return gamification.UserChallenge{}, err
	}
	if uc.Status == gamification.ChallengeComplete {
		return uc, nil
	}
	if uc.Status == gamification.ChallengeExpired {
		return gamification.UserChallenge{}, ErrChallengeInactive
	}

	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return gamification.UserChallenge{}, err
	}
	now := s.now().UTC()
	if !now.Before(c.EndsAt) {
		return gamification.UserChallenge{}, ErrChallengeInactive
	}

	uc.Progress += increment
	if uc.Progress >= c.Target {
		uc.Progress = c.Target
		uc.Status = gamification.ChallengeComplete
		uc.CompletedAt = now
	}

	updated, err := s.store.UpdateUserChallenge(ctx, uc)
	if err != nil {
		return gamification.UserChallenge{}, err
	}
	if updated.Status == gamification.ChallengeComplete && c.Reward > 0 {
		if err := s.credit(ctx, profileID, wallet.TypeChallengeBonus, c.Reward, "Challenge: "+c.Name); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// State returns the combined streak and level view, with zero values for
// profiles that have no state yet.
func (s *Service) State(ctx context.Context, profileID string) (gamification.State, error) {
	var state gamification.State

	st, err := s.store.GetStreak(ctx, profileID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return gamification.State{}, err
	}
	state.Streak = st

	l, err := s.store.GetLevel(ctx, profileID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return gamification.State{}, err
		}
		l = gamification.Level{ProfileID: profileID, Level: 1, Title: levelThresholds[0].Title}
	}
	state.Level = l
	return state, nil
}

// ExpireEnded marks joined entries of finished challenges as expired.
func (s *Service) ExpireEnded(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ExpireUserChallenges(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Infof("expired %d challenge entries", expired)
	}
	return expired, nil
}

func (s *Service) addXP(ctx context.Context, profileID string, xp int64) (gamification.Level, error) {
	l, err := s.store.GetLevel(ctx, profileID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return gamification.Level{}, err
		}
		l = gamification.Level{ProfileID: profileID}
	}

	l.XP += xp
	for _, t := range levelThresholds {
		if l.XP >= t.XP {
			l.Level = t.Level
			l.Title = t.Title
		}
	}
	return s.store.UpsertLevel(ctx, l)
}

func (s *Service) credit(ctx context.Context, profileID, txType string, amount float64, description string) error {
	_, _, err := s.wallets.ApplyWalletDelta(ctx, profileID, wallet.Delta{Balance: amount}, wallet.Transaction{
		Type:        txType,
		Amount:      amount,
		Description: description,
	})
	return err
}
