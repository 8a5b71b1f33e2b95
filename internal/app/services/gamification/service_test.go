package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vestapay/platform/internal/app/domain/gamification"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func newTestService(t *testing.T, at time.Time) (*Service, *memory.Store, *time.Time) {
	t.Helper()
	store := memory.New()
	if _, err := store.CreateWallet(context.Background(), wallet.Wallet{ProfileID: "user-1"}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	svc := New(store, store, 5000, nil)
	now := at
	svc.now = func() time.Time { return now }
	return svc, store, &now
}

func TestRecordLoginStreak(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, _, now := newTestService(t, day1)

	st, err := svc.RecordLogin(ctx, "user-1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if st.CurrentStreak != 1 || st.LongestStreak != 1 {
		t.Fatalf("first login streak %d/%d, want 1/1", st.CurrentStreak, st.LongestStreak)
	}

	// Same-day repeat does not advance.
	*now = day1.Add(6 * time.Hour)
	st, err = svc.RecordLogin(ctx, "user-1")
	if err != nil {
		t.Fatalf("repeat login: %v", err)
	}
	if st.CurrentStreak != 1 {
		t.Fatalf("same-day repeat advanced streak to %d", st.CurrentStreak)
	}

	// Next calendar day advances.
	*now = day1.AddDate(0, 0, 1)
	st, _ = svc.RecordLogin(ctx, "user-1")
	if st.CurrentStreak != 2 {
		t.Fatalf("consecutive day streak %d, want 2", st.CurrentStreak)
	}

	// A missed day resets to 1 but keeps the longest.
	*now = day1.AddDate(0, 0, 4)
	st, _ = svc.RecordLogin(ctx, "user-1")
	if st.CurrentStreak != 1 {
		t.Fatalf("streak after gap %d, want 1", st.CurrentStreak)
	}
	if st.LongestStreak != 2 {
		t.Fatalf("longest streak %d, want 2", st.LongestStreak)
	}
}

func TestLoginGrantsXP(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, day1)

	if _, err := svc.RecordLogin(ctx, "user-1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	l, err := store.GetLevel(ctx, "user-1")
	if err != nil {
		t.Fatalf("get level: %v", err)
	}
	if l.XP != 10 || l.Level != 1 || l.Title != "Starter" {
		t.Fatalf("unexpected level after login: %+v", l)
	}
}

func TestClaimStreakReward(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store, now := newTestService(t, day1)

	for i := 0; i < 3; i++ {
		*now = day1.AddDate(0, 0, i)
		if _, err := svc.RecordLogin(ctx, "user-1"); err != nil {
			t.Fatalf("login day %d: %v", i+1, err)
		}
	}

	if _, err := svc.ClaimStreakReward(ctx, "user-1", 4); !errors.Is(err, ErrUnknownMilestone) {
		t.Fatalf("expected ErrUnknownMilestone for day 4, got %v", err)
	}
	if _, err := svc.ClaimStreakReward(ctx, "user-1", 7); !errors.Is(err, ErrMilestoneNotMet) {
		t.Fatalf("expected ErrMilestoneNotMet for day 7, got %v", err)
	}

	amount, err := svc.ClaimStreakReward(ctx, "user-1", 3)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if amount != 500 {
		t.Fatalf("day 3 reward %.2f, want 500", amount)
	}
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 500 {
		t.Fatalf("balance %.2f, want 500", w.Balance)
	}

	// Claiming the same milestone again today hits the claim key.
	if _, err := svc.ClaimStreakReward(ctx, "user-1", 3); err == nil {
		t.Fatalf("expected error on duplicate claim")
	}
	w, _ = store.GetWallet(ctx, "user-1")
	if w.Balance != 500 {
		t.Fatalf("duplicate claim paid: %.2f", w.Balance)
	}
}

func TestSpin(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store, now := newTestService(t, day1)

	rec, err := svc.Spin(ctx, "user-1", 9999999)
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if rec.Prize != 5000 {
		t.Fatalf("prize %.2f, want clamped to 5000", rec.Prize)
	}
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 5000 {
		t.Fatalf("balance %.2f, want 5000", w.Balance)
	}

	if _, err := svc.Spin(ctx, "user-1", 100); !errors.Is(err, ErrAlreadySpun) {
		t.Fatalf("expected ErrAlreadySpun, got %v", err)
	}

	// The gate resets at the next calendar day.
	*now = day1.AddDate(0, 0, 1)
	rec, err = svc.Spin(ctx, "user-1", 100)
	if err != nil {
		t.Fatalf("next-day spin: %v", err)
	}
	if rec.Prize != 100 {
		t.Fatalf("prize %.2f, want 100", rec.Prize)
	}
}

func TestCheckAchievements(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, day1)

	if _, err := svc.CreateAchievement(ctx, gamification.Achievement{
		Name: "First Grand", Metric: gamification.MetricTotalInvested, Threshold: 1000, Reward: 50,
	}); err != nil {
		t.Fatalf("create achievement: %v", err)
	}

	// Nothing invested yet.
	awarded, err := svc.CheckAchievements(ctx, "user-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("awarded %d with no progress, want 0", len(awarded))
	}

	// Push total_invested over the threshold.
	_, _, err = store.ApplyWalletDelta(ctx, "user-1", wallet.Delta{Balance: 2000}, wallet.Transaction{Type: wallet.TypeDeposit, Amount: 2000})
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	_, _, err = store.ApplyWalletDelta(ctx, "user-1", wallet.Delta{Balance: -1500, TotalInvested: 1500}, wallet.Transaction{Type: wallet.TypeInvestment, Amount: -1500})
	if err != nil {
		t.Fatalf("invest: %v", err)
	}

	awarded, err = svc.CheckAchievements(ctx, "user-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(awarded) != 1 || awarded[0].Name != "First Grand" {
		t.Fatalf("unexpected awards: %+v", awarded)
	}
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 550 {
		t.Fatalf("balance %.2f, want 550 (500 remaining + 50 reward)", w.Balance)
	}

	// Re-checking must not award or pay again.
	awarded, err = svc.CheckAchievements(ctx, "user-1")
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("achievement awarded twice")
	}
}

func TestCreateAchievementValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, time.Now())

	if _, err := svc.CreateAchievement(ctx, gamification.Achievement{Metric: gamification.MetricTotalInvested, Threshold: 1}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := svc.CreateAchievement(ctx, gamification.Achievement{Name: "x", Metric: "bogus", Threshold: 1}); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
	if _, err := svc.CreateAchievement(ctx, gamification.Achievement{Name: "x", Metric: gamification.MetricReferralCount}); err == nil {
		t.Fatalf("expected error for zero threshold")
	}
}

func TestChallengeFlow(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	svc, store, now := newTestService(t, day1.Add(12*time.Hour))

	c, err := svc.CreateChallenge(ctx, gamification.WeeklyChallenge{
		Name:     "Invest 3 times",
		Target:   3,
		Reward:   750,
		StartsAt: day1,
		EndsAt:   day1.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	active, err := svc.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active challenges %d, want 1", len(active))
	}

	if _, err := svc.ProgressChallenge(ctx, "user-1", c.ID, 1); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined before joining, got %v", err)
	}

	uc, err := svc.JoinChallenge(ctx, "user-1", c.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if uc.Status != gamification.ChallengeJoined {
		t.Fatalf("status %q, want joined", uc.Status)
	}

	uc, err = svc.ProgressChallenge(ctx, "user-1", c.ID, 2)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if uc.Progress != 2 || uc.Status != gamification.ChallengeJoined {
		t.Fatalf("unexpected entry after progress: %+v", uc)
	}

	// Overshooting pins progress at the target and pays the reward once.
	uc, err = svc.ProgressChallenge(ctx, "user-1", c.ID, 5)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if uc.Progress != 3 || uc.Status != gamification.ChallengeComplete {
		t.Fatalf("unexpected entry after completion: %+v", uc)
	}
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 750 {
		t.Fatalf("balance %.2f, want 750", w.Balance)
	}

	uc, err = svc.ProgressChallenge(ctx, "user-1", c.ID, 1)
	if err != nil {
		t.Fatalf("post-completion progress: %v", err)
	}
	if uc.Progress != 3 {
		t.Fatalf("progress moved after completion: %d", uc.Progress)
	}
	w, _ = store.GetWallet(ctx, "user-1")
	if w.Balance != 750 {
		t.Fatalf("reward paid twice: %.2f", w.Balance)
	}

	// After the window closes the sweep expires unfinished entries; this one
	// is complete and stays complete.
	*now = day1.AddDate(0, 0, 8)
	if _, err := svc.ExpireEnded(ctx, *now); err != nil {
		t.Fatalf("expire: %v", err)
	}
	got, err := store.GetUserChallenge(ctx, "user-1", c.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.Status != gamification.ChallengeComplete {
		t.Fatalf("completed entry flipped to %q", got.Status)
	}
}

func TestExpireEndedChallenges(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	svc, store, now := newTestService(t, day1.Add(time.Hour))

	c, err := svc.CreateChallenge(ctx, gamification.WeeklyChallenge{
		Name: "Stalled", Target: 5, StartsAt: day1, EndsAt: day1.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	if _, err := svc.JoinChallenge(ctx, "user-1", c.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Nothing expires while the window is open.
	n, err := svc.ExpireEnded(ctx, *now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 0 {
		t.Fatalf("expired %d during window, want 0", n)
	}

	*now = day1.AddDate(0, 0, 8)
	n, err = svc.ExpireEnded(ctx, *now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d, want 1", n)
	}

	if _, err := svc.ProgressChallenge(ctx, "user-1", c.ID, 1); !errors.Is(err, ErrChallengeInactive) {
		t.Fatalf("expected ErrChallengeInactive on expired entry, got %v", err)
	}
	got, _ := store.GetUserChallenge(ctx, "user-1", c.ID)
	if got.Status != gamification.ChallengeExpired {
		t.Fatalf("status %q, want expired", got.Status)
	}

	// Re-running the sweep finds nothing new.
	n, _ = svc.ExpireEnded(ctx, *now)
	if n != 0 {
		t.Fatalf("repeat sweep expired %d, want 0", n)
	}
}

func TestJoinOutsideWindow(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	svc, _, now := newTestService(t, day1.AddDate(0, 0, -1))

	c, err := svc.CreateChallenge(ctx, gamification.WeeklyChallenge{
		Name: "Future", Target: 3, StartsAt: day1, EndsAt: day1.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	if _, err := svc.JoinChallenge(ctx, "user-1", c.ID); !errors.Is(err, ErrChallengeInactive) {
		t.Fatalf("expected ErrChallengeInactive before start, got %v", err)
	}
	*now = day1.AddDate(0, 0, 7)
	if _, err := svc.JoinChallenge(ctx, "user-1", c.ID); !errors.Is(err, ErrChallengeInactive) {
		t.Fatalf("expected ErrChallengeInactive after end, got %v", err)
	}
}
