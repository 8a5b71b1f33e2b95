package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vestapay/platform/internal/app/domain/gamification"
	"github.com/vestapay/platform/internal/app/domain/payment"
	"github.com/vestapay/platform/internal/app/storage"
)

// dateOf truncates a timestamp to its UTC calendar date. Streaks, milestone
// claims and spins are all keyed by calendar date, not by timestamp.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// --- Streaks ----------------------------------------------------------------

func (s *Store) GetStreak(ctx context.Context, profileID string) (gamification.Streak, error) {
	var st gamification.Streak
	err := s.db.GetContext(ctx, &st, `
		SELECT profile_id, current_streak, longest_streak, last_login_date, updated_at
		FROM streaks WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return gamification.Streak{}, translateErr(err, "streak "+profileID)
	}
	return st, nil
}

func (s *Store) UpsertStreak(ctx context.Context, st gamification.Streak) (gamification.Streak, error) {
	st.LastLoginDate = dateOf(st.LastLoginDate)
	st.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streaks (profile_id, current_streak, longest_streak, last_login_date, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    last_login_date = EXCLUDED.last_login_date,
		    updated_at = EXCLUDED.updated_at
	`, st.ProfileID, st.CurrentStreak, st.LongestStreak, st.LastLoginDate, st.UpdatedAt)
	if err != nil {
		return gamification.Streak{}, err
	}
	return st, nil
}

func (s *Store) CreateStreakClaim(ctx context.Context, c gamification.StreakClaim) (gamification.StreakClaim, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.ClaimDate = dateOf(c.ClaimDate)
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streak_claims (id, profile_id, streak_day, claim_date, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ProfileID, c.StreakDay, c.ClaimDate, c.Amount, c.CreatedAt)
	if err != nil {
		return gamification.StreakClaim{}, translateErr(err, fmt.Sprintf("streak claim %s day %d", c.ProfileID, c.StreakDay))
	}
	return c, nil
}

// --- Levels -----------------------------------------------------------------

func (s *Store) GetLevel(ctx context.Context, profileID string) (gamification.Level, error) {
	var l gamification.Level
	err := s.db.GetContext(ctx, &l, `
		SELECT profile_id, xp, level, title, updated_at
		FROM levels WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return gamification.Level{}, translateErr(err, "level "+profileID)
	}
	return l, nil
}

func (s *Store) UpsertLevel(ctx context.Context, l gamification.Level) (gamification.Level, error) {
	l.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO levels (profile_id, xp, level, title, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id) DO UPDATE
		SET xp = EXCLUDED.xp, level = EXCLUDED.level, title = EXCLUDED.title, updated_at = EXCLUDED.updated_at
	`, l.ProfileID, l.XP, l.Level, l.Title, l.UpdatedAt)
	if err != nil {
		return gamification.Level{}, err
	}
	return l, nil
}

// --- Spins ------------------------------------------------------------------

func (s *Store) CreateSpin(ctx context.Context, sp gamification.SpinRecord) (gamification.SpinRecord, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	sp.SpinDate = dateOf(sp.SpinDate)
	sp.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spins (id, profile_id, spin_date, prize, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sp.ID, sp.ProfileID, sp.SpinDate, sp.Prize, sp.CreatedAt)
	if err != nil {
		return gamification.SpinRecord{}, translateErr(err, "spin "+sp.ProfileID)
	}
	return sp, nil
}

func (s *Store) GetSpinForDate(ctx context.Context, profileID string, date time.Time) (gamification.SpinRecord, error) {
	var sp gamification.SpinRecord
	err := s.db.GetContext(ctx, &sp, `
		SELECT id, profile_id, spin_date, prize, created_at
		FROM spins WHERE profile_id = $1 AND spin_date = $2
	`, profileID, dateOf(date))
	if err != nil {
		return gamification.SpinRecord{}, translateErr(err, "spin "+profileID)
	}
	return sp, nil
}

// --- Achievements -----------------------------------------------------------

func (s *Store) CreateAchievement(ctx context.Context, a gamification.Achievement) (gamification.Achievement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievements (id, name, description, metric, threshold, reward, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.Name, a.Description, a.Metric, a.Threshold, a.Reward, a.CreatedAt)
	if err != nil {
		return gamification.Achievement{}, translateErr(err, "achievement "+a.Name)
	}
	return a, nil
}

func (s *Store) ListAchievements(ctx context.Context) ([]gamification.Achievement, error) {
	var result []gamification.Achievement
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, name, description, metric, threshold, reward, created_at
		FROM achievements ORDER BY threshold
	`)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateUserAchievement(ctx context.Context, ua gamification.UserAchievement) (gamification.UserAchievement, error) {
	if ua.ID == "" {
		ua.ID = uuid.NewString()
	}
	if ua.AwardedAt.IsZero() {
		ua.AwardedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_achievements (id, profile_id, achievement_id, awarded_at)
		VALUES ($1, $2, $3, $4)
	`, ua.ID, ua.ProfileID, ua.AchievementID, ua.AwardedAt)
	if err != nil {
		return gamification.UserAchievement{}, translateErr(err, "user achievement "+ua.AchievementID)
	}
	return ua, nil
}

func (s *Store) ListUserAchievements(ctx context.Context, profileID string) ([]gamification.UserAchievement, error) {
	var result []gamification.UserAchievement
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, profile_id, achievement_id, awarded_at
		FROM user_achievements WHERE profile_id = $1
		ORDER BY awarded_at
	`, profileID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- Challenges -------------------------------------------------------------

func (s *Store) CreateChallenge(ctx context.Context, c gamification.WeeklyChallenge) (gamification.WeeklyChallenge, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (id, name, description, target, reward, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.Description, c.Target, c.Reward, c.StartsAt.UTC(), c.EndsAt.UTC(), c.CreatedAt)
	if err != nil {
		return gamification.WeeklyChallenge{}, translateErr(err, "challenge "+c.Name)
	}
	return c, nil
}

func (s *Store) ListChallenges(ctx context.Context, at time.Time) ([]gamification.WeeklyChallenge, error) {
	var result []gamification.WeeklyChallenge
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, name, description, target, reward, starts_at, ends_at, created_at
		FROM challenges
		WHERE starts_at <= $1 AND ends_at > $1
		ORDER BY starts_at
	`, at.UTC())
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (gamification.WeeklyChallenge, error) {
	var c gamification.WeeklyChallenge
	err := s.db.GetContext(ctx, &c, `
		SELECT id, name, description, target, reward, starts_at, ends_at, created_at
		FROM challenges WHERE id = $1
	`, id)
	if err != nil {
		return gamification.WeeklyChallenge{}, translateErr(err, "challenge "+id)
	}
	return c, nil
}

const userChallengeColumns = `id, profile_id, challenge_id, progress, status, joined_at, completed_at`

func scanUserChallenge(row interface{ Scan(...any) error }) (gamification.UserChallenge, error) {
	var (
		uc          gamification.UserChallenge
		completedAt sql.NullTime
	)
	if err := row.Scan(&uc.ID, &uc.ProfileID, &uc.ChallengeID, &uc.Progress, &uc.Status, &uc.JoinedAt, &completedAt); err != nil {
		return gamification.UserChallenge{}, err
	}
	if completedAt.Valid {
		uc.CompletedAt = completedAt.Time.UTC()
	}
	return uc, nil
}

func (s *Store) CreateUserChallenge(ctx context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error) {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	uc.Status = gamification.ChallengeJoined
	uc.JoinedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_challenges (id, profile_id, challenge_id, progress, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uc.ID, uc.ProfileID, uc.ChallengeID, uc.Progress, uc.Status, uc.JoinedAt)
	if err != nil {
		return gamification.UserChallenge{}, translateErr(err, "user challenge "+uc.ChallengeID)
	}
	return uc, nil
}

func (s *Store) GetUserChallenge(ctx context.Context, profileID, challengeID string) (gamification.UserChallenge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userChallengeColumns+`
		FROM user_challenges WHERE profile_id = $1 AND challenge_id = $2
	`, profileID, challengeID)
	uc, err := scanUserChallenge(row)
	if err != nil {
		return gamification.UserChallenge{}, translateErr(err, "user challenge "+challengeID)
	}
	return uc, nil
}

func (s *Store) UpdateUserChallenge(ctx context.Context, uc gamification.UserChallenge) (gamification.UserChallenge, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_challenges
		SET progress = $2, status = $3, completed_at = $4
		WHERE id = $1
	`, uc.ID, uc.Progress, uc.Status, toNullTime(uc.CompletedAt))
	if err != nil {
		return gamification.UserChallenge{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return gamification.UserChallenge{}, fmt.Errorf("user challenge %s: %w", uc.ID, storage.ErrNotFound)
	}
	return uc, nil
}

func (s *Store) ExpireUserChallenges(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_challenges
		SET status = $1
		WHERE status = $2 AND challenge_id IN (SELECT id FROM challenges WHERE ends_at <= $3)
	`, gamification.ChallengeExpired, gamification.ChallengeJoined, before.UTC())
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// --- Aggregates -------------------------------------------------------------

func (s *Store) ProfileTotals(ctx context.Context, profileID string) (storage.ProfileTotals, error) {
	var totals storage.ProfileTotals

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT total_invested FROM wallets WHERE profile_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM deposits WHERE profile_id = $1 AND status = $2), 0),
			(SELECT COUNT(*) FROM referrals WHERE referrer_id = $1),
			COALESCE((SELECT longest_streak FROM streaks WHERE profile_id = $1), 0)
	`, profileID, payment.StatusApproved).Scan(&totals.TotalInvested, &totals.TotalDeposited, &totals.ReferralCount, &totals.LongestStreak)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storage.ProfileTotals{}, err
	}
	return totals, nil
}
