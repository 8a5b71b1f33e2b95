package gamification

import "time"

// Streak tracks consecutive daily logins. LastLoginDate is a calendar date
// (UTC midnight); LongestStreak is monotonically non-decreasing.
type Streak struct {
	ProfileID     string    `json:"profile_id" db:"profile_id"`
	CurrentStreak int       `json:"current_streak" db:"current_streak"`
	LongestStreak int       `json:"longest_streak" db:"longest_streak"`
	LastLoginDate time.Time `json:"last_login_date" db:"last_login_date"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StreakClaim records a milestone reward claim, keyed by
// (profile, streak day, date) so each milestone pays at most once per day.
type StreakClaim struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	StreakDay int       `json:"streak_day" db:"streak_day"`
	ClaimDate time.Time `json:"claim_date" db:"claim_date"`
	Amount    float64   `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Level is derived progression state. Level and Title follow the highest
// threshold whose XP requirement is met.
type Level struct {
	ProfileID string    `json:"profile_id" db:"profile_id"`
	XP        int64     `json:"xp" db:"xp"`
	Level     int       `json:"level" db:"level"`
	Title     string    `json:"title" db:"title"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SpinRecord gates the daily free spin: one row per profile per calendar date.
type SpinRecord struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	SpinDate  time.Time `json:"spin_date" db:"spin_date"`
	Prize     float64   `json:"prize" db:"prize"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Achievement requirement metrics.
const (
	MetricTotalInvested  = "total_invested"
	MetricTotalDeposited = "total_deposited"
	MetricReferralCount  = "referral_count"
	MetricLongestStreak  = "longest_streak"
)

// Achievement is a single-dimension milestone over a profile's aggregated
// totals.
type Achievement struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Metric      string    `json:"metric" db:"metric"`
	Threshold   float64   `json:"threshold" db:"threshold"`
	Reward      float64   `json:"reward" db:"reward"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserAchievement records an awarded achievement.
type UserAchievement struct {
	ID            string    `json:"id" db:"id"`
	ProfileID     string    `json:"profile_id" db:"profile_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	AwardedAt     time.Time `json:"awarded_at" db:"awarded_at"`
}

// Challenge statuses for a participant.
const (
	ChallengeJoined   = "joined"
	ChallengeComplete = "completed"
	ChallengeExpired  = "expired"
)

// WeeklyChallenge is an admin-defined progress goal with a fixed window.
type WeeklyChallenge struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Target      int       `json:"target" db:"target"`
	Reward      float64   `json:"reward" db:"reward"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserChallenge tracks one profile's progress in a challenge. The reward is
// paid once, when Progress first reaches the challenge target.
type UserChallenge struct {
	ID          string    `json:"id" db:"id"`
	ProfileID   string    `json:"profile_id" db:"profile_id"`
	ChallengeID string    `json:"challenge_id" db:"challenge_id"`
	Progress    int       `json:"progress" db:"progress"`
	Status      string    `json:"status" db:"status"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// State is the combined gamification view returned to the client.
type State struct {
	Streak Streak `json:"streak"`
	Level  Level  `json:"level"`
}
