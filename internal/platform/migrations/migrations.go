// Package migrations holds the PostgreSQL schema. Statements are idempotent
// (IF NOT EXISTS) and applied in order on startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT,
		hide_balance BOOLEAN NOT NULL DEFAULT FALSE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		profile_id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_invested DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_returns DOUBLE PRECISION NOT NULL DEFAULT 0,
		pending_returns DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT wallets_balance_non_negative CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_profile ON transactions (profile_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		expected_return DOUBLE PRECISION NOT NULL,
		duration_days INTEGER NOT NULL,
		total_units INTEGER NOT NULL DEFAULT 0,
		units_sold INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		popular BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		amount DOUBLE PRECISION NOT NULL,
		expected_return DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		purchased_at TIMESTAMPTZ NOT NULL,
		matures_at TIMESTAMPTZ NOT NULL,
		matured_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_investments_maturable ON investments (status, matures_at)`,
	`CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL,
		method TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		reviewed_by TEXT,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL,
		destination TEXT NOT NULL,
		status TEXT NOT NULL,
		reviewed_by TEXT,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		referred_id TEXT NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
		reward_amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		rewarded_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS streaks (
		profile_id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_login_date DATE NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS streak_claims (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		streak_day INTEGER NOT NULL,
		claim_date DATE NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (profile_id, streak_day, claim_date)
	)`,
	`CREATE TABLE IF NOT EXISTS levels (
		profile_id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
		xp BIGINT NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		title TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spins (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		spin_date DATE NOT NULL,
		prize DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (profile_id, spin_date)
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		metric TEXT NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		reward DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_achievements (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		achievement_id TEXT NOT NULL REFERENCES achievements(id),
		awarded_at TIMESTAMPTZ NOT NULL,
		UNIQUE (profile_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		target INTEGER NOT NULL,
		reward DOUBLE PRECISION NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_challenges (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		challenge_id TEXT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
		progress INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		UNIQUE (profile_id, challenge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value JSONB NOT NULL,
		updated_by TEXT,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS suspicious_activities (
		id TEXT PRIMARY KEY,
		profile_id TEXT,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_suspicious_unresolved ON suspicious_activities (resolved, created_at DESC)`,
}

// Apply executes every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
