package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/domain/setting"
)

// --- SettingStore -----------------------------------------------------------

func (s *Store) UpsertSetting(ctx context.Context, st setting.Setting) (setting.Setting, error) {
	st.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
	`, st.Key, st.Value, toNullString(st.UpdatedBy), st.UpdatedAt)
	if err != nil {
		return setting.Setting{}, err
	}
	return st, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (setting.Setting, error) {
	var (
		st        setting.Setting
		updatedBy sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`, key)
	if err := row.Scan(&st.Key, &st.Value, &updatedBy, &st.UpdatedAt); err != nil {
		return setting.Setting{}, translateErr(err, "setting "+key)
	}
	if updatedBy.Valid {
		st.UpdatedBy = updatedBy.String
	}
	return st, nil
}

func (s *Store) ListSettings(ctx context.Context) ([]setting.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []setting.Setting
	for rows.Next() {
		var (
			st        setting.Setting
			updatedBy sql.NullString
		)
		if err := rows.Scan(&st.Key, &st.Value, &updatedBy, &st.UpdatedAt); err != nil {
			return nil, err
		}
		if updatedBy.Valid {
			st.UpdatedBy = updatedBy.String
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// --- SecurityStore ----------------------------------------------------------

func (s *Store) CreateActivity(ctx context.Context, a security.Activity) (security.Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suspicious_activities (id, profile_id, kind, severity, detail, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, toNullString(a.ProfileID), a.Kind, a.Severity, a.Detail, a.Resolved, a.CreatedAt)
	if err != nil {
		return security.Activity{}, err
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, unresolvedOnly bool) ([]security.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, kind, severity, detail, resolved, created_at
		FROM suspicious_activities
		WHERE $1 = false OR resolved = false
		ORDER BY created_at DESC
	`, unresolvedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []security.Activity
	for rows.Next() {
		var (
			a         security.Activity
			profileID sql.NullString
		)
		if err := rows.Scan(&a.ID, &profileID, &a.Kind, &a.Severity, &a.Detail, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, err
		}
		if profileID.Valid {
			a.ProfileID = profileID.String
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) ResolveActivity(ctx context.Context, id string) (security.Activity, error) {
	var (
		a         security.Activity
		profileID sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		UPDATE suspicious_activities
		SET resolved = true
		WHERE id = $1
		RETURNING id, profile_id, kind, severity, detail, resolved, created_at
	`, id)
	if err := row.Scan(&a.ID, &profileID, &a.Kind, &a.Severity, &a.Detail, &a.Resolved, &a.CreatedAt); err != nil {
		return security.Activity{}, translateErr(err, fmt.Sprintf("activity %s", id))
	}
	if profileID.Valid {
		a.ProfileID = profileID.String
	}
	return a, nil
}
