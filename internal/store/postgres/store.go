package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/membership"
	"gymPassAPI/internal/user"
)

// Store implements store.Store on top of the hosted Postgres database.
// Business rules that live in the database (RLS policies, constraints)
// are invoked here, not re-implemented.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ---------------------------------------------------------------------------
// Tokens

const tokenColumns = `id, user_id, category, status, code, issued_at, expires_at, last_scanned_at, scan_count`

func scanToken(row pgx.Row) (*access.Token, error) {
	var t access.Token
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Category,
		&t.Status,
		&t.Code,
		&t.IssuedAt,
		&t.ExpiresAt,
		&t.LastScannedAt,
		&t.ScanCount,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) FindActiveToken(ctx context.Context, userID uuid.UUID, category access.Category) (*access.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM access_tokens
		WHERE user_id = $1 AND category = $2 AND status = 'active'
		ORDER BY issued_at DESC
		LIMIT 1
	`
	t, err := scanToken(s.db.QueryRow(ctx, query, userID, category))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active token: %w", err)
	}
	return t, nil
}

func (s *Store) FindTokenByCode(ctx context.Context, code string, status access.Status) (*access.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM access_tokens
		WHERE code = $1 AND status = $2
	`
	t, err := scanToken(s.db.QueryRow(ctx, query, code, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token by code: %w", err)
	}
	return t, nil
}

func (s *Store) InsertToken(ctx context.Context, t *access.Token) error {
	query := `
		INSERT INTO access_tokens (
			id, user_id, category, status, code, issued_at, expires_at, scan_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Category,
		t.Status,
		t.Code,
		t.IssuedAt,
		t.ExpiresAt,
		t.ScanCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

func (s *Store) UpdateTokenStatus(ctx context.Context, id uuid.UUID, status access.Status) error {
	query := `UPDATE access_tokens SET status = $1 WHERE id = $2`
	_, err := s.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update token status: %w", err)
	}
	return nil
}

func (s *Store) DeactivateActiveTokens(ctx context.Context, userID uuid.UUID, category access.Category) (int64, error) {
	query := `
		UPDATE access_tokens
		SET status = 'inactive'
		WHERE user_id = $1 AND category = $2 AND status = 'active'
	`
	tag, err := s.db.Exec(ctx, query, userID, category)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordScan increments the counter in a single conditional UPDATE so that
// concurrent entrance/exit scans of the same token cannot lose updates.
func (s *Store) RecordScan(ctx context.Context, id uuid.UUID, at time.Time, limit int) (int, bool, error) {
	query := `
		UPDATE access_tokens
		SET scan_count = scan_count + 1, last_scanned_at = $2
		WHERE id = $1 AND status = 'active' AND scan_count < $3
		RETURNING scan_count
	`
	var count int
	err := s.db.QueryRow(ctx, query, id, at, limit).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to record scan: %w", err)
	}
	return count, true, nil
}

// ---------------------------------------------------------------------------
// Audit log

func (s *Store) InsertAuditLog(ctx context.Context, entry *access.AuditLog) error {
	query := `
		INSERT INTO scan_audit_logs (
			id, token_id, user_id, scan_type, outcome, reason,
			scanned_by, client_ip, user_agent, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.TokenID,
		entry.UserID,
		entry.ScanType,
		entry.Outcome,
		entry.Reason,
		entry.ScannedBy,
		entry.ClientIP,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, limit, offset int) ([]*access.AuditLog, error) {
	query := `
		SELECT id, token_id, user_id, scan_type, outcome, reason,
		       scanned_by, client_ip, user_agent, created_at
		FROM scan_audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*access.AuditLog
	for rows.Next() {
		var entry access.AuditLog
		err := rows.Scan(
			&entry.ID,
			&entry.TokenID,
			&entry.UserID,
			&entry.ScanType,
			&entry.Outcome,
			&entry.Reason,
			&entry.ScannedBy,
			&entry.ClientIP,
			&entry.UserAgent,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		logs = append(logs, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// ---------------------------------------------------------------------------
// Memberships

const membershipColumns = `id, user_id, package_type, is_active, start_date, end_date`

func (s *Store) FindActiveMembership(ctx context.Context, userID uuid.UUID, packageTypes []string, day time.Time) (*membership.Membership, error) {
	// end_date is a DATE column; comparing against the caller's calendar
	// date keeps the check at day granularity.
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		  AND package_type = ANY($2)
		  AND is_active = true
		  AND end_date >= $3::date
		ORDER BY end_date DESC
		LIMIT 1
	`
	var m membership.Membership
	err := s.db.QueryRow(ctx, query, userID, packageTypes, day).Scan(
		&m.ID,
		&m.UserID,
		&m.PackageType,
		&m.IsActive,
		&m.StartDate,
		&m.EndDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active membership: %w", err)
	}
	return &m, nil
}

func (s *Store) FindAcceptedPersonalSchedule(ctx context.Context, userID uuid.UUID) (*membership.PersonalSchedule, error) {
	query := `
		SELECT id, user_id, trainer_id, status, created_at
		FROM personal_schedules
		WHERE user_id = $1 AND status = 'accepted'
		ORDER BY created_at DESC
		LIMIT 1
	`
	var ps membership.PersonalSchedule
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&ps.ID,
		&ps.UserID,
		&ps.TrainerID,
		&ps.Status,
		&ps.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find personal schedule: %w", err)
	}
	return &ps, nil
}

func (s *Store) ListMemberships(ctx context.Context, userID uuid.UUID) ([]*membership.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY end_date DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*membership.Membership
	for rows.Next() {
		var m membership.Membership
		err := rows.Scan(&m.ID, &m.UserID, &m.PackageType, &m.IsActive, &m.StartDate, &m.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership row: %w", err)
		}
		memberships = append(memberships, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ---------------------------------------------------------------------------
// Users

const userColumns = `id, clerk_id, email, username, first_name, last_name, image_url, role, email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
		INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'member')
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(s.db.QueryRow(ctx, query,
		uuid.New(),
		req.ClerkID,
		req.Email,
		req.Username,
		req.FirstName,
		req.LastName,
		req.ImageURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
		UPDATE users
		SET username   = COALESCE(NULLIF($2, ''), username),
		    first_name = COALESCE(NULLIF($3, ''), first_name),
		    last_name  = COALESCE(NULLIF($4, ''), last_name),
		    image_url  = COALESCE(NULLIF($5, ''), image_url),
		    updated_at = NOW()
		WHERE clerk_id = $1
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return u, nil
}

func (s *Store) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (s *Store) HasRole(ctx context.Context, userID uuid.UUID, roles ...user.Role) (bool, error) {
	roleStrings := make([]string, len(roles))
	for i, r := range roles {
		roleStrings[i] = string(r)
	}
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = ANY($2))`
	var ok bool
	if err := s.db.QueryRow(ctx, query, userID, roleStrings).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return ok, nil
}

// ---------------------------------------------------------------------------
// Feature flags

func (s *Store) IsFeatureEnabled(ctx context.Context, name string) (bool, error) {
	query := `SELECT enabled FROM feature_flags WHERE name = $1`
	var enabled bool
	err := s.db.QueryRow(ctx, query, name).Scan(&enabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Unknown flags default to enabled so a missing row cannot
			// silently shut down scanning.
			return true, nil
		}
		return false, fmt.Errorf("failed to read feature flag: %w", err)
	}
	return enabled, nil
}
