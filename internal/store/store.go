package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/membership"
	"gymPassAPI/internal/user"
)

// Lookup methods return (nil, nil) when no record matches; a non-nil error
// always means the store itself failed, never "not found". Callers must keep
// the two apart so a transient outage is never reported as a denial.

// TokenStore persists QR credential records.
type TokenStore interface {
	FindActiveToken(ctx context.Context, userID uuid.UUID, category access.Category) (*access.Token, error)
	FindTokenByCode(ctx context.Context, code string, status access.Status) (*access.Token, error)
	InsertToken(ctx context.Context, t *access.Token) error
	UpdateTokenStatus(ctx context.Context, id uuid.UUID, status access.Status) error
	// DeactivateActiveTokens moves every active token for (user, category) to
	// inactive and returns how many rows changed.
	DeactivateActiveTokens(ctx context.Context, userID uuid.UUID, category access.Category) (int64, error)
	// RecordScan atomically increments the scan counter and stamps
	// last_scanned_at, but only while the counter is below limit. It returns
	// the new count and false when the ceiling was already reached. The
	// conditional update happens in the store so concurrent scans cannot
	// lose increments.
	RecordScan(ctx context.Context, id uuid.UUID, at time.Time, limit int) (int, bool, error)
}

// AuditStore persists scan attempts as an append-only log.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry *access.AuditLog) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]*access.AuditLog, error)
}

// MembershipStore reads membership and personal-training records owned by
// the membership subsystem.
type MembershipStore interface {
	// FindActiveMembership returns a membership for userID whose package
	// type is in packageTypes, is_active is true and end_date is on or
	// after day (calendar-date comparison).
	FindActiveMembership(ctx context.Context, userID uuid.UUID, packageTypes []string, day time.Time) (*membership.Membership, error)
	// FindAcceptedPersonalSchedule returns the most recently created
	// accepted personal-training schedule for userID.
	FindAcceptedPersonalSchedule(ctx context.Context, userID uuid.UUID) (*membership.PersonalSchedule, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]*membership.Membership, error)
}

// UserStore persists user profiles synced from Clerk.
type UserStore interface {
	CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error)
	DeleteUserByClerkID(ctx context.Context, clerkID string) error
	UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error
	// HasRole reports whether the user holds any of the given roles.
	HasRole(ctx context.Context, userID uuid.UUID, roles ...user.Role) (bool, error)
}

// FeatureStore reads feature toggles.
type FeatureStore interface {
	IsFeatureEnabled(ctx context.Context, name string) (bool, error)
}

// Store is the full persistence contract the services are built against.
type Store interface {
	TokenStore
	AuditStore
	MembershipStore
	UserStore
	FeatureStore
}
