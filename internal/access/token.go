package access

import (
	"time"

	"github.com/google/uuid"
)

// Category is the activity class a token authorizes entry for.
type Category string

const (
	CategoryFreeGym  Category = "free_gym"
	CategoryPilates  Category = "pilates"
	CategoryPersonal Category = "personal"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFreeGym, CategoryPilates, CategoryPersonal:
		return true
	}
	return false
}

// MembershipPackageTypes returns the membership package types that satisfy
// this category. A generic "standard" package also grants free gym access.
func (c Category) MembershipPackageTypes() []string {
	switch c {
	case CategoryFreeGym:
		return []string{"free_gym", "standard"}
	case CategoryPilates:
		return []string{"pilates"}
	}
	return nil
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

type ScanType string

const (
	ScanEntrance ScanType = "entrance"
	ScanExit     ScanType = "exit"
)

func (t ScanType) Valid() bool {
	return t == ScanEntrance || t == ScanExit
}

// Token is the QR credential binding a user to an activity category.
// At most one token per (user, category) may be active at a time.
type Token struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Category      Category   `json:"category"`
	Status        Status     `json:"status"`
	Code          string     `json:"code"`
	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	ScanCount     int        `json:"scan_count"`
}

// Expired reports whether the token's expiry timestamp, if set, has passed.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
