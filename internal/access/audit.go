package access

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Reason is the code attached to a scan decision.
type Reason string

const (
	ReasonApproved          Reason = "approved"
	ReasonSystemDisabled    Reason = "system_disabled"
	ReasonInvalidFormat     Reason = "invalid_format"
	ReasonNotFound          Reason = "not_found"
	ReasonExpired           Reason = "expired"
	ReasonScanLimitExceeded Reason = "scan_limit_exceeded"
	ReasonSystemError       Reason = "system_error"
)

// AuditLog is a write-once record of a single validation attempt.
// TokenID and UserID are nil when the scanned code never resolved to a token.
type AuditLog struct {
	ID        uuid.UUID  `json:"id"`
	TokenID   *uuid.UUID `json:"token_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ScanType  ScanType   `json:"scan_type"`
	Outcome   Outcome    `json:"outcome"`
	Reason    Reason     `json:"reason"`
	ScannedBy *uuid.UUID `json:"scanned_by,omitempty"`
	ClientIP  string     `json:"client_ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ScanMeta carries the validating actor and client metadata into the audit log.
type ScanMeta struct {
	ScannedBy *uuid.UUID
	ClientIP  string
	UserAgent string
}

// ScanResult is the outcome returned to the scanning client. UserID and
// Category are populated on approval so the operator UI can show who entered
// without a second round trip.
type ScanResult struct {
	Approved  bool       `json:"approved"`
	Reason    Reason     `json:"reason"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Category  Category   `json:"category,omitempty"`
	ScanCount int        `json:"scan_count,omitempty"`
}
