package access

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCategory means the caller passed a category outside the
	// closed set. This is a configuration error, not a user-facing denial.
	ErrInvalidCategory = errors.New("invalid token category")

	// ErrForbidden means the caller is not allowed to act on behalf of the
	// target user. Kept distinct from eligibility denials so the client does
	// not suggest buying a membership when the real problem is permissions.
	ErrForbidden = errors.New("caller is not allowed to act on behalf of this user")

	// ErrTokenNotFound means no token matched the lookup.
	ErrTokenNotFound = errors.New("token not found")

	// ErrUserNotFound means the Clerk subject has no local user record. Kept
	// distinct from StoreError so an outage is never reported as a missing
	// account.
	ErrUserNotFound = errors.New("user not found")
)

// NotEligibleError is returned when issuance is denied because the user has
// no qualifying membership or schedule for the requested category.
type NotEligibleError struct {
	UserID   uuid.UUID
	Category Category
}

func (e *NotEligibleError) Error() string {
	if e.Category == CategoryPersonal {
		return fmt.Sprintf("no accepted personal training schedule for user %s", e.UserID)
	}
	return fmt.Sprintf("no active %s membership for user %s", e.Category, e.UserID)
}

// StoreError wraps a transient persistence failure. Callers must never treat
// it as a legitimate denial; it is retryable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
