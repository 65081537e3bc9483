package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/store"
)

// EligibilityService decides whether a QR token may be issued for a user and
// category. It only reads membership and schedule records; the records
// themselves are owned by the membership subsystem.
type EligibilityService struct {
	store store.Store
}

func NewEligibilityService(st store.Store) *EligibilityService {
	return &EligibilityService{store: st}
}

// Check returns nil when the user is eligible for the category. A denial is
// an *access.NotEligibleError; a store failure is an *access.StoreError and
// must never be treated as a denial.
func (s *EligibilityService) Check(ctx context.Context, userID uuid.UUID, category access.Category) error {
	if !category.Valid() {
		return access.ErrInvalidCategory
	}

	if category == access.CategoryPersonal {
		schedule, err := s.store.FindAcceptedPersonalSchedule(ctx, userID)
		if err != nil {
			return &access.StoreError{Op: "find personal schedule", Err: err}
		}
		if schedule == nil {
			return &access.NotEligibleError{UserID: userID, Category: category}
		}
		return nil
	}

	m, err := s.store.FindActiveMembership(ctx, userID, category.MembershipPackageTypes(), time.Now())
	if err != nil {
		return &access.StoreError{Op: "find active membership", Err: err}
	}
	if m == nil {
		return &access.NotEligibleError{UserID: userID, Category: category}
	}
	return nil
}
