package services

import (
	"context"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/membership"
	"gymPassAPI/internal/store"
)

// MembershipService exposes read-only views of membership records. The
// records are owned by the membership subsystem; nothing here mutates them.
type MembershipService struct {
	store store.Store
}

func NewMembershipService(st store.Store) *MembershipService {
	return &MembershipService{store: st}
}

func (s *MembershipService) ListMemberships(ctx context.Context, userID uuid.UUID) ([]*membership.Membership, error) {
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, &access.StoreError{Op: "list memberships", Err: err}
	}
	return memberships, nil
}
