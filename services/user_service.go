package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/store"
	"gymPassAPI/internal/user"
)

// UserService maintains the local mirror of Clerk user accounts and answers
// role questions for the rest of the service.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u, err := s.store.CreateUser(ctx, req)
	if err != nil {
		return nil, &access.StoreError{Op: "create user", Err: err}
	}
	return u, nil
}

// GetUserByClerkID returns the local mirror record for a Clerk subject.
// A store failure comes back as *access.StoreError, a genuine miss wraps
// access.ErrUserNotFound; the two must never be conflated, an outage is
// retryable and a miss is not.
func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, &access.StoreError{Op: "get user", Err: err}
	}
	if u == nil {
		return nil, fmt.Errorf("clerk_id %s: %w", clerkID, access.ErrUserNotFound)
	}
	return u, nil
}

// ResolveUserID maps the authenticated Clerk ID to the internal user UUID.
func (s *UserService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID from database: %w", err)
	}
	return id, nil
}

// Authorize resolves the caller and checks that they hold one of the given
// roles. Returns access.ErrForbidden when they do not; authorization
// failures stay distinct from eligibility denials.
func (s *UserService) Authorize(ctx context.Context, clerkID string, roles ...user.Role) (uuid.UUID, error) {
	callerID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		return uuid.Nil, err
	}
	ok, err := s.store.HasRole(ctx, callerID, roles...)
	if err != nil {
		return uuid.Nil, &access.StoreError{Op: "check role", Err: err}
	}
	if !ok {
		return uuid.Nil, access.ErrForbidden
	}
	return callerID, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	u, err := s.store.UpdateProfileByClerkID(ctx, clerkID, req)
	if err != nil {
		return nil, &access.StoreError{Op: "update profile", Err: err}
	}
	if u == nil {
		return nil, fmt.Errorf("clerk_id %s: %w", clerkID, access.ErrUserNotFound)
	}
	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	if err := s.store.DeleteUserByClerkID(ctx, clerkID); err != nil {
		return &access.StoreError{Op: "delete user", Err: err}
	}
	log.Printf("UserService: deleted user with clerk_id %s", clerkID)
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	if err := s.store.UpdateEmailVerification(ctx, clerkID, verified); err != nil {
		return &access.StoreError{Op: "update email verification", Err: err}
	}
	return nil
}
