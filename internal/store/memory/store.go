package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/membership"
	"gymPassAPI/internal/user"
)

// Store is an in-memory implementation of store.Store for tests and dev
// environments. All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	tokens    map[uuid.UUID]*access.Token
	logs      []*access.AuditLog
	members   []*membership.Membership
	schedules []*membership.PersonalSchedule
	users     map[string]*user.User // keyed by clerk ID
	flags     map[string]bool
}

func NewStore() *Store {
	return &Store{
		tokens: make(map[uuid.UUID]*access.Token),
		users:  make(map[string]*user.User),
		flags:  make(map[string]bool),
	}
}

// ---------------------------------------------------------------------------
// Seed helpers (test-only)

func (s *Store) SeedMembership(m *membership.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, m)
}

func (s *Store) SeedPersonalSchedule(ps *membership.PersonalSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, ps)
}

func (s *Store) SeedUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ClerkID] = u
}

func (s *Store) SetFlag(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = enabled
}

// TokenByID returns a copy of the stored token. Test-only helper.
func (s *Store) TokenByID(id uuid.UUID) *access.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// AuditLogs returns a copy of all recorded entries. Test-only helper.
func (s *Store) AuditLogs() []*access.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*access.AuditLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// ActiveTokenCount counts active tokens for (user, category). Test-only helper.
func (s *Store) ActiveTokenCount(userID uuid.UUID, category access.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && t.Category == category && t.Status == access.StatusActive {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Tokens

func (s *Store) FindActiveToken(_ context.Context, userID uuid.UUID, category access.Category) (*access.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *access.Token
	for _, t := range s.tokens {
		if t.UserID == userID && t.Category == category && t.Status == access.StatusActive {
			if found == nil || t.IssuedAt.After(found.IssuedAt) {
				found = t
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (s *Store) FindTokenByCode(_ context.Context, code string, status access.Status) (*access.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Code == code && t.Status == status {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertToken(_ context.Context, t *access.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[cp.ID] = &cp
	return nil
}

func (s *Store) UpdateTokenStatus(_ context.Context, id uuid.UUID, status access.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok {
		t.Status = status
	}
	return nil
}

func (s *Store) DeactivateActiveTokens(_ context.Context, userID uuid.UUID, category access.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tokens {
		if t.UserID == userID && t.Category == category && t.Status == access.StatusActive {
			t.Status = access.StatusInactive
			n++
		}
	}
	return n, nil
}

func (s *Store) RecordScan(_ context.Context, id uuid.UUID, at time.Time, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.Status != access.StatusActive || t.ScanCount >= limit {
		return 0, false, nil
	}
	t.ScanCount++
	scannedAt := at
	t.LastScannedAt = &scannedAt
	return t.ScanCount, true, nil
}

// ---------------------------------------------------------------------------
// Audit log

func (s *Store) InsertAuditLog(_ context.Context, entry *access.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit, offset int) ([]*access.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := make([]*access.AuditLog, len(s.logs))
	copy(sorted, s.logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// ---------------------------------------------------------------------------
// Memberships

func (s *Store) FindActiveMembership(_ context.Context, userID uuid.UUID, packageTypes []string, day time.Time) (*membership.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.UserID != userID || !m.Covers(day) {
			continue
		}
		for _, pt := range packageTypes {
			if strings.EqualFold(m.PackageType, pt) {
				cp := *m
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (s *Store) FindAcceptedPersonalSchedule(_ context.Context, userID uuid.UUID) (*membership.PersonalSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *membership.PersonalSchedule
	for _, ps := range s.schedules {
		if ps.UserID == userID && ps.Status == membership.ScheduleAccepted {
			if found == nil || ps.CreatedAt.After(found.CreatedAt) {
				found = ps
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (s *Store) ListMemberships(_ context.Context, userID uuid.UUID) ([]*membership.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*membership.Membership
	for _, m := range s.members {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndDate.After(out[j].EndDate)
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Users

func (s *Store) CreateUser(_ context.Context, req *user.CreateUserRequest) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		Role:      user.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ClerkID] = u
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByClerkID(_ context.Context, clerkID string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[clerkID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdateProfileByClerkID(_ context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[clerkID]
	if !ok {
		return nil, nil
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.ImageURL != "" {
		u.ImageURL = req.ImageURL
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (s *Store) DeleteUserByClerkID(_ context.Context, clerkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, clerkID)
	return nil
}

func (s *Store) UpdateEmailVerification(_ context.Context, clerkID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[clerkID]; ok {
		u.EmailVerified = verified
	}
	return nil
}

func (s *Store) HasRole(_ context.Context, userID uuid.UUID, roles ...user.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != userID.String() {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				return true, nil
			}
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Feature flags

func (s *Store) IsFeatureEnabled(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, ok := s.flags[name]
	if !ok {
		return true, nil
	}
	return enabled, nil
}
