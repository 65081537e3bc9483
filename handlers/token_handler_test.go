package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/membership"
	"gymPassAPI/internal/store"
	"gymPassAPI/internal/store/memory"
	"gymPassAPI/internal/user"
	"gymPassAPI/middleware"
	"gymPassAPI/services"
)

type handlerFixture struct {
	store             *memory.Store
	tokenHandler      *TokenHandler
	scanHandler       *ScanHandler
	membershipHandler *MembershipHandler
}

func newHandlerFixture() *handlerFixture {
	st := memory.NewStore()
	userService := services.NewUserService(st)
	eligibility := services.NewEligibilityService(st)
	tokenService := services.NewTokenService(st, eligibility)
	scanService := services.NewScanService(st, 0)
	membershipService := services.NewMembershipService(st)
	return &handlerFixture{
		store:             st,
		tokenHandler:      NewTokenHandler(tokenService, userService),
		scanHandler:       NewScanHandler(scanService, userService),
		membershipHandler: NewMembershipHandler(membershipService, userService),
	}
}

func (f *handlerFixture) seedUser(clerkID string, role user.Role) uuid.UUID {
	id := uuid.New()
	f.store.SeedUser(&user.User{
		ID:      id.String(),
		ClerkID: clerkID,
		Email:   clerkID + "@example.com",
		Role:    role,
	})
	return id
}

func (f *handlerFixture) seedGymMembership(userID uuid.UUID) {
	f.store.SeedMembership(&membership.Membership{
		ID:          uuid.New(),
		UserID:      userID,
		PackageType: "free_gym",
		IsActive:    true,
		StartDate:   time.Now().Add(-24 * time.Hour),
		EndDate:     time.Now().Add(30 * 24 * time.Hour),
	})
}

func authedRequest(method, target, body, clerkID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	return req.WithContext(ctx)
}

func TestIssueToken_SelfService(t *testing.T) {
	f := newHandlerFixture()
	memberID := f.seedUser("user_member", user.RoleMember)
	f.seedGymMembership(memberID)

	rr := httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", `{"category":"free_gym"}`, "user_member"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var issued services.IssuedToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &issued))
	assert.Equal(t, access.StatusActive, issued.Token.Status)
	assert.Equal(t, memberID, issued.Token.UserID)
	assert.NotEmpty(t, issued.QrCodeBase64)
}

func TestIssueToken_NotEligible(t *testing.T) {
	f := newHandlerFixture()
	f.seedUser("user_member", user.RoleMember)

	rr := httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", `{"category":"pilates"}`, "user_member"))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "pilates")
}

func TestIssueToken_OnBehalfRequiresRole(t *testing.T) {
	f := newHandlerFixture()
	f.seedUser("user_member", user.RoleMember)
	f.seedUser("user_trainer", user.RoleTrainer)
	targetID := f.seedUser("user_target", user.RoleMember)
	f.seedGymMembership(targetID)

	body := `{"category":"free_gym","user_id":"` + targetID.String() + `"}`

	// A plain member may not issue for someone else.
	rr := httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", body, "user_member"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A trainer may.
	rr = httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", body, "user_trainer"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var issued services.IssuedToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &issued))
	assert.Equal(t, targetID, issued.Token.UserID)
}

func TestIssueToken_BadRequests(t *testing.T) {
	f := newHandlerFixture()
	f.seedUser("user_member", user.RoleMember)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"unknown category", `{"category":"sauna"}`},
		{"missing category", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", tt.body, "user_member"))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetMyToken(t *testing.T) {
	f := newHandlerFixture()
	memberID := f.seedUser("user_member", user.RoleMember)
	f.seedGymMembership(memberID)

	// No token yet.
	rr := httptest.NewRecorder()
	f.tokenHandler.GetMyToken(rr, authedRequest(http.MethodGet, "/api/v1/qr/mine?category=free_gym", "", "user_member"))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", `{"category":"free_gym"}`, "user_member"))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	f.tokenHandler.GetMyToken(rr, authedRequest(http.MethodGet, "/api/v1/qr/mine?category=free_gym", "", "user_member"))
	require.Equal(t, http.StatusOK, rr.Code)

	var issued services.IssuedToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &issued))
	assert.Equal(t, memberID, issued.Token.UserID)
}

func TestRevokeToken_AdminOnly(t *testing.T) {
	f := newHandlerFixture()
	memberID := f.seedUser("user_member", user.RoleMember)
	f.seedUser("user_admin", user.RoleAdmin)
	f.seedGymMembership(memberID)

	rr := httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", `{"category":"free_gym"}`, "user_member"))
	require.Equal(t, http.StatusCreated, rr.Code)
	var issued services.IssuedToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &issued))

	body := `{"token_id":"` + issued.Token.ID.String() + `"}`

	rr = httptest.NewRecorder()
	f.tokenHandler.RevokeToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/revoke", body, "user_member"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	f.tokenHandler.RevokeToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/revoke", body, "user_admin"))
	require.Equal(t, http.StatusOK, rr.Code)

	stored := f.store.TokenByID(issued.Token.ID)
	require.NotNil(t, stored)
	assert.Equal(t, access.StatusRevoked, stored.Status)
}

// unreachableUserStore simulates a database outage on the user lookup path.
type unreachableUserStore struct {
	store.Store
}

func (s *unreachableUserStore) GetUserByClerkID(context.Context, string) (*user.User, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestIssueToken_StoreOutageIsRetryable(t *testing.T) {
	st := memory.NewStore()
	userService := services.NewUserService(&unreachableUserStore{Store: st})
	tokenService := services.NewTokenService(st, services.NewEligibilityService(st))
	handler := NewTokenHandler(tokenService, userService)

	rr := httptest.NewRecorder()
	handler.IssueToken(rr, authedRequest(http.MethodPost, "/api/v1/qr/issue", `{"category":"free_gym"}`, "user_member"))

	// A lookup outage must surface as retryable, never as a missing account.
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "User not found")
}

func TestIssueToken_Unauthenticated(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/issue", strings.NewReader(`{"category":"free_gym"}`))
	rr := httptest.NewRecorder()
	f.tokenHandler.IssueToken(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
