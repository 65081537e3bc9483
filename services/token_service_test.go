package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/store/memory"
)

func newTokenService(st *memory.Store) *TokenService {
	return NewTokenService(st, NewEligibilityService(st))
}

func TestIssue_CreatesActiveToken(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	assert.Equal(t, access.StatusActive, issued.Token.Status)
	assert.Equal(t, userID, issued.Token.UserID)
	assert.Equal(t, 0, issued.Token.ScanCount)
	assert.NotEmpty(t, issued.Token.Code)
	assert.NotEmpty(t, issued.QrCodeBase64)

	// The opaque code must not embed the user identity.
	assert.NotContains(t, issued.Token.Code, userID.String())
	assert.NotContains(t, issued.Token.Code, string(access.CategoryFreeGym))
}

func TestIssue_Idempotent(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	first, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Token.Code, second.Token.Code)
	assert.Equal(t, first.Token.ID, second.Token.ID)
	assert.Equal(t, 1, st.ActiveTokenCount(userID, access.CategoryFreeGym))
}

func TestIssue_AtMostOneActivePerCategory(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)
	seedMembership(st, userID, "pilates", true, 30*24*time.Hour)

	for i := 0; i < 3; i++ {
		_, err := svc.Issue(context.Background(), userID, access.CategoryPilates, nil)
		require.NoError(t, err)
		_, err = svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, st.ActiveTokenCount(userID, access.CategoryPilates))
	assert.Equal(t, 1, st.ActiveTokenCount(userID, access.CategoryFreeGym))
}

func TestIssue_SupersededTokenIsDeactivatedNotDeleted(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	// Admin revokes, the member asks again: a fresh token is minted and the
	// revoked record is left in place.
	require.NoError(t, svc.Revoke(context.Background(), issued.Token.ID))
	reissued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	assert.NotEqual(t, issued.Token.Code, reissued.Token.Code)
	old := st.TokenByID(issued.Token.ID)
	require.NotNil(t, old)
	assert.Equal(t, access.StatusRevoked, old.Status)
	assert.Equal(t, 1, st.ActiveTokenCount(userID, access.CategoryFreeGym))
}

func TestIssue_SeparateTokensPerCategory(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)
	seedMembership(st, userID, "pilates", true, 30*24*time.Hour)

	gym, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)
	pilates, err := svc.Issue(context.Background(), userID, access.CategoryPilates, nil)
	require.NoError(t, err)

	assert.NotEqual(t, gym.Token.Code, pilates.Token.Code)
}

func TestIssue_EligibilityGate(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()

	// User V: no personal training schedule at all.
	issued, err := svc.Issue(context.Background(), userID, access.CategoryPersonal, nil)
	assert.Nil(t, issued)
	var notEligible *access.NotEligibleError
	require.ErrorAs(t, err, &notEligible)

	// No token record may be created on a denial.
	assert.Equal(t, 0, st.ActiveTokenCount(userID, access.CategoryPersonal))
}

func TestIssue_WithExpiry(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	expiry := time.Now().Add(48 * time.Hour)
	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, &expiry)
	require.NoError(t, err)
	require.NotNil(t, issued.Token.ExpiresAt)
	assert.WithinDuration(t, expiry, *issued.Token.ExpiresAt, time.Second)
}

func TestActiveToken(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	_, err := svc.ActiveToken(context.Background(), userID, access.CategoryFreeGym)
	assert.ErrorIs(t, err, access.ErrTokenNotFound)

	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	got, err := svc.ActiveToken(context.Background(), userID, access.CategoryFreeGym)
	require.NoError(t, err)
	assert.Equal(t, issued.Token.Code, got.Token.Code)
}

func TestRevoke(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), issued.Token.ID))

	stored := st.TokenByID(issued.Token.ID)
	require.NotNil(t, stored)
	assert.Equal(t, access.StatusRevoked, stored.Status)
	assert.Equal(t, 0, st.ActiveTokenCount(userID, access.CategoryFreeGym))
}

func TestTokenCode_ShortAndURLSafe(t *testing.T) {
	st := memory.NewStore()
	svc := newTokenService(st)
	userID := uuid.New()
	seedMembership(st, userID, "free_gym", true, 30*24*time.Hour)

	issued, err := svc.Issue(context.Background(), userID, access.CategoryFreeGym, nil)
	require.NoError(t, err)

	code := issued.Token.Code
	assert.Len(t, code, tokenCodeLength)
	for _, c := range code {
		ok := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		assert.True(t, ok, "unexpected character %q in token code", string(c))
	}
	assert.False(t, strings.Contains(code, userID.String()))
}
