package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClerkAuthMiddleware_MissingHeader(t *testing.T) {
	called := false
	h := ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestClerkAuthMiddleware_NotBearer(t *testing.T) {
	h := ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Bearer")
}

func TestGetClerkID(t *testing.T) {
	_, ok := GetClerkID(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), ClerkIDKey, "user_123")
	id, ok := GetClerkID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user_123", id)
}
