package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymPassAPI/internal/store/memory"
	"gymPassAPI/services"
)

func clerkUserCreatedPayload(clerkID string) []byte {
	return []byte(`{
		"type": "user.created",
		"data": {
			"id": "` + clerkID + `",
			"username": "newmember",
			"first_name": "Test",
			"last_name": "Member",
			"image_url": "https://img.clerk.test/avatar.png",
			"email_addresses": [
				{"email_address": "test.member@example.com", "verification": {"status": "verified"}}
			]
		}
	}`)
}

func TestClerkWebhook_UserLifecycle(t *testing.T) {
	st := memory.NewStore()
	userService := services.NewUserService(st)
	handler := NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_webhook_test"

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(clerkUserCreatedPayload(clerkID)))
	rr := httptest.NewRecorder()
	handler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	u, err := userService.GetUserByClerkID(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.member@example.com", u.Email)
	assert.Equal(t, "newmember", u.Username)
	assert.True(t, u.EmailVerified)

	update := []byte(`{
		"type": "user.updated",
		"data": {"id": "` + clerkID + `", "username": "renamedmember", "first_name": "Test", "last_name": "Member"}
	}`)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(update))
	rr = httptest.NewRecorder()
	handler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	u, err = userService.GetUserByClerkID(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, "renamedmember", u.Username)

	del := []byte(`{"type": "user.deleted", "data": {"id": "` + clerkID + `"}}`)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(del))
	rr = httptest.NewRecorder()
	handler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(context.Background(), clerkID)
	assert.Error(t, err, "user should be deleted")
}

func TestClerkWebhook_RejectsBadSignature(t *testing.T) {
	st := memory.NewStore()
	handler := NewWebhookHandler(services.NewUserService(st))

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(clerkUserCreatedPayload("user_x")))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,definitely-wrong")
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
