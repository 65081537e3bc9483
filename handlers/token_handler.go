package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/user"
	"gymPassAPI/middleware"
	"gymPassAPI/services"
)

type TokenHandler struct {
	tokenService *services.TokenService
	userService  *services.UserService
}

func NewTokenHandler(tokenService *services.TokenService, userService *services.UserService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
		userService:  userService,
	}
}

type issueTokenRequest struct {
	Category  string     `json:"category"`
	UserID    string     `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IssueToken issues (or re-returns) the QR token for a category. Members
// issue for themselves; trainers and admins may issue on behalf of another
// user by passing user_id.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := access.Category(req.Category)
	if !category.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid category")
		return
	}

	callerID, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	targetID := callerID
	if req.UserID != "" && req.UserID != callerID.String() {
		requested, err := uuid.Parse(req.UserID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user_id")
			return
		}
		if _, err := h.userService.Authorize(ctx, clerkID, user.RoleTrainer, user.RoleAdmin); err != nil {
			respondWithServiceError(w, err)
			return
		}
		targetID = requested
	}

	issued, err := h.tokenService.Issue(ctx, targetID, category, req.ExpiresAt)
	if err != nil {
		log.Printf("IssueToken: issuance for user %s category %s failed: %v", targetID, category, err)
		respondWithServiceError(w, err)
		return
	}

	middleware.RecordTokenIssued(string(category))
	respondWithJSON(w, http.StatusCreated, issued)
}

// GetMyToken returns the caller's current active token for a category.
func (h *TokenHandler) GetMyToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	category := access.Category(r.URL.Query().Get("category"))
	if !category.Valid() {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'category' is required")
		return
	}

	userID, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	issued, err := h.tokenService.ActiveToken(ctx, userID, category)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, issued)
}

type revokeTokenRequest struct {
	TokenID string `json:"token_id"`
}

// RevokeToken permanently revokes a token. Admin only.
func (h *TokenHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if _, err := h.userService.Authorize(ctx, clerkID, user.RoleAdmin); err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req revokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tokenID, err := uuid.Parse(req.TokenID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid token_id")
		return
	}

	if err := h.tokenService.Revoke(ctx, tokenID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
