package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/user"
	"gymPassAPI/middleware"
	"gymPassAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfileByClerkID(ctx, clerkID, &req)
	if err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUserByClerkID(ctx, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps typed service errors to HTTP status codes so
// the client can tell an eligibility denial from a permission problem from a
// transient outage (each needs different staff action).
func respondWithServiceError(w http.ResponseWriter, err error) {
	var notEligible *access.NotEligibleError
	var storeErr *access.StoreError
	switch {
	case errors.As(err, &notEligible):
		respondWithError(w, http.StatusUnprocessableEntity, notEligible.Error())
	case errors.Is(err, access.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "You are not allowed to perform this action")
	case errors.Is(err, access.ErrUserNotFound):
		respondWithError(w, http.StatusUnauthorized, "User not found")
	case errors.Is(err, access.ErrInvalidCategory):
		respondWithError(w, http.StatusBadRequest, "Invalid category")
	case errors.Is(err, access.ErrTokenNotFound):
		respondWithError(w, http.StatusNotFound, "Token not found")
	case errors.As(err, &storeErr):
		respondWithError(w, http.StatusServiceUnavailable, "Temporary service problem, please retry")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
