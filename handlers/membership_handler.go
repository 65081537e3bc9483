package handlers

import (
	"context"
	"net/http"
	"time"

	"gymPassAPI/middleware"
	"gymPassAPI/services"
)

type MembershipHandler struct {
	membershipService *services.MembershipService
	userService       *services.UserService
}

func NewMembershipHandler(membershipService *services.MembershipService, userService *services.UserService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		userService:       userService,
	}
}

func (h *MembershipHandler) GetMemberships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	memberships, err := h.membershipService.ListMemberships(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, memberships)
}
