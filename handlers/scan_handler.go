package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/user"
	"gymPassAPI/middleware"
	"gymPassAPI/services"
)

type ScanHandler struct {
	scanService *services.ScanService
	userService *services.UserService
}

func NewScanHandler(scanService *services.ScanService, userService *services.UserService) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		userService: userService,
	}
}

type scanRequest struct {
	Token    string `json:"token"`
	ScanType string `json:"scan_type"`
}

// Scan validates a scanned QR code. Secretary/admin only; the reason code in
// the response is meant for staff eyes, the member device only ever sees the
// resulting door decision.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	scannerID, err := h.userService.Authorize(ctx, clerkID, user.RoleSecretary, user.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meta := access.ScanMeta{
		ScannedBy: &scannerID,
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := h.scanService.Validate(ctx, req.Token, access.ScanType(req.ScanType), meta)
	if err != nil {
		// The decision is already made; the error is observability only.
		log.Printf("Scan: validation hit a store error: %v", err)
	}

	middleware.RecordScanOutcome(string(result.Reason))
	respondWithJSON(w, http.StatusOK, result)
}

// AuditLogs lists recent scan attempts for the staff dashboard.
func (h *ScanHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if _, err := h.userService.Authorize(ctx, clerkID, user.RoleSecretary, user.RoleAdmin); err != nil {
		respondWithServiceError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.scanService.ListAuditLogs(ctx, limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}
