package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/store"
)

// FlagQRValidation is the feature toggle that globally disables scanning.
const FlagQRValidation = "qr_validation"

// DefaultScanLimit caps how many times a single token can be scanned.
const DefaultScanLimit = 20

// Scanned codes longer than this cannot have come from our issuer.
const maxCodeLength = 64

// ScanService validates scanned QR codes and writes the audit trail.
type ScanService struct {
	store     store.Store
	scanLimit int
}

func NewScanService(st store.Store, scanLimit int) *ScanService {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &ScanService{
		store:     st,
		scanLimit: scanLimit,
	}
}

// Validate runs the scan checks in order; the first failure wins. Every
// attempt that reaches the token lookup produces exactly one audit entry,
// including misses. Pre-lookup rejections (disabled system, malformed code)
// have no token to reference and are not audited.
//
// The returned result is always usable by the caller. A non-nil error only
// accompanies ReasonSystemError and exists for logging; the scan decision is
// already made.
func (s *ScanService) Validate(ctx context.Context, code string, scanType access.ScanType, meta access.ScanMeta) (*access.ScanResult, error) {
	reject := func(reason access.Reason) *access.ScanResult {
		return &access.ScanResult{Approved: false, Reason: reason}
	}

	enabled, err := s.store.IsFeatureEnabled(ctx, FlagQRValidation)
	if err != nil {
		return reject(access.ReasonSystemError), &access.StoreError{Op: "read feature flag", Err: err}
	}
	if !enabled {
		return reject(access.ReasonSystemDisabled), nil
	}

	if code == "" || len(code) > maxCodeLength || !scanType.Valid() {
		return reject(access.ReasonInvalidFormat), nil
	}

	token, err := s.store.FindTokenByCode(ctx, code, access.StatusActive)
	if err != nil {
		return reject(access.ReasonSystemError), &access.StoreError{Op: "find token by code", Err: err}
	}
	if token == nil {
		// Unknown, malformed-but-plausible and no-longer-active codes are
		// rejected uniformly so a forged token reveals nothing about state.
		s.audit(ctx, nil, nil, scanType, access.OutcomeRejected, access.ReasonNotFound, meta)
		return reject(access.ReasonNotFound), nil
	}

	now := time.Now()
	if token.Expired(now) {
		// Lazy transition: the token is marked expired on the first scan
		// past its expiry, so the status-filtered lookup misses it next time.
		if err := s.store.UpdateTokenStatus(ctx, token.ID, access.StatusExpired); err != nil {
			log.Printf("ScanService: failed to mark token %s expired: %v", token.ID, err)
		}
		s.audit(ctx, &token.ID, &token.UserID, scanType, access.OutcomeRejected, access.ReasonExpired, meta)
		return reject(access.ReasonExpired), nil
	}

	count, ok, err := s.store.RecordScan(ctx, token.ID, now, s.scanLimit)
	if err != nil {
		s.audit(ctx, &token.ID, &token.UserID, scanType, access.OutcomeRejected, access.ReasonSystemError, meta)
		return reject(access.ReasonSystemError), &access.StoreError{Op: "record scan", Err: err}
	}
	if !ok {
		// The conditional update also misses when the token stopped being
		// active between the lookup and the increment (revoked mid-flight).
		// Re-check before blaming the scan ceiling.
		current, lookErr := s.store.FindTokenByCode(ctx, code, access.StatusActive)
		if lookErr == nil && current == nil {
			s.audit(ctx, &token.ID, &token.UserID, scanType, access.OutcomeRejected, access.ReasonNotFound, meta)
			return reject(access.ReasonNotFound), nil
		}
		s.audit(ctx, &token.ID, &token.UserID, scanType, access.OutcomeRejected, access.ReasonScanLimitExceeded, meta)
		return reject(access.ReasonScanLimitExceeded), nil
	}

	s.audit(ctx, &token.ID, &token.UserID, scanType, access.OutcomeApproved, access.ReasonApproved, meta)

	return &access.ScanResult{
		Approved:  true,
		Reason:    access.ReasonApproved,
		UserID:    &token.UserID,
		Category:  token.Category,
		ScanCount: count,
	}, nil
}

// ListAuditLogs returns recent scan attempts, newest first.
func (s *ScanService) ListAuditLogs(ctx context.Context, limit, offset int) ([]*access.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.store.ListAuditLogs(ctx, limit, offset)
	if err != nil {
		return nil, &access.StoreError{Op: "list audit logs", Err: err}
	}
	return logs, nil
}

// audit is best-effort: a failed write is logged and never reverses the
// scan decision already made.
func (s *ScanService) audit(ctx context.Context, tokenID, userID *uuid.UUID, scanType access.ScanType, outcome access.Outcome, reason access.Reason, meta access.ScanMeta) {
	entry := &access.AuditLog{
		ID:        uuid.New(),
		TokenID:   tokenID,
		UserID:    userID,
		ScanType:  scanType,
		Outcome:   outcome,
		Reason:    reason,
		ScannedBy: meta.ScannedBy,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertAuditLog(ctx, entry); err != nil {
		log.Printf("ScanService: failed to write audit log (reason=%s): %v", reason, err)
	}
}
