package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/skip2/go-qrcode"

	"gymPassAPI/internal/access"
	"gymPassAPI/internal/store"
)

// Token codes are nanoids: short enough for a low-density QR image, URL-safe
// and random, so a code can never be derived from the user id or guessed
// from another user's code.
const tokenCodeLength = 14

const qrImageSize = 256

// TokenService issues QR entry tokens and renders them as PNG images.
type TokenService struct {
	store       store.Store
	eligibility *EligibilityService
}

func NewTokenService(st store.Store, eligibility *EligibilityService) *TokenService {
	return &TokenService{
		store:       st,
		eligibility: eligibility,
	}
}

// IssuedToken pairs the persisted token with its QR rendering. The QR image
// encodes exactly the opaque code and nothing else; the code is the lookup
// key at scan time.
type IssuedToken struct {
	Token        *access.Token `json:"token"`
	QrCodeBase64 string        `json:"qr_code_base64"`
}

// Issue returns the user's QR token for a category, creating one if needed.
// Issuance is idempotent: while an active token exists it is returned
// unchanged, which makes client-side retries safe. A fresh token deactivates
// any stale active tokens for the same (user, category) first, so at most
// one stays active.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID, category access.Category, expiresAt *time.Time) (*IssuedToken, error) {
	if err := s.eligibility.Check(ctx, userID, category); err != nil {
		return nil, err
	}

	existing, err := s.store.FindActiveToken(ctx, userID, category)
	if err != nil {
		return nil, &access.StoreError{Op: "find active token", Err: err}
	}
	if existing != nil {
		return s.render(existing)
	}

	// Defensive cleanup: a prior inconsistent state may have left stale
	// actives that the lookup above did not surface.
	if n, err := s.store.DeactivateActiveTokens(ctx, userID, category); err != nil {
		return nil, &access.StoreError{Op: "deactivate tokens", Err: err}
	} else if n > 0 {
		log.Printf("TokenService: deactivated %d stale tokens for user %s category %s", n, userID, category)
	}

	code, err := gonanoid.New(tokenCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token code: %w", err)
	}

	token := &access.Token{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  category,
		Status:    access.StatusActive,
		Code:      code,
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
		ScanCount: 0,
	}
	if err := s.store.InsertToken(ctx, token); err != nil {
		return nil, &access.StoreError{Op: "insert token", Err: err}
	}

	return s.render(token)
}

// ActiveToken returns the current active token for (user, category) without
// creating one. access.ErrTokenNotFound when there is none.
func (s *TokenService) ActiveToken(ctx context.Context, userID uuid.UUID, category access.Category) (*IssuedToken, error) {
	if !category.Valid() {
		return nil, access.ErrInvalidCategory
	}
	token, err := s.store.FindActiveToken(ctx, userID, category)
	if err != nil {
		return nil, &access.StoreError{Op: "find active token", Err: err}
	}
	if token == nil {
		return nil, access.ErrTokenNotFound
	}
	return s.render(token)
}

// Revoke moves a token to revoked. Administrative action only; the revoked
// state is terminal.
func (s *TokenService) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.store.UpdateTokenStatus(ctx, tokenID, access.StatusRevoked); err != nil {
		return &access.StoreError{Op: "revoke token", Err: err}
	}
	return nil
}

func (s *TokenService) render(token *access.Token) (*IssuedToken, error) {
	pngBytes, err := qrcode.Encode(token.Code, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}
	return &IssuedToken{
		Token:        token,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
