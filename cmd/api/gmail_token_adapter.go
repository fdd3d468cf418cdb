package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/auth/common"
	"github.com/credwise/credwise-api/internal/domain/auth/service"
	"github.com/credwise/credwise-api/internal/domain/bnpl"
)

// gmailTokenAdapter adapts service.AuthService to bnpl's TokenStore interface
type gmailTokenAdapter struct {
	svc *service.AuthService
}

// newGmailTokenAdapter creates a new adapter
func newGmailTokenAdapter(svc *service.AuthService) bnpl.TokenStore {
	return &gmailTokenAdapter{svc: svc}
}

// GmailToken implements bnpl.TokenStore
func (a *gmailTokenAdapter) GmailToken(ctx context.Context, userID uuid.UUID) (string, string, error) {
	accessToken, refreshToken, err := a.svc.GmailToken(ctx, userID)
	if err != nil {
		// Surface a missing Google link as the sync-level sentinel so the
		// handler can answer 409 instead of 500.
		if errors.Is(err, common.ErrOAuthIdentityNotFound) {
			return "", "", bnpl.ErrNoGmailAccount
		}
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// SaveGmailToken implements bnpl.TokenStore
func (a *gmailTokenAdapter) SaveGmailToken(ctx context.Context, userID uuid.UUID, accessToken string, expiry time.Time) error {
	return a.svc.SaveGmailToken(ctx, userID, accessToken, expiry)
}
