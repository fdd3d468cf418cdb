package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth"

	"github.com/credwise/credwise-api/internal/domain/auth/common"
	"github.com/credwise/credwise-api/internal/domain/auth/repository"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// ErrAccountInactive is returned when a user has been disabled.
var ErrAccountInactive = errors.New("account is deactivated")

// SessionMetadata captures client information useful for audit trails.
type SessionMetadata struct {
	UserAgent string
	ClientIP  string
}

// RegisterParams contains the required data for user registration.
type RegisterParams struct {
	Email    string
	Username string
	Password string
	FullName string
	Metadata SessionMetadata
}

// LoginParams represents the payload for a login attempt.
type LoginParams struct {
	Email    string
	Password string
	Metadata SessionMetadata
}

// LoginResult is produced after a successful login or registration.
type LoginResult struct {
	User   *repository.User
	Tokens *TokenPair
}

// AuthService coordinates accounts, sessions and linked Google identities.
type AuthService struct {
	repo         repository.AuthRepository
	tokenManager TokenManager
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(repo repository.AuthRepository, tokenManager TokenManager, logger *slog.Logger, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// Register creates a new user account and issues tokens.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*LoginResult, error) {
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, common.ErrUserAlreadyExists
	} else if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	username := params.Username
	if username == "" {
		username = generateUsername("", params.Email)
	}

	user, err := s.repo.CreateUser(ctx, params.Email, username, hashedPassword, params.FullName)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, params.Metadata)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Login authenticates a user against stored credentials.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !ComparePassword(user.HashedPassword, params.Password) {
		return nil, common.ErrInvalidCredentials
	}

	tokens, err := s.issueSession(ctx, user, params.Metadata)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", slog.Any("error", err))
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Logout removes the refresh token session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("refresh token required")
	}

	if err := s.repo.DeleteUserSession(ctx, hashToken(refreshToken)); err != nil && !errors.Is(err, common.ErrSessionNotFound) {
		return err
	}
	return nil
}

// RefreshTokens validates the refresh token, rotates the session and issues
// a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string, meta SessionMetadata) (*TokenPair, error) {
	claims, err := s.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	hashedToken := hashToken(refreshToken)
	if _, err := s.repo.GetUserSessionByToken(ctx, hashedToken); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	_ = s.repo.DeleteUserSession(ctx, hashedToken)

	return s.issueSession(ctx, user, meta)
}

// ValidateAccessToken verifies a bearer token and returns the subject
// identity. Satisfies the HTTP auth middleware contract.
func (s *AuthService) ValidateAccessToken(accessToken string) (userID, email string, err error) {
	if accessToken == "" {
		return "", "", ErrInvalidToken
	}
	claims, err := s.tokenManager.ValidateAccessToken(accessToken)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Email, nil
}

// CurrentUser loads the account behind an authenticated user ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// LoginOrRegisterOAuth resolves the Google identity to an account, creating
// one on first login, and stores the provider tokens for mailbox access.
func (s *AuthService) LoginOrRegisterOAuth(ctx context.Context, provider string, gothUser *goth.User, meta SessionMetadata) (*LoginResult, bool, error) {
	isNewUser := false

	user, err := s.repo.GetUserByOAuthIdentity(ctx, provider, gothUser.UserID)
	if errors.Is(err, common.ErrUserNotFound) {
		user, err = s.repo.GetUserByEmail(ctx, gothUser.Email)
		if errors.Is(err, common.ErrUserNotFound) {
			username := generateUsername(gothUser.NickName, gothUser.Email)
			displayName := gothUser.Name
			if displayName == "" {
				displayName = username
			}

			user, err = s.repo.CreateUser(ctx, gothUser.Email, username, "", displayName)
			if err != nil {
				return nil, false, fmt.Errorf("failed to create user: %w", err)
			}
			isNewUser = true
		} else if err != nil {
			return nil, false, err
		}
	} else if err != nil {
		return nil, false, err
	}

	// Always upsert the identity so the fresh access token (and, on first
	// consent, the refresh token) is stored for mailbox sync.
	var accessToken, refreshToken *string
	var expiry *time.Time
	if gothUser.AccessToken != "" {
		accessToken = &gothUser.AccessToken
	}
	if gothUser.RefreshToken != "" {
		refreshToken = &gothUser.RefreshToken
	}
	if !gothUser.ExpiresAt.IsZero() {
		expiry = &gothUser.ExpiresAt
	}
	if err := s.repo.CreateOrUpdateOAuthIdentity(ctx, provider, gothUser.UserID, user.ID, accessToken, refreshToken, expiry); err != nil {
		return nil, false, fmt.Errorf("failed to link oauth identity: %w", err)
	}

	if !user.IsActive {
		return nil, false, ErrAccountInactive
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, false, err
	}
	_ = s.repo.UpdateLastLogin(ctx, user.ID)

	return &LoginResult{User: user, Tokens: tokens}, isNewUser, nil
}

// GmailToken returns the stored Google tokens for the user's mailbox.
func (s *AuthService) GmailToken(ctx context.Context, userID uuid.UUID) (string, string, error) {
	tokens, err := s.repo.GetOAuthTokens(ctx, userID, "google")
	if err != nil {
		return "", "", err
	}
	return tokens.AccessToken, tokens.RefreshToken, nil
}

// SaveGmailToken persists a refreshed Google access token.
func (s *AuthService) SaveGmailToken(ctx context.Context, userID uuid.UUID, accessToken string, expiry time.Time) error {
	return s.repo.UpdateOAuthAccessToken(ctx, userID, "google", accessToken, expiry)
}

func (s *AuthService) issueSession(ctx context.Context, user *repository.User, meta SessionMetadata) (*TokenPair, error) {
	tokens, err := s.tokenManager.GenerateTokenPair(user.ID.String(), user.Email, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	userAgent := meta.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}
	clientIP := meta.ClientIP
	if clientIP == "" {
		clientIP = "unknown"
	}

	if _, err := s.repo.CreateUserSession(ctx, user.ID, hashToken(tokens.RefreshToken), userAgent, clientIP, time.Now().Add(s.sessionTTL)); err != nil {
		return nil, err
	}
	return tokens, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateUsername derives a username from OAuth profile data or the email
// local part.
func generateUsername(nickname, email string) string {
	if nickname != "" {
		return strings.ToLower(strings.ReplaceAll(nickname, " ", "_"))
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return strings.ToLower(local)
	}
	return "user_" + uuid.New().String()[:8]
}
