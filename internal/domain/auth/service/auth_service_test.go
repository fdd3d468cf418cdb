package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credwise/credwise-api/internal/domain/auth/common"
	"github.com/credwise/credwise-api/internal/domain/auth/repository"
)

type mockAuthRepository struct {
	usersByEmail map[string]*repository.User
	usersByID    map[uuid.UUID]*repository.User
	sessions     map[string]*repository.UserSession
	identities   map[string]uuid.UUID
	tokens       map[uuid.UUID]*repository.OAuthTokens
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: map[string]*repository.User{},
		usersByID:    map[uuid.UUID]*repository.User{},
		sessions:     map[string]*repository.UserSession{},
		identities:   map[string]uuid.UUID{},
		tokens:       map[uuid.UUID]*repository.OAuthTokens{},
	}
}

func (m *mockAuthRepository) CreateUser(ctx context.Context, email, username, hashedPassword, displayName string) (*repository.User, error) {
	if _, ok := m.usersByEmail[email]; ok {
		return nil, common.ErrUserAlreadyExists
	}
	user := &repository.User{
		ID:             uuid.New(),
		Email:          email,
		Username:       username,
		HashedPassword: hashedPassword,
		DisplayName:    displayName,
		Role:           "user",
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	m.usersByEmail[email] = user
	m.usersByID[user.ID] = user
	return user, nil
}

func (m *mockAuthRepository) GetUserByEmail(ctx context.Context, email string) (*repository.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, common.ErrUserNotFound
}

func (m *mockAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, common.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockAuthRepository) CreateUserSession(ctx context.Context, userID uuid.UUID, hash, userAgent, clientIP string, expiresAt time.Time) (*repository.UserSession, error) {
	session := &repository.UserSession{
		ID:               uuid.New(),
		UserID:           userID,
		RefreshTokenHash: hash,
		UserAgent:        userAgent,
		ClientIP:         clientIP,
		ExpiresAt:        expiresAt,
	}
	m.sessions[hash] = session
	return session, nil
}

func (m *mockAuthRepository) GetUserSessionByToken(ctx context.Context, hash string) (*repository.UserSession, error) {
	if session, ok := m.sessions[hash]; ok {
		return session, nil
	}
	return nil, common.ErrSessionNotFound
}

func (m *mockAuthRepository) DeleteUserSession(ctx context.Context, hash string) error {
	if _, ok := m.sessions[hash]; !ok {
		return common.ErrSessionNotFound
	}
	delete(m.sessions, hash)
	return nil
}

func (m *mockAuthRepository) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	for hash, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, hash)
		}
	}
	return nil
}

func (m *mockAuthRepository) GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*repository.User, error) {
	if userID, ok := m.identities[provider+":"+providerUserID]; ok {
		return m.usersByID[userID], nil
	}
	return nil, common.ErrUserNotFound
}

func (m *mockAuthRepository) CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string, expiry *time.Time) error {
	m.identities[provider+":"+providerUserID] = userID
	stored, ok := m.tokens[userID]
	if !ok {
		stored = &repository.OAuthTokens{}
		m.tokens[userID] = stored
	}
	if accessToken != nil {
		stored.AccessToken = *accessToken
	}
	if refreshToken != nil {
		stored.RefreshToken = *refreshToken
	}
	if expiry != nil {
		stored.Expiry = expiry
	}
	return nil
}

func (m *mockAuthRepository) GetOAuthTokens(ctx context.Context, userID uuid.UUID, provider string) (*repository.OAuthTokens, error) {
	if tokens, ok := m.tokens[userID]; ok {
		return tokens, nil
	}
	return nil, common.ErrOAuthIdentityNotFound
}

func (m *mockAuthRepository) UpdateOAuthAccessToken(ctx context.Context, userID uuid.UUID, provider, accessToken string, expiry time.Time) error {
	tokens, ok := m.tokens[userID]
	if !ok {
		return common.ErrOAuthIdentityNotFound
	}
	tokens.AccessToken = accessToken
	tokens.Expiry = &expiry
	return nil
}

func newTestAuthService(repo repository.AuthRepository) *AuthService {
	tm := NewJWTTokenManager("test-secret", "credwise", time.Minute, time.Hour)
	return NewAuthService(repo, tm, slog.New(slog.DiscardHandler), 0)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{
		Email:    "asha@example.com",
		Password: "sturdy-pass1",
		FullName: "Asha Rao",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha", result.User.Username)
	assert.NotEmpty(t, result.Tokens.AccessToken)

	// Duplicate registration is rejected.
	_, err = svc.Register(ctx, RegisterParams{Email: "asha@example.com", Password: "sturdy-pass1"})
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)

	login, err := svc.Login(ctx, LoginParams{Email: "asha@example.com", Password: "sturdy-pass1"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginParams{Email: "asha@example.com", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_RegisterWeakPassword(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepository())

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "asha@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	repo := newMockAuthRepository()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{Email: "asha@example.com", Password: "sturdy-pass1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(ctx, result.Tokens.RefreshToken, SessionMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, result.Tokens.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is gone after rotation.
	_, err = svc.RefreshTokens(ctx, result.Tokens.RefreshToken, SessionMetadata{})
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	repo := newMockAuthRepository()
	svc := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), RegisterParams{Email: "asha@example.com", Password: "sturdy-pass1"})
	require.NoError(t, err)

	userID, email, err := svc.ValidateAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), userID)
	assert.Equal(t, "asha@example.com", email)

	// A refresh token must not pass as an access token.
	_, _, err = svc.ValidateAccessToken(result.Tokens.RefreshToken)
	assert.Error(t, err)
}

func TestAuthService_LoginOrRegisterOAuth(t *testing.T) {
	repo := newMockAuthRepository()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	gothUser := &goth.User{
		UserID:       "google-123",
		Email:        "asha@gmail.com",
		Name:         "Asha Rao",
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	result, isNew, err := svc.LoginOrRegisterOAuth(ctx, "google", gothUser, SessionMetadata{})
	require.NoError(t, err)
	assert.True(t, isNew)

	access, refresh, err := svc.GmailToken(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", access)
	assert.Equal(t, "1//refresh", refresh)

	// Second login: same account, refresh token survives even though Google
	// omits it after first consent.
	gothUser.AccessToken = "ya29.newer"
	gothUser.RefreshToken = ""
	_, isNew, err = svc.LoginOrRegisterOAuth(ctx, "google", gothUser, SessionMetadata{})
	require.NoError(t, err)
	assert.False(t, isNew)

	access, refresh, err = svc.GmailToken(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ya29.newer", access)
	assert.Equal(t, "1//refresh", refresh)
}

func TestAuthService_GmailTokenWithoutIdentity(t *testing.T) {
	repo := newMockAuthRepository()
	svc := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), RegisterParams{Email: "asha@example.com", Password: "sturdy-pass1"})
	require.NoError(t, err)

	_, _, err = svc.GmailToken(context.Background(), result.User.ID)
	assert.ErrorIs(t, err, common.ErrOAuthIdentityNotFound)
}
