// Package repository provides database operations for users, sessions and
// linked OAuth identities.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// User is an account row.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	HashedPassword string     `json:"-"`
	DisplayName    string     `json:"display_name"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"-"`
}

// UserSession is a refresh-token session row. The token itself is never
// stored, only its SHA-256 hash.
type UserSession struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	UserAgent        string
	ClientIP         string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// OAuthTokens are the provider tokens stored with a linked identity.
type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
}

// AuthRepository defines the persistence interface for authentication.
type AuthRepository interface {
	CreateUser(ctx context.Context, email, username, hashedPassword, displayName string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error

	CreateUserSession(ctx context.Context, userID uuid.UUID, refreshTokenHash, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error)
	GetUserSessionByToken(ctx context.Context, refreshTokenHash string) (*UserSession, error)
	DeleteUserSession(ctx context.Context, refreshTokenHash string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error

	GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*User, error)
	CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string, expiry *time.Time) error
	GetOAuthTokens(ctx context.Context, userID uuid.UUID, provider string) (*OAuthTokens, error)
	UpdateOAuthAccessToken(ctx context.Context, userID uuid.UUID, provider, accessToken string, expiry time.Time) error
}

// PgxPool is the pool subset the repository uses. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
