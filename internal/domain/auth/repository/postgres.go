package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/credwise/credwise-api/internal/domain/auth/common"
)

const userColumns = `id, email, username, hashed_password, display_name, role, is_active, last_login_at, created_at, updated_at`

// PostgresAuthRepository implements AuthRepository using PostgreSQL.
type PostgresAuthRepository struct {
	pool PgxPool
}

// NewPostgresAuthRepository creates a new PostgreSQL auth repository.
func NewPostgresAuthRepository(pool PgxPool) *PostgresAuthRepository {
	return &PostgresAuthRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user account.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, username, hashedPassword, displayName string) (*User, error) {
	query := `
		INSERT INTO users (email, username, hashed_password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, email, username, hashedPassword, displayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by ID.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateLastLogin stamps the user's last login time.
func (r *PostgresAuthRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// CreateUserSession stores a refresh-token session.
func (r *PostgresAuthRepository) CreateUserSession(ctx context.Context, userID uuid.UUID, refreshTokenHash, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error) {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token_hash, user_agent, client_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	session := &UserSession{
		UserID:           userID,
		RefreshTokenHash: refreshTokenHash,
		UserAgent:        userAgent,
		ClientIP:         clientIP,
		ExpiresAt:        expiresAt,
	}
	err := r.pool.QueryRow(ctx, query, userID, refreshTokenHash, userAgent, clientIP, expiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetUserSessionByToken loads a live session by refresh token hash.
func (r *PostgresAuthRepository) GetUserSessionByToken(ctx context.Context, refreshTokenHash string) (*UserSession, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, user_agent, client_ip, expires_at, created_at
		FROM user_sessions
		WHERE refresh_token_hash = $1 AND expires_at > NOW()`

	session := &UserSession{}
	err := r.pool.QueryRow(ctx, query, refreshTokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.UserAgent,
		&session.ClientIP,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteUserSession removes one session by refresh token hash.
func (r *PostgresAuthRepository) DeleteUserSession(ctx context.Context, refreshTokenHash string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE refresh_token_hash = $1`, refreshTokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrSessionNotFound
	}
	return nil
}

// DeleteAllUserSessions removes every session for a user.
func (r *PostgresAuthRepository) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// GetUserByOAuthIdentity resolves a user from a linked provider identity.
func (r *PostgresAuthRepository) GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.hashed_password, u.display_name, u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at
		FROM users u
		JOIN oauth_identities oi ON oi.user_id = u.id
		WHERE oi.provider = $1 AND oi.provider_user_id = $2`

	return scanUser(r.pool.QueryRow(ctx, query, provider, providerUserID))
}

// CreateOrUpdateOAuthIdentity links a provider identity to a user, updating
// stored tokens on re-login. A null refresh token never overwrites a stored
// one: Google only returns it on first consent.
func (r *PostgresAuthRepository) CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string, expiry *time.Time) error {
	query := `
		INSERT INTO oauth_identities (provider, provider_user_id, user_id, access_token, refresh_token, token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, provider_user_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			access_token = COALESCE(EXCLUDED.access_token, oauth_identities.access_token),
			refresh_token = COALESCE(EXCLUDED.refresh_token, oauth_identities.refresh_token),
			token_expiry = COALESCE(EXCLUDED.token_expiry, oauth_identities.token_expiry),
			updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, provider, providerUserID, userID, accessToken, refreshToken, expiry); err != nil {
		return fmt.Errorf("failed to upsert oauth identity: %w", err)
	}
	return nil
}

// GetOAuthTokens loads the stored provider tokens for a user.
func (r *PostgresAuthRepository) GetOAuthTokens(ctx context.Context, userID uuid.UUID, provider string) (*OAuthTokens, error) {
	query := `
		SELECT COALESCE(access_token, ''), COALESCE(refresh_token, ''), token_expiry
		FROM oauth_identities
		WHERE user_id = $1 AND provider = $2`

	tokens := &OAuthTokens{}
	err := r.pool.QueryRow(ctx, query, userID, provider).
		Scan(&tokens.AccessToken, &tokens.RefreshToken, &tokens.Expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrOAuthIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth tokens: %w", err)
	}
	return tokens, nil
}

// UpdateOAuthAccessToken persists a refreshed provider access token.
func (r *PostgresAuthRepository) UpdateOAuthAccessToken(ctx context.Context, userID uuid.UUID, provider, accessToken string, expiry time.Time) error {
	query := `
		UPDATE oauth_identities
		SET access_token = $3, token_expiry = $4, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2`

	tag, err := r.pool.Exec(ctx, query, userID, provider, accessToken, expiry)
	if err != nil {
		return fmt.Errorf("failed to update oauth token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrOAuthIdentityNotFound
	}
	return nil
}
