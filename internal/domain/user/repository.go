// Package user manages the financial profile backing affordability checks.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/credwise/credwise-api/pkg/money"
)

// Profile holds the self-reported financials used for risk scoring.
type Profile struct {
	UserID        uuid.UUID    `json:"-"`
	FullName      string       `json:"full_name"`
	Salary        *money.Money `json:"salary"`
	MonthlyRent   *money.Money `json:"monthly_rent"`
	OtherExpenses *money.Money `json:"other_expenses"`
	ExistingLoans *money.Money `json:"existing_loans"`
	City          string       `json:"city"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// PgxPool is the pool subset the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles profile persistence.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a new profile repository.
func NewRepository(pool PgxPool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile loads the user's profile. A user who never saved one gets an
// empty profile with zero amounts rather than an error.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	query := `
		SELECT user_id, full_name, salary, monthly_rent, other_expenses, existing_loans, city, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	profile := &Profile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Salary,
		&profile.MonthlyRent,
		&profile.OtherExpenses,
		&profile.ExistingLoans,
		&profile.City,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptyProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile saves the user's profile, replacing any existing one.
func (r *Repository) UpsertProfile(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO user_profiles (user_id, full_name, salary, monthly_rent, other_expenses, existing_loans, city, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			salary = EXCLUDED.salary,
			monthly_rent = EXCLUDED.monthly_rent,
			other_expenses = EXCLUDED.other_expenses,
			existing_loans = EXCLUDED.existing_loans,
			city = EXCLUDED.city,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Salary,
		profile.MonthlyRent,
		profile.OtherExpenses,
		profile.ExistingLoans,
		profile.City,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func emptyProfile(userID uuid.UUID) *Profile {
	return &Profile{
		UserID:        userID,
		Salary:        money.Zero(),
		MonthlyRent:   money.Zero(),
		OtherExpenses: money.Zero(),
		ExistingLoans: money.Zero(),
	}
}
