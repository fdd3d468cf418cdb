package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/credwise/credwise-api/pkg/money"
)

// UpdateProfileParams carries the editable profile fields as rupee strings.
type UpdateProfileParams struct {
	FullName      string
	Salary        string
	MonthlyRent   string
	OtherExpenses string
	ExistingLoans string
	City          string
}

// Service coordinates profile reads and writes.
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new profile service.
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Profile returns the user's financial profile.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile validates and saves the profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (*Profile, error) {
	profile := &Profile{
		UserID:   userID,
		FullName: params.FullName,
		City:     params.City,
	}

	fields := []struct {
		name string
		raw  string
		dest **money.Money
	}{
		{"salary", params.Salary, &profile.Salary},
		{"monthly_rent", params.MonthlyRent, &profile.MonthlyRent},
		{"other_expenses", params.OtherExpenses, &profile.OtherExpenses},
		{"existing_loans", params.ExistingLoans, &profile.ExistingLoans},
	}
	for _, f := range fields {
		if f.raw == "" {
			*f.dest = money.Zero()
			continue
		}
		amount, err := money.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%s must not be negative", f.name)
		}
		*f.dest = amount
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("user_id", userID.String()))
	return profile, nil
}
