package user

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credwise/credwise-api/pkg/money"
)

func newTestService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewService(NewRepository(mock), slog.New(slog.DiscardHandler))
	return svc, mock
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("valid amounts are parsed from rupee strings", func(t *testing.T) {
		svc, mock := newTestService(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_profiles")).
			WithArgs(userID, "Asha Rao", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "Pune").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

		profile, err := svc.UpdateProfile(ctx, userID, UpdateProfileParams{
			FullName:      "Asha Rao",
			Salary:        "₹45,000",
			MonthlyRent:   "12000",
			OtherExpenses: "Rs. 6,500.50",
			City:          "Pune",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(45000_00), profile.Salary.Amount())
		assert.Equal(t, int64(12000_00), profile.MonthlyRent.Amount())
		assert.Equal(t, int64(6500_50), profile.OtherExpenses.Amount())
		assert.True(t, profile.ExistingLoans.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateProfile(ctx, userID, UpdateProfileParams{Salary: "-500"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "salary")
	})

	t.Run("garbage amount rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateProfile(ctx, userID, UpdateProfileParams{MonthlyRent: "twelve"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "monthly_rent")
	})
}

func TestProfile_MissingRowYieldsEmptyProfile(t *testing.T) {
	svc, mock := newTestService(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"user_id", "full_name", "salary", "monthly_rent",
			"other_expenses", "existing_loans", "city", "updated_at",
		}))

	profile, err := svc.Profile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.True(t, profile.Salary.IsZero())
	assert.True(t, profile.ExistingLoans.IsZero())
	assert.Empty(t, profile.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile_RoundTrip(t *testing.T) {
	svc, mock := newTestService(t)
	userID := uuid.New()
	salary := money.New(45000_00)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"user_id", "full_name", "salary", "monthly_rent",
			"other_expenses", "existing_loans", "city", "updated_at",
		}).AddRow(userID, "Asha Rao", money.New(45000_00), money.New(12000_00), money.New(6500_00), money.Zero(), "Pune", time.Now()))

	profile, err := svc.Profile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", profile.FullName)
	assert.True(t, profile.Salary.Equals(salary))
	assert.NoError(t, mock.ExpectationsWereMet())
}
