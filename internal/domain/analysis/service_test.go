package analysis

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credwise/credwise-api/internal/domain/bnpl"
	"github.com/credwise/credwise-api/internal/domain/user"
	"github.com/credwise/credwise-api/pkg/money"
)

type mockRecordSource struct {
	records []*bnpl.Record
	err     error
}

func (m *mockRecordSource) Records(ctx context.Context, userID uuid.UUID) ([]*bnpl.Record, error) {
	return m.records, m.err
}

type mockProfileSource struct {
	profile *user.Profile
	err     error
}

func (m *mockProfileSource) Profile(ctx context.Context, userID uuid.UUID) (*user.Profile, error) {
	return m.profile, m.err
}

func record(amount string, installments int) *bnpl.Record {
	return &bnpl.Record{
		ID:           uuid.New(),
		Amount:       decimal.RequireFromString(amount),
		Installments: installments,
	}
}

func profileWith(salary, rent, expenses, loans string) *user.Profile {
	mustMoney := func(s string) *money.Money {
		m, err := money.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return m
	}
	return &user.Profile{
		Salary:        mustMoney(salary),
		MonthlyRent:   mustMoney(rent),
		OtherExpenses: mustMoney(expenses),
		ExistingLoans: mustMoney(loans),
	}
}

func newTestService(records []*bnpl.Record, profile *user.Profile) *Service {
	return NewService(
		&mockRecordSource{records: records},
		&mockProfileSource{profile: profile},
		slog.New(slog.DiscardHandler),
	)
}

func TestService_RiskScore(t *testing.T) {
	tests := []struct {
		name      string
		records   []*bnpl.Record
		salary    string
		wantRatio string
		wantLevel RiskLevel
	}{
		{
			name:      "low risk",
			records:   []*bnpl.Record{record("9000", 6), record("3000", 1)},
			salary:    "30000",
			wantRatio: "0.15", // (1500 + 3000) / 30000
			wantLevel: RiskLow,
		},
		{
			name:      "medium risk at lower bound",
			records:   []*bnpl.Record{record("6000", 1)},
			salary:    "30000",
			wantRatio: "0.2",
			wantLevel: RiskMedium,
		},
		{
			name:      "high risk",
			records:   []*bnpl.Record{record("15000", 1)},
			salary:    "30000",
			wantRatio: "0.5",
			wantLevel: RiskHigh,
		},
		{
			name:      "no records",
			records:   nil,
			salary:    "30000",
			wantRatio: "0",
			wantLevel: RiskLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.records, profileWith(tt.salary, "0", "0", "0"))

			report, err := svc.RiskScore(context.Background(), uuid.New())
			require.NoError(t, err)
			assert.True(t, report.DebtRatio.Equal(decimal.RequireFromString(tt.wantRatio)),
				"ratio = %s, want %s", report.DebtRatio, tt.wantRatio)
			assert.Equal(t, tt.wantLevel, report.RiskLevel)
			assert.Equal(t, len(tt.records), report.RecordCount)
		})
	}
}

func TestService_RiskScore_NoSalary(t *testing.T) {
	svc := newTestService([]*bnpl.Record{record("5000", 1)}, profileWith("0", "0", "0", "0"))

	report, err := svc.RiskScore(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, report.RiskLevel)
	assert.True(t, report.DebtRatio.IsZero())
}

func TestService_Affordability(t *testing.T) {
	records := []*bnpl.Record{record("9000", 6)} // 1500 per month
	svc := newTestService(records, profileWith("30000", "8000", "4000", "2000"))

	report, err := svc.Affordability(context.Background(), uuid.New())
	require.NoError(t, err)

	// disposable = 30000 - 14000 - 1500, safe limit = 9000 - 1500
	assert.Equal(t, "14500", report.Disposable.String())
	assert.Equal(t, "7500", report.SafeLimit.String())
	assert.False(t, report.Overextended)
}

func TestService_Affordability_Overextended(t *testing.T) {
	records := []*bnpl.Record{record("12000", 1)}
	svc := newTestService(records, profileWith("30000", "0", "0", "0"))

	report, err := svc.Affordability(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, report.SafeLimit.IsNegative())
	assert.True(t, report.Overextended)
}

func TestService_CheckPurchase(t *testing.T) {
	records := []*bnpl.Record{record("9000", 6)} // safe limit 7500
	svc := newTestService(records, profileWith("30000", "8000", "4000", "2000"))
	ctx := context.Background()
	userID := uuid.New()

	price, err := money.NewFromString("30000")
	require.NoError(t, err)

	verdict, err := svc.CheckPurchase(ctx, userID, price, 6)
	require.NoError(t, err)
	assert.True(t, verdict.Affordable) // 5000 per month vs 7500 limit

	verdict, err = svc.CheckPurchase(ctx, userID, price, 3)
	require.NoError(t, err)
	assert.False(t, verdict.Affordable) // 10000 per month vs 7500 limit

	_, err = svc.CheckPurchase(ctx, userID, money.Zero(), 6)
	assert.Error(t, err)
}
