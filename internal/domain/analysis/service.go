// Package analysis computes debt-to-income risk and purchase affordability
// from stored obligations and the user's profile.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/credwise/credwise-api/internal/domain/bnpl"
	"github.com/credwise/credwise-api/internal/domain/user"
	"github.com/credwise/credwise-api/pkg/money"
)

// RiskLevel buckets the debt-to-income ratio.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Ratio thresholds: below 0.2 is low, below 0.4 is medium, else high.
var (
	mediumThreshold = decimal.NewFromFloat(0.2)
	highThreshold   = decimal.NewFromFloat(0.4)

	// safeSpendShare caps healthy EMI outgo at 30% of salary.
	safeSpendShare = decimal.NewFromFloat(0.3)
)

// RiskReport summarizes the user's debt position.
type RiskReport struct {
	MonthlyObligation *money.Money    `json:"monthly_obligation"`
	Salary            *money.Money    `json:"salary"`
	DebtRatio         decimal.Decimal `json:"debt_ratio"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	RecordCount       int             `json:"record_count"`
}

// AffordabilityReport is the monthly budget picture.
type AffordabilityReport struct {
	Salary            *money.Money `json:"salary"`
	FixedExpenses     *money.Money `json:"fixed_expenses"`
	MonthlyObligation *money.Money `json:"monthly_obligation"`
	Disposable        *money.Money `json:"disposable"`
	SafeLimit         *money.Money `json:"safe_limit"`
	Overextended      bool         `json:"overextended"`
}

// PurchaseVerdict answers "can I afford this EMI plan".
type PurchaseVerdict struct {
	MonthlyCost *money.Money `json:"monthly_cost"`
	SafeLimit   *money.Money `json:"safe_limit"`
	Affordable  bool         `json:"affordable"`
	Message     string       `json:"message"`
}

// RecordSource lists a user's stored obligations.
type RecordSource interface {
	Records(ctx context.Context, userID uuid.UUID) ([]*bnpl.Record, error)
}

// ProfileSource loads a user's financial profile.
type ProfileSource interface {
	Profile(ctx context.Context, userID uuid.UUID) (*user.Profile, error)
}

// Service computes risk and affordability reports.
type Service struct {
	records  RecordSource
	profiles ProfileSource
	logger   *slog.Logger
}

// NewService creates a new analysis service.
func NewService(records RecordSource, profiles ProfileSource, logger *slog.Logger) *Service {
	return &Service{records: records, profiles: profiles, logger: logger}
}

// monthlyObligation sums each record's per-month share.
func monthlyObligation(records []*bnpl.Record) *money.Money {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.MonthlyShare())
	}
	return money.NewFromDecimal(total)
}

// RiskScore computes the debt-to-income ratio and its risk bucket.
func (s *Service) RiskScore(ctx context.Context, userID uuid.UUID) (*RiskReport, error) {
	records, err := s.records.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	obligation := monthlyObligation(records)
	salary := profile.Salary
	if salary == nil {
		salary = money.Zero()
	}

	var ratio decimal.Decimal
	level := RiskLow
	switch {
	case salary.IsZero() && obligation.IsZero():
		// Nothing earned, nothing owed.
	case salary.IsZero():
		// Obligations with no declared income are always high risk.
		level = RiskHigh
	default:
		ratio = obligation.Ratio(salary)
		switch {
		case ratio.GreaterThanOrEqual(highThreshold):
			level = RiskHigh
		case ratio.GreaterThanOrEqual(mediumThreshold):
			level = RiskMedium
		}
	}

	return &RiskReport{
		MonthlyObligation: obligation,
		Salary:            salary,
		DebtRatio:         ratio,
		RiskLevel:         level,
		RecordCount:       len(records),
	}, nil
}

// Affordability computes the monthly budget picture. The safe limit is 30%
// of salary minus the current obligation; a negative limit means the user is
// already overextended.
func (s *Service) Affordability(ctx context.Context, userID uuid.UUID) (*AffordabilityReport, error) {
	records, err := s.records.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	salary := orZero(profile.Salary)
	fixed := orZero(profile.MonthlyRent).
		Add(orZero(profile.OtherExpenses)).
		Add(orZero(profile.ExistingLoans))
	obligation := monthlyObligation(records)

	disposable := salary.Subtract(fixed).Subtract(obligation)
	safeLimit := salary.MultiplyDecimal(safeSpendShare).Subtract(obligation)

	return &AffordabilityReport{
		Salary:            salary,
		FixedExpenses:     fixed,
		MonthlyObligation: obligation,
		Disposable:        disposable,
		SafeLimit:         safeLimit,
		Overextended:      safeLimit.IsNegative(),
	}, nil
}

// CheckPurchase answers whether an EMI plan of price over months fits the
// user's safe limit.
func (s *Service) CheckPurchase(ctx context.Context, userID uuid.UUID, price *money.Money, months int) (*PurchaseVerdict, error) {
	if price == nil || !price.IsPositive() {
		return nil, fmt.Errorf("price must be positive")
	}
	if months < 1 {
		months = 1
	}

	report, err := s.Affordability(ctx, userID)
	if err != nil {
		return nil, err
	}

	monthly := price.DivideDecimal(decimal.NewFromInt(int64(months)))
	affordable := report.SafeLimit.IsPositive() && !monthly.GreaterThan(report.SafeLimit)

	message := fmt.Sprintf("A %d-month plan costs %s per month, within your safe limit of %s.",
		months, monthly.Display(), report.SafeLimit.Display())
	if !affordable {
		message = fmt.Sprintf("A %d-month plan costs %s per month, above your safe limit of %s.",
			months, monthly.Display(), report.SafeLimit.Display())
	}

	return &PurchaseVerdict{
		MonthlyCost: monthly,
		SafeLimit:   report.SafeLimit,
		Affordable:  affordable,
		Message:     message,
	}, nil
}

func orZero(m *money.Money) *money.Money {
	if m == nil {
		return money.Zero()
	}
	return m
}
