package advisor

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credwise/credwise-api/internal/domain/analysis"
	"github.com/credwise/credwise-api/internal/domain/bnpl"
	"github.com/credwise/credwise-api/pkg/money"
)

type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func (f *fakeGenerator) Close() error { return nil }

type fakeAnalysis struct{}

func (fakeAnalysis) RiskScore(ctx context.Context, userID uuid.UUID) (*analysis.RiskReport, error) {
	return &analysis.RiskReport{RiskLevel: analysis.RiskMedium}, nil
}

func (fakeAnalysis) Affordability(ctx context.Context, userID uuid.UUID) (*analysis.AffordabilityReport, error) {
	return &analysis.AffordabilityReport{
		Salary:            money.New(30000_00),
		FixedExpenses:     money.New(12000_00),
		MonthlyObligation: money.New(6000_00),
		SafeLimit:         money.New(3000_00),
	}, nil
}

type fakeRecords struct {
	records []*bnpl.Record
}

func (f *fakeRecords) Records(ctx context.Context, userID uuid.UUID) ([]*bnpl.Record, error) {
	return f.records, nil
}

func TestService_Chat(t *testing.T) {
	gen := &fakeGenerator{answer: "  Stick to your safe limit of ₹3,000.  "}
	records := &fakeRecords{records: []*bnpl.Record{
		{Vendor: "Flipkart", Amount: decimal.RequireFromString("9000"), Installments: 6, DueDate: "15/03/2026"},
	}}
	svc := NewService(gen, fakeAnalysis{}, records, slog.New(slog.DiscardHandler))

	answer, err := svc.Chat(context.Background(), uuid.New(), "Can I buy a phone on EMI?")
	require.NoError(t, err)
	assert.Equal(t, "Stick to your safe limit of ₹3,000.", answer)

	// The prompt carries the grounded snapshot, not just the question.
	assert.Contains(t, gen.prompt, "Medium")
	assert.Contains(t, gen.prompt, "Flipkart")
	assert.Contains(t, gen.prompt, "due 15/03/2026")
	assert.Contains(t, gen.prompt, "Can I buy a phone on EMI?")
}

func TestService_Chat_EmptyQuestion(t *testing.T) {
	svc := NewService(&fakeGenerator{}, fakeAnalysis{}, &fakeRecords{}, slog.New(slog.DiscardHandler))

	_, err := svc.Chat(context.Background(), uuid.New(), "   ")
	assert.Error(t, err)
}
