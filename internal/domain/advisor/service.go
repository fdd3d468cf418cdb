package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/analysis"
	"github.com/credwise/credwise-api/internal/domain/bnpl"
)

const maxQuestionLen = 2000

const promptFormat = `You are a cautious personal-finance assistant for an Indian user.
All amounts are in Indian rupees. Base your answer only on the financial
snapshot below, keep it under 150 words, and never recommend taking on debt
beyond the stated safe limit.

Financial snapshot:
- Monthly salary: %s
- Fixed monthly expenses (rent, bills, loans): %s
- Current BNPL/EMI obligation per month: %s
- Debt-to-income risk level: %s
- Safe additional EMI limit per month: %s
- Active obligations:
%s

Question: %s`

// AnalysisSource provides the financial snapshot for prompt grounding.
type AnalysisSource interface {
	RiskScore(ctx context.Context, userID uuid.UUID) (*analysis.RiskReport, error)
	Affordability(ctx context.Context, userID uuid.UUID) (*analysis.AffordabilityReport, error)
}

// RecordSource lists a user's stored obligations.
type RecordSource interface {
	Records(ctx context.Context, userID uuid.UUID) ([]*bnpl.Record, error)
}

// Service answers chat questions grounded in the user's finances.
type Service struct {
	generator Generator
	analysis  AnalysisSource
	records   RecordSource
	logger    *slog.Logger
}

// NewService creates a new advisor service.
func NewService(generator Generator, analysisSource AnalysisSource, records RecordSource, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		analysis:  analysisSource,
		records:   records,
		logger:    logger,
	}
}

// Chat answers one question using the user's current financial snapshot.
func (s *Service) Chat(ctx context.Context, userID uuid.UUID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question required")
	}
	if len(question) > maxQuestionLen {
		question = question[:maxQuestionLen]
	}

	risk, err := s.analysis.RiskScore(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load risk report: %w", err)
	}
	affordability, err := s.analysis.Affordability(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load affordability report: %w", err)
	}
	records, err := s.records.Records(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load records: %w", err)
	}

	prompt := fmt.Sprintf(promptFormat,
		affordability.Salary.Display(),
		affordability.FixedExpenses.Display(),
		affordability.MonthlyObligation.Display(),
		risk.RiskLevel,
		affordability.SafeLimit.Display(),
		summarizeRecords(records),
		question,
	)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	s.logger.Info("advisor chat answered",
		slog.String("user_id", userID.String()),
		slog.Int("records", len(records)),
	)
	return strings.TrimSpace(answer), nil
}

func summarizeRecords(records []*bnpl.Record) string {
	if len(records) == 0 {
		return "  (none)"
	}

	var b strings.Builder
	for _, rec := range records {
		line := fmt.Sprintf("  - %s: Rs. %s over %d installment(s)", rec.Vendor, rec.Amount.StringFixed(2), rec.Installments)
		if rec.DueDate != "" {
			line += ", due " + rec.DueDate
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
