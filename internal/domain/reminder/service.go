package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/credwise/credwise-api/pkg/metrics"
)

const dueDateLayout = "02/01/2006"

// DefaultWindowDays is how far ahead the sweep looks for due payments.
const DefaultWindowDays = 3

// RecordLister supplies dated obligations for the sweep.
type RecordLister interface {
	ListDatedRecords(ctx context.Context) ([]*DueRecord, error)
}

// Service sends due-date reminder emails through Resend.
type Service struct {
	repo         RecordLister
	resendClient *resend.Client
	fromEmail    string
	windowDays   int
	logger       *slog.Logger

	now func() time.Time
}

// NewService creates a reminder service. With an empty API key the sweep
// still runs but sending is skipped, matching local development setups.
func NewService(repo RecordLister, apiKey, fromEmail string, windowDays int, logger *slog.Logger) *Service {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{
		repo:         repo,
		resendClient: client,
		fromEmail:    fromEmail,
		windowDays:   windowDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Sweep emails every user who has a payment due within the window. Returns
// the number of reminder emails sent.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	records, err := s.repo.ListDatedRecords(ctx)
	if err != nil {
		return 0, err
	}

	today := s.now().Truncate(24 * time.Hour)
	horizon := today.AddDate(0, 0, s.windowDays)

	byEmail := map[string][]*DueRecord{}
	var emails []string
	for _, rec := range records {
		due, err := time.Parse(dueDateLayout, rec.DueDate)
		if err != nil {
			continue
		}
		if due.Before(today) || due.After(horizon) {
			continue
		}
		if _, ok := byEmail[rec.Email]; !ok {
			emails = append(emails, rec.Email)
		}
		byEmail[rec.Email] = append(byEmail[rec.Email], rec)
	}

	sent := 0
	for _, email := range emails {
		if err := s.sendReminder(email, byEmail[email]); err != nil {
			s.logger.Error("failed to send reminder",
				slog.String("email", email),
				slog.Any("error", err),
			)
			continue
		}
		sent++
		metrics.RemindersSent.Inc()
	}

	s.logger.Info("reminder sweep complete",
		slog.Int("candidates", len(records)),
		slog.Int("sent", sent),
	)
	return sent, nil
}

func (s *Service) sendReminder(email string, records []*DueRecord) error {
	if s.resendClient == nil {
		s.logger.Warn("resend client not configured, skipping reminder email")
		return nil
	}

	var items strings.Builder
	for _, rec := range records {
		items.WriteString(fmt.Sprintf(
			`<li><strong>%s</strong>: ₹%s due on %s</li>`,
			rec.Vendor, rec.Amount.StringFixed(2), rec.DueDate,
		))
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2933;">
  <div style="max-width: 480px; margin: 0 auto; padding: 24px;">
    <h2>Upcoming EMI payments</h2>
    <p>The following payments are due within the next %d days:</p>
    <ul>%s</ul>
    <p>Paying on time keeps your credit profile healthy.</p>
    <p style="color: #9aa5b1; font-size: 12px;">CredWise payment reminders</p>
  </div>
</body>
</html>
`, s.windowDays, items.String())

	_, err := s.resendClient.Emails.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "EMI payments due soon",
		Html:    html,
	})
	return err
}
