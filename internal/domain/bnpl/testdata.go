package bnpl

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestDataGenerator produces realistic BNPL records for demos and tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with a specific seed so fixtures
// stay reproducible.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

var testVendors = []string{
	"Amazon", "Flipkart", "Myntra", "HDFC Bank", "ICICI Bank",
	"Bajaj Finserv", "LazyPay", "ZestMoney", "Simpl",
}

// Record generates a single random obligation for the user.
func (g *TestDataGenerator) Record(userID uuid.UUID) *Record {
	vendor := testVendors[g.faker.Number(0, len(testVendors)-1)]
	installments := g.faker.Number(1, 12)
	amount := decimal.NewFromInt(int64(g.faker.Number(200, 50000)))

	due := g.faker.DateRange(time.Now(), time.Now().AddDate(0, 3, 0))
	dueDate := fmt.Sprintf("%02d/%02d/%04d", due.Day(), int(due.Month()), due.Year())
	if g.faker.Bool() && g.faker.Bool() {
		dueDate = DueDateMentioned
	}

	confidence := ConfidenceTrusted
	if g.faker.Bool() && g.faker.Bool() {
		confidence = ConfidenceInferred
	}

	return &Record{
		ID:             uuid.New(),
		UserID:         userID,
		GmailMessageID: g.faker.UUID(),
		Vendor:         vendor,
		Amount:         amount,
		Installments:   installments,
		DueDate:        dueDate,
		Confidence:     confidence,
		Subject:        fmt.Sprintf("%s EMI reminder", vendor),
		CreatedAt:      g.faker.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
	}
}

// Records generates n random obligations for the user.
func (g *TestDataGenerator) Records(userID uuid.UUID, n int) []*Record {
	records := make([]*Record, n)
	for i := range records {
		records[i] = g.Record(userID)
	}
	return records
}
