package bnpl

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credwise/credwise-api/pkg/gmail"
)

type mockRepository struct {
	processed map[string]bool
	inserted  []*Record
	insertOK  bool
	err       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{processed: map[string]bool{}, insertOK: true}
}

func (m *mockRepository) IsMessageProcessed(ctx context.Context, userID uuid.UUID, gmailMessageID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.processed[gmailMessageID], nil
}

func (m *mockRepository) InsertRecord(ctx context.Context, rec *Record) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if !m.insertOK {
		return false, nil
	}
	m.inserted = append(m.inserted, rec)
	m.processed[rec.GmailMessageID] = true
	return true, nil
}

func (m *mockRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.inserted, nil
}

func (m *mockRepository) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	return m.err
}

type mockSource struct {
	messages []gmail.Message
	err      error
}

func (m *mockSource) FetchFinancialMessages(ctx context.Context, accessToken, refreshToken string, onRefresh gmail.TokenUpdateFunc) ([]gmail.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.messages, nil
}

type mockTokenStore struct {
	access  string
	refresh string
	saved   string
	err     error
}

func (m *mockTokenStore) GmailToken(ctx context.Context, userID uuid.UUID) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	return m.access, m.refresh, nil
}

func (m *mockTokenStore) SaveGmailToken(ctx context.Context, userID uuid.UUID, accessToken string, expiry time.Time) error {
	m.saved = accessToken
	return nil
}

func newTestService(repo Repository, source MessageSource) *Service {
	return NewService(repo, source, &mockTokenStore{access: "at", refresh: "rt"}, slog.New(slog.DiscardHandler))
}

func TestService_SyncMailbox_MixedBatch(t *testing.T) {
	repo := newMockRepository()
	source := &mockSource{messages: []gmail.Message{
		{
			ID:      "msg-1",
			Sender:  "alerts@hdfcbank.net",
			Subject: "EMI Payment Reminder",
			Body:    "Your minimum due is Rs. 4500 payable before due date 15/03/2026.",
		},
		{
			ID:      "msg-2",
			Sender:  "offers@store.example",
			Subject: "Flash sale ends tonight",
			Body:    "Everything at 70% off, shop now!",
		},
		{
			ID:      "msg-3",
			Sender:  "alerts@icicibank.com",
			Subject: "Your EMI payment was received",
			Body:    "Thank you, your installment was processed successfully.",
		},
	}}

	svc := newTestService(repo, source)
	result, err := svc.SyncMailbox(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 1, result.BNPLCount)
	assert.Equal(t, 2, result.FilteredCount)
	assert.Zero(t, result.SkippedCount)

	require.Len(t, repo.inserted, 1)
	rec := repo.inserted[0]
	assert.Equal(t, "msg-1", rec.GmailMessageID)
	assert.Equal(t, "HDFC Bank", rec.Vendor)
	assert.Equal(t, "4500", rec.Amount.String())
	assert.Equal(t, 1, rec.Installments)
	assert.Equal(t, "15/03/2026", rec.DueDate)
	assert.Equal(t, ConfidenceTrusted, rec.Confidence)
	assert.Equal(t, "EMI Payment Reminder", rec.Subject)
}

func TestService_SyncMailbox_Idempotent(t *testing.T) {
	repo := newMockRepository()
	source := &mockSource{messages: []gmail.Message{
		{
			ID:      "msg-1",
			Sender:  "alerts@hdfcbank.net",
			Subject: "EMI Payment Reminder",
			Body:    "Total due Rs. 2,000, 4 EMI, due date 01/10/2026.",
		},
	}}

	svc := newTestService(repo, source)
	userID := uuid.New()

	first, err := svc.SyncMailbox(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.BNPLCount)

	second, err := svc.SyncMailbox(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Synced)
	assert.Zero(t, second.BNPLCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.Len(t, repo.inserted, 1)
}

func TestService_SyncMailbox_SyncedCountsEveryMessageSeen(t *testing.T) {
	repo := newMockRepository()
	repo.processed["msg-1"] = true
	source := &mockSource{messages: []gmail.Message{
		{
			ID:      "msg-1",
			Sender:  "alerts@hdfcbank.net",
			Subject: "EMI Payment Reminder",
			Body:    "Your minimum due is Rs. 4500 payable before due date 15/03/2026.",
		},
		{
			ID:      "msg-2",
			Sender:  "alerts@icicibank.com",
			Subject: "EMI Payment Reminder",
			Body:    "Total due Rs. 2,000, 4 EMI, due date 01/10/2026.",
		},
	}}

	svc := newTestService(repo, source)
	result, err := svc.SyncMailbox(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.BNPLCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Zero(t, result.FilteredCount)
	assert.Equal(t, result.Synced, result.BNPLCount+result.FilteredCount+result.SkippedCount)
}

func TestService_SyncMailbox_InsertRaceCountsAsSkipped(t *testing.T) {
	repo := newMockRepository()
	repo.insertOK = false
	source := &mockSource{messages: []gmail.Message{
		{
			ID:      "msg-1",
			Sender:  "alerts@hdfcbank.net",
			Subject: "EMI Payment Reminder",
			Body:    "Total due Rs. 2,000, due date 01/10/2026.",
		},
	}}

	svc := newTestService(repo, source)
	result, err := svc.SyncMailbox(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, result.BNPLCount)
	assert.Equal(t, 1, result.SkippedCount)
}

func TestService_SyncMailbox_AcceptedWithoutAmountIsFiltered(t *testing.T) {
	repo := newMockRepository()
	source := &mockSource{messages: []gmail.Message{
		{
			ID:      "msg-1",
			Sender:  "alerts@hdfcbank.net",
			Subject: "EMI schedule update",
			Body:    "Your EMI due date has moved to next month. No amount is stated here.",
		},
	}}

	svc := newTestService(repo, source)
	result, err := svc.SyncMailbox(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, result.BNPLCount)
	assert.Equal(t, 1, result.FilteredCount)
	assert.Empty(t, repo.inserted)
}

func TestService_SyncMailbox_FetchError(t *testing.T) {
	repo := newMockRepository()
	source := &mockSource{err: errors.New("gmail unavailable")}

	svc := newTestService(repo, source)
	_, err := svc.SyncMailbox(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch messages")
}

func TestRecord_MonthlyShare(t *testing.T) {
	rec := &Record{Amount: decimal.RequireFromString("9000"), Installments: 6}
	assert.Equal(t, "1500", rec.MonthlyShare().String())

	single := &Record{Amount: decimal.RequireFromString("499.50"), Installments: 1}
	assert.Equal(t, "499.5", single.MonthlyShare().String())
}
