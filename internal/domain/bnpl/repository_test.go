package bnpl

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_IsMessageProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(userID, "msg-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	processed, err := repo.IsMessageProcessed(context.Background(), userID, "msg-1")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_InsertRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	rec := &Record{
		UserID:         uuid.New(),
		GmailMessageID: "msg-1",
		Vendor:         "HDFC Bank",
		Amount:         decimal.RequireFromString("4500"),
		Installments:   1,
		DueDate:        "15/03/2026",
		Confidence:     ConfidenceTrusted,
		Subject:        "EMI Payment Reminder",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bnpl_records")).
		WithArgs(pgxmock.AnyArg(), rec.UserID, rec.GmailMessageID, rec.Vendor,
			rec.Amount, rec.Installments, rec.DueDate, rec.Confidence, rec.Subject).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.InsertRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_InsertRecord_DuplicateDroppedByConstraint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	rec := &Record{
		UserID:         uuid.New(),
		GmailMessageID: "msg-1",
		Vendor:         "HDFC Bank",
		Amount:         decimal.RequireFromString("4500"),
		Installments:   1,
		Confidence:     ConfidenceTrusted,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bnpl_records")).
		WithArgs(pgxmock.AnyArg(), rec.UserID, rec.GmailMessageID, rec.Vendor,
			rec.Amount, rec.Installments, rec.DueDate, rec.Confidence, rec.Subject).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.InsertRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	repo := NewPostgresRepository(mock)
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "gmail_message_id", "vendor", "amount",
		"installments", "due_date", "confidence", "subject", "created_at",
	}).AddRow(
		uuid.New(), userID, "msg-1", "Flipkart", decimal.RequireFromString("1000"),
		6, "Due date mentioned", ConfidenceInferred, "Order confirmed", now,
	).AddRow(
		uuid.New(), userID, "msg-2", "HDFC Bank", decimal.RequireFromString("4500"),
		1, "15/03/2026", ConfidenceTrusted, "EMI Payment Reminder", now,
	)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bnpl_records")).
		WithArgs(userID).
		WillReturnRows(rows)

	records, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Flipkart", records[0].Vendor)
	assert.Equal(t, 6, records[0].Installments)
	assert.Equal(t, ConfidenceTrusted, records[1].Confidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteRecord_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID, id := uuid.New(), uuid.New()
	repo := NewPostgresRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bnpl_records")).
		WithArgs(userID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.DeleteRecord(context.Background(), userID, id)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
