// Package bnpl detects buy-now-pay-later and EMI obligations in email and
// persists them as structured records.
package bnpl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Record is a stored payment obligation tied to the Gmail message it was
// extracted from. DueDate stays textual: it is either a normalized
// DD/MM/YYYY date or the DueDateMentioned sentinel.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"-"`
	GmailMessageID string          `json:"gmail_message_id"`
	Vendor         string          `json:"vendor"`
	Amount         decimal.Decimal `json:"amount"`
	Installments   int             `json:"installments"`
	DueDate        string          `json:"due_date,omitempty"`
	Confidence     Confidence      `json:"confidence"`
	Subject        string          `json:"subject"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MonthlyShare is the record's contribution to the user's monthly outgo.
func (r *Record) MonthlyShare() decimal.Decimal {
	if r.Installments < 1 {
		return r.Amount
	}
	return r.Amount.Div(decimal.NewFromInt(int64(r.Installments))).Round(2)
}

// Repository defines persistence for BNPL records.
type Repository interface {
	// IsMessageProcessed reports whether a record for this Gmail message
	// already exists for the user. Used as a cheap pre-check before
	// extraction; the unique constraint remains the final authority.
	IsMessageProcessed(ctx context.Context, userID uuid.UUID, gmailMessageID string) (bool, error)

	// InsertRecord stores a record, returning false when a concurrent sync
	// already stored the same (user, message) pair.
	InsertRecord(ctx context.Context, rec *Record) (bool, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error)
	DeleteRecord(ctx context.Context, userID, id uuid.UUID) error
}

// PgxPool is the subset of pgxpool.Pool the repository uses. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
