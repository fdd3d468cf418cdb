// Package reminder emails users about EMI payments coming due.
package reminder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DueRecord pairs an obligation with its owner's email address.
type DueRecord struct {
	Email        string
	Vendor       string
	Amount       decimal.Decimal
	Installments int
	DueDate      string
}

// PgxPool is the pool subset the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads dated obligations for the reminder sweep.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a new reminder repository.
func NewRepository(pool PgxPool) *Repository {
	return &Repository{pool: pool}
}

// ListDatedRecords returns every record that carries a concrete due date,
// joined with the owner's email. Due dates are stored as DD/MM/YYYY text, so
// window filtering happens in the service.
func (r *Repository) ListDatedRecords(ctx context.Context) ([]*DueRecord, error) {
	query := `
		SELECT u.email, b.vendor, b.amount, b.installments, b.due_date
		FROM bnpl_records b
		JOIN users u ON u.id = b.user_id
		WHERE u.is_active AND b.due_date ~ '^\d{2}/\d{2}/\d{4}$'
		ORDER BY u.email`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dated records: %w", err)
	}
	defer rows.Close()

	var records []*DueRecord
	for rows.Next() {
		rec := &DueRecord{}
		if err := rows.Scan(&rec.Email, &rec.Vendor, &rec.Amount, &rec.Installments, &rec.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan dated record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dated records: %w", err)
	}
	return records, nil
}
