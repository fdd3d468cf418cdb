package bnpl

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository creates a new PostgreSQL BNPL record repository.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// IsMessageProcessed checks for an existing record for this Gmail message.
func (r *PostgresRepository) IsMessageProcessed(ctx context.Context, userID uuid.UUID, gmailMessageID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bnpl_records
			WHERE user_id = $1 AND gmail_message_id = $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, gmailMessageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return exists, nil
}

// InsertRecord stores a record. The unique constraint on
// (user_id, gmail_message_id) makes the insert idempotent: a duplicate is
// silently dropped and reported via the bool.
func (r *PostgresRepository) InsertRecord(ctx context.Context, rec *Record) (bool, error) {
	query := `
		INSERT INTO bnpl_records (id, user_id, gmail_message_id, vendor, amount, installments, due_date, confidence, subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT uq_bnpl_records_user_message DO NOTHING`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	tag, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.GmailMessageID,
		rec.Vendor,
		rec.Amount,
		rec.Installments,
		rec.DueDate,
		rec.Confidence,
		rec.Subject,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the user's records, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	query := `
		SELECT id, user_id, gmail_message_id, vendor, amount, installments, due_date, confidence, subject, created_at
		FROM bnpl_records
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.GmailMessageID,
			&rec.Vendor,
			&rec.Amount,
			&rec.Installments,
			&rec.DueDate,
			&rec.Confidence,
			&rec.Subject,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes one record owned by the user.
func (r *PostgresRepository) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM bnpl_records WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
