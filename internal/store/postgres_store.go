package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists transaction audit records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit store. The schema is
// managed by the migrations/ directory via cmd/migrate.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, tx *Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, transaction_id, amount, transaction_time, device, location,
			 blacklisted, flagged, source, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		tx.ID,
		tx.TransactionID,
		tx.Amount,
		tx.TransactionTime,
		tx.Device,
		tx.Location,
		tx.Blacklisted,
		tx.Flagged,
		tx.Source,
		tx.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, amount, transaction_time, device, location,
		       blacklisted, flagged, source, received_at
		FROM transactions
		ORDER BY received_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.TransactionID,
			&tx.Amount,
			&tx.TransactionTime,
			&tx.Device,
			&tx.Location,
			&tx.Blacklisted,
			&tx.Flagged,
			&tx.Source,
			&tx.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, &tx)
	}
	return result, rows.Err()
}
