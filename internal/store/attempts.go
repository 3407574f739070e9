package store

import (
	"context"
	"fmt"
)

// AttemptRecord is one terminal trigger attempt outcome.
type AttemptRecord struct {
	ID        string
	Account   string
	State     string // "committed", "rejected" or "failed"
	Reason    string // machine-readable reason code, empty on commit
	AmountIn  uint64
	AmountOut uint64
	Seq       int64
	CreatedAt int64 // unix seconds
}

// AppendAttempt journals a terminal attempt outcome.
// Idempotent on attempt ID: replaying the same attempt is a no-op.
func (s *Store) AppendAttempt(ctx context.Context, rec AttemptRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts
		(id, account, state, reason, amount_in, amount_out, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Account,
		rec.State,
		rec.Reason,
		int64(rec.AmountIn),
		int64(rec.AmountOut),
		rec.Seq,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// ReadAttempts returns all journaled attempts for an account with
// deterministic ordering: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no attempts exist.
func (s *Store) ReadAttempts(ctx context.Context, account string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account, state, reason, amount_in, amount_out, seq, created_at
		FROM attempts
		WHERE account = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var amountIn, amountOut int64
		if err := rows.Scan(&rec.ID, &rec.Account, &rec.State, &rec.Reason, &amountIn, &amountOut, &rec.Seq, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.AmountIn = uint64(amountIn)
		rec.AmountOut = uint64(amountOut)
		attempts = append(attempts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	if attempts == nil {
		attempts = []AttemptRecord{}
	}
	return attempts, nil
}

// MaxAttemptSeq returns the highest journaled seq, 0 when the journal is
// empty. Used to resume the sequencer past existing entries after a restart.
func (s *Store) MaxAttemptSeq(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM attempts
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max attempt seq: %w", err)
	}
	return max, nil
}
