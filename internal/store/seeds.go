package store

import (
	"context"
	"fmt"
	"time"
)

// MarkSeedUsed records a consumed randomness seed. Returns inserted=false
// when the seed hash was already recorded - the replay signal the gate
// turns into SeedReused.
//
// ON CONFLICT DO NOTHING keeps the first record authoritative; the replay
// attempt never overwrites who consumed the seed.
func (s *Store) MarkSeedUsed(ctx context.Context, seedHash, account, attemptID string, usedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO used_seeds (seed_hash, account, attempt_id, used_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(seed_hash) DO NOTHING
	`,
		seedHash,
		account,
		attemptID,
		usedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("mark seed used: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark seed used: rows affected: %w", err)
	}
	return n > 0, nil
}
