package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Plan-level sentinel errors. The ledger maps these onto its domain error
// taxonomy; callers above the ledger never see them.
var (
	ErrPlanExists   = errors.New("plan already exists")
	ErrPlanNotFound = errors.New("plan not found")
)

// PlanRecord is the persisted shape of a plan.
//
// Monetary fields are smallest-unit amounts; they are stored in SQLite
// INTEGER columns and must stay below 1<<63.
type PlanRecord struct {
	Owner           string
	FrequencySec    int64
	Amount          uint64
	Total           uint64
	LastTriggeredAt int64 // unix seconds, 0 = never triggered
	Version         int64
	CreatedAt       int64 // unix seconds
}

// InsertPlan stores a new plan record. Returns ErrPlanExists if the owner
// already has a plan - creation never overwrites.
func (s *Store) InsertPlan(ctx context.Context, rec PlanRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plans
		(owner, frequency_sec, amount, total, last_triggered_at, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO NOTHING
	`,
		rec.Owner,
		rec.FrequencySec,
		int64(rec.Amount),
		int64(rec.Total),
		rec.LastTriggeredAt,
		rec.Version,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert plan: rows affected: %w", err)
	}
	if n == 0 {
		return ErrPlanExists
	}
	return nil
}

// ReadPlan returns the plan for an owner, or ErrPlanNotFound.
func (s *Store) ReadPlan(ctx context.Context, owner string) (PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT owner, frequency_sec, amount, total, last_triggered_at, version, created_at
		FROM plans
		WHERE owner = ?
	`, owner)

	var rec PlanRecord
	var amount, total int64
	err := row.Scan(&rec.Owner, &rec.FrequencySec, &amount, &total, &rec.LastTriggeredAt, &rec.Version, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, ErrPlanNotFound
	}
	if err != nil {
		return PlanRecord{}, fmt.Errorf("read plan: %w", err)
	}
	rec.Amount = uint64(amount)
	rec.Total = uint64(total)
	return rec, nil
}

// CommitPlan applies a proposed debit with a compare-and-swap on the plan
// version. Returns committed=false when the row has moved past baseVersion,
// which includes a second commit of the same proposal.
//
// This is the single mutation path for plan rows.
func (s *Store) CommitPlan(ctx context.Context, owner string, baseVersion int64, newTotal uint64, triggeredAt int64) (PlanRecord, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plans
		SET total = ?, last_triggered_at = ?, version = version + 1
		WHERE owner = ? AND version = ?
	`,
		int64(newTotal),
		triggeredAt,
		owner,
		baseVersion,
	)
	if err != nil {
		return PlanRecord{}, false, fmt.Errorf("commit plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return PlanRecord{}, false, fmt.Errorf("commit plan: rows affected: %w", err)
	}
	if n == 0 {
		return PlanRecord{}, false, nil
	}

	rec, err := s.ReadPlan(ctx, owner)
	if err != nil {
		return PlanRecord{}, false, fmt.Errorf("commit plan: read back: %w", err)
	}
	return rec, true, nil
}
