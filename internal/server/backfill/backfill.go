// Package backfill performs the one-time remediation of legacy items rows
// whose description is NULL, in two separately runnable phases:
//
//	phase 1: snapshot the affected ids, then set NULL descriptions to ''
//	phase 2: add the NOT NULL constraint to items.description
//
// VerifyConstraint confirms the constraint by attempting a NULL insert inside
// a transaction that is always rolled back.
package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
)

const (
	selectNullIDs   = `SELECT id FROM items WHERE description IS NULL ORDER BY id FOR UPDATE`
	backfillNulls   = `UPDATE items SET description = '' WHERE description IS NULL`
	countNulls      = `SELECT COUNT(*) FROM items WHERE description IS NULL`
	setNotNull      = `ALTER TABLE items ALTER COLUMN description SET NOT NULL`
	insertNullRow = `INSERT INTO items (name, description) VALUES ('test', NULL)`
)

var (
	ErrNullsRemaining     = errors.New("NULL descriptions remain")
	ErrNotConfirmed       = errors.New("phase 2 not confirmed")
	ErrConstraintMissing  = errors.New("NULL description was accepted")
	ErrUnknownPhase       = errors.New("unknown phase")
	errSnapshotterMissing = errors.New("snapshotter is not configured")
)

// Phase selects what Run executes.
type Phase string

const (
	PhaseBackfill Phase = "1"
	PhaseEnforce  Phase = "2"
	PhaseFull     Phase = "full"
)

// ParsePhase validates a -phase flag value.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseBackfill, PhaseEnforce, PhaseFull:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q (want 1, 2 or full)", ErrUnknownPhase, s)
	}
}

// BackfillResult reports the outcome of phase 1.
type BackfillResult struct {
	Updated   int64
	Remaining int64
	Snapshot  string
}

type Migrator struct {
	db      *sql.DB
	snap    Snapshotter
	confirm Confirmer
	logger  logging.Logger
}

func NewMigrator(db *sql.DB, snap Snapshotter, confirm Confirmer, l logging.Logger) *Migrator {
	return &Migrator{
		db:      db,
		snap:    snap,
		confirm: confirm,
		logger:  l.With("module", "backfill"),
	}
}

// Run executes phase p. Phase 2 is followed by VerifyConstraint; PhaseFull
// runs phase 1 and continues only if it succeeded.
func (m *Migrator) Run(ctx context.Context, p Phase) error {
	switch p {
	case PhaseBackfill:
		_, err := m.BackfillNulls(ctx)
		return err
	case PhaseEnforce:
		if err := m.EnforceNotNull(ctx); err != nil {
			return err
		}
		return m.VerifyConstraint(ctx)
	case PhaseFull:
		if _, err := m.BackfillNulls(ctx); err != nil {
			m.logger.Error(ctx, "skipping phase 2 because phase 1 did not complete")
			return err
		}
		if err := m.EnforceNotNull(ctx); err != nil {
			return err
		}
		return m.VerifyConstraint(ctx)
	default:
		return fmt.Errorf("%w %q", ErrUnknownPhase, p)
	}
}

// BackfillNulls records the ids of rows with a NULL description, then sets
// those descriptions to '' in one transaction. It fails with
// ErrNullsRemaining if NULLs are still present after commit.
func (m *Migrator) BackfillNulls(ctx context.Context) (*BackfillResult, error) {
	if m.snap == nil {
		return nil, errSnapshotterMissing
	}

	m.logger.Info(ctx, "phase 1: backfilling NULL descriptions")

	res := &BackfillResult{}
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ids, err := nullIDs(ctx, tx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if res.Snapshot, err = m.snap.Save(ctx, ids); err != nil {
			return fmt.Errorf("snapshot error: %w", err)
		}
		m.logger.Info(ctx, "snapshot saved", "location", res.Snapshot, "rows", len(ids))

		r, err := tx.ExecContext(ctx, backfillNulls)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		res.Updated, err = r.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		m.logger.Error(ctx, "phase 1 failed", "error", err.Error())
		return nil, err
	}

	if res.Remaining, err = m.countNulls(ctx); err != nil {
		m.logger.Error(ctx, "phase 1 verification failed", "error", err.Error())
		return res, err
	}

	m.logger.Info(ctx, "phase 1 complete", "updated", res.Updated, "remaining", res.Remaining)
	if res.Remaining != 0 {
		return res, fmt.Errorf("%w: %d", ErrNullsRemaining, res.Remaining)
	}
	return res, nil
}

// EnforceNotNull adds the NOT NULL constraint after confirmation. It refuses
// to run while any NULL description remains.
func (m *Migrator) EnforceNotNull(ctx context.Context) error {
	m.logger.Info(ctx, "phase 2: altering description column to NOT NULL")

	n, err := m.countNulls(ctx)
	if err != nil {
		m.logger.Error(ctx, "phase 2 failed", "error", err.Error())
		return err
	}
	if n != 0 {
		m.logger.Error(ctx, "phase 2 refused: run phase 1 first", "remaining", n)
		return fmt.Errorf("%w: %d", ErrNullsRemaining, n)
	}

	ok, err := m.confirm.Confirm(ctx, "Add NOT NULL constraint to items.description?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}

	if _, err := m.db.ExecContext(ctx, setNotNull); err != nil {
		m.logger.Error(ctx, "phase 2 failed", "error", err.Error())
		return fmt.Errorf("db error: %w", err)
	}

	m.logger.Info(ctx, "phase 2 complete: description column is now NOT NULL")
	return nil
}

// VerifyConstraint succeeds if inserting a NULL description is rejected.
// Nothing is ever committed.
func (m *Migrator) VerifyConstraint(ctx context.Context) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertNullRow); err != nil {
		m.logger.Info(ctx, "constraint verified", "rejection", err.Error())
		return nil
	}

	m.logger.Error(ctx, "constraint verification failed: NULL was accepted")
	return ErrConstraintMissing
}

func (m *Migrator) countNulls(ctx context.Context) (int64, error) {
	var n int64
	if err := m.db.QueryRowContext(ctx, countNulls).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func nullIDs(ctx context.Context, db dbx.DBTX) ([]int64, error) {
	rows, err := db.QueryContext(ctx, selectNullIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
