package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
)

// Record is one entry of the mutation log.
type Record struct {
	Seq      int64
	Version  int64
	Envelope engine.Envelope
}

// Commit stores ws as a snapshot and appends records to the mutation log
// in a single transaction. base is the version ws was built from.
//
// Committing the same snapshot twice is a no-op. Anything else fails with
// ErrConflict and writes nothing unless base is still the newest version
// in the store, counting versions that only appear in the log.
func (s *Store) Commit(ctx context.Context, base int64, ws *ir.Workspace, records []Record) error {
	body, digest, err := marshalWorkspace(ws)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT digest FROM snapshots WHERE version = ?`, ws.Version).Scan(&existing)
	switch {
	case err == nil:
		if existing != digest {
			return fmt.Errorf("commit v%d: %w", ws.Version, ErrConflict)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("commit: check version: %w", err)
	}

	var head int64
	if err := tx.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(version), 0) FROM snapshots),
			(SELECT COALESCE(MAX(version), 0) FROM mutations)
		)
	`).Scan(&head); err != nil {
		return fmt.Errorf("commit: read head version: %w", err)
	}
	if head != base {
		return fmt.Errorf("commit v%d from v%d, store is at v%d: %w", ws.Version, base, head, ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (version, digest, format, engine_version, body)
		VALUES (?, ?, ?, ?, ?)
	`, ws.Version, digest, ir.SnapshotFormat, ir.EngineVersion, body); err != nil {
		return fmt.Errorf("commit: insert snapshot: %w", err)
	}

	for _, r := range records {
		text, err := marshalEnvelope(r.Envelope)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mutations (version, kind, body)
			VALUES (?, ?, ?)
		`, r.Version, string(r.Envelope.Kind), text); err != nil {
			return fmt.Errorf("commit: insert mutation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
