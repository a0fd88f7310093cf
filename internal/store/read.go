package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/protoboard/internal/ir"
)

var (
	// ErrNotFound is returned when no snapshot matches a lookup.
	ErrNotFound = errors.New("snapshot not found")
	// ErrConflict is returned when a commit's base version is no longer
	// the newest version in the store.
	ErrConflict = errors.New("workspace was committed from a stale version")
)

// Snapshot is a stored workspace plus its metadata.
type Snapshot struct {
	Version       int64
	Digest        string
	Format        string
	EngineVersion string
	Workspace     *ir.Workspace
}

// Latest returns the snapshot with the highest version.
// Returns ErrNotFound for an empty store.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, digest, format, engine_version, body
		FROM snapshots
		ORDER BY version DESC
		LIMIT 1
	`)
	return scanSnapshot(row)
}

// Snapshot returns the snapshot stored for version.
func (s *Store) Snapshot(ctx context.Context, version int64) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, digest, format, engine_version, body
		FROM snapshots
		WHERE version = ?
	`, version)
	return scanSnapshot(row)
}

// SnapshotByDigest returns the oldest snapshot with the given digest.
func (s *Store) SnapshotByDigest(ctx context.Context, digest string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, digest, format, engine_version, body
		FROM snapshots
		WHERE digest = ?
		ORDER BY version ASC
		LIMIT 1
	`, digest)
	return scanSnapshot(row)
}

// Versions lists stored snapshot versions in ascending order.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) Versions(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM snapshots ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []int64{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

// Mutations returns log records that produced versions above after,
// ordered by seq.
func (s *Store) Mutations(ctx context.Context, after int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, version, body
		FROM mutations
		WHERE version > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r    Record
			body string
		)
		if err := rows.Scan(&r.Seq, &r.Version, &body); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		env, err := unmarshalEnvelope(body)
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", r.Seq, err)
		}
		r.Envelope = env
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return records, nil
}

func scanSnapshot(row *sql.Row) (Snapshot, error) {
	var (
		snap Snapshot
		body string
	)
	err := row.Scan(&snap.Version, &snap.Digest, &snap.Format, &snap.EngineVersion, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	ws, err := unmarshalWorkspace(body, snap.Digest)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Workspace = ws
	return snap, nil
}
