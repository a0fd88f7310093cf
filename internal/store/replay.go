package store

import (
	"context"
	"fmt"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

// Entry summarizes one stored version for history listings.
type Entry struct {
	Version int64 `json:"version"`
	// Digest is empty for versions produced inside a batch, which have no
	// snapshot of their own.
	Digest string               `json:"digest,omitempty"`
	Kinds  []rules.MutationKind `json:"kinds,omitempty"`
}

// History lists every version that appears in the snapshot table or the
// mutation log, ascending.
func (s *Store) History(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.version, COALESCE(sn.digest, ''), COALESCE(m.kind, '')
		FROM (
			SELECT version FROM snapshots
			UNION
			SELECT version FROM mutations
		) v
		LEFT JOIN snapshots sn ON sn.version = v.version
		LEFT JOIN mutations m ON m.version = v.version
		ORDER BY v.version ASC, m.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			version      int64
			digest, kind string
		)
		if err := rows.Scan(&version, &digest, &kind); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if len(entries) == 0 || entries[len(entries)-1].Version != version {
			entries = append(entries, Entry{Version: version, Digest: digest})
		}
		if kind != "" {
			last := &entries[len(entries)-1]
			last.Kinds = append(last.Kinds, rules.MutationKind(kind))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Replay rebuilds a workspace from an empty one by dispatching every logged
// mutation in seq order. Logged references are resolved against the
// workspace as it is rebuilt, so the result matches the stored snapshots
// structurally even though node ids differ.
func (s *Store) Replay(ctx context.Context, e *engine.Engine) (*ir.Workspace, error) {
	records, err := s.Mutations(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	ws := ir.NewWorkspace()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env, err := r.Envelope.Resolve(ws)
		if err != nil {
			return nil, fmt.Errorf("replay mutation %d: %w", r.Seq, err)
		}
		m, err := env.Mutation()
		if err != nil {
			return nil, fmt.Errorf("replay mutation %d: %w", r.Seq, err)
		}
		ws, err = e.Dispatch(ws, m)
		if err != nil {
			return nil, fmt.Errorf("replay mutation %d (%s): %w", r.Seq, m.Kind(), err)
		}
	}
	return ws, nil
}
