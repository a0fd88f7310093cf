package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
	"github.com/roach88/protoboard/internal/store"
	"github.com/roach88/protoboard/internal/testutil"
)

func TestHistoryEmpty(t *testing.T) {
	opts := testOptions(t)

	out, err := execute(t, NewHistoryCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No versions recorded.")
}

func TestHistoryListsVersions(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	out, err := execute(t, NewHistoryCommand(opts))
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^v1\s+-\s+add_board$`, out)
	assert.Regexp(t, `(?m)^v2\s+[0-9a-f]{12}\s+move_node$`, out)

	opts.Format = "json"
	out, err = execute(t, NewHistoryCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Entries, 2)
	assert.Empty(t, resp.Data.Entries[0].Digest)
	assert.Equal(t, []rules.MutationKind{rules.MoveNode}, resp.Data.Entries[1].Kinds)
}

func TestReplayEmptyDatabase(t *testing.T) {
	opts := testOptions(t)

	out, err := execute(t, NewReplayCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No mutations recorded.")
}

func TestReplayMatches(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	script := writeFile(t, t.TempDir(), "more.yaml", `mutations:
  - {kind: add_variant, component: card, name: Wide}
  - {kind: set_node_property, node: "$card.0", key: text, value: Heading}
`)
	_, err := execute(t, NewApplyCommand(opts), script)
	require.NoError(t, err)

	out, err := execute(t, NewReplayCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ replayed 4 mutations: v4 matches stored snapshot")

	opts.Format = "json"
	out, err = execute(t, NewReplayCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Matches)
	assert.Equal(t, int64(4), resp.Data.StoredVersion)
	assert.Empty(t, resp.Data.StoredOutline)
}

func TestReplayDetectsDivergence(t *testing.T) {
	opts := testOptions(t)

	// A snapshot committed without its mutations cannot be rebuilt.
	eng := engine.New(testutil.Catalog(),
		engine.WithIDs(testutil.NewSequentialIDs("")),
		engine.WithThemes(testutil.Themes(), "light"),
	)
	ws, err := eng.Dispatch(ir.NewWorkspace(), engine.AddBoard{Component: "label"})
	require.NoError(t, err)

	st, err := store.Open(opts.Database)
	require.NoError(t, err)
	require.NoError(t, st.Commit(context.Background(), 0, ws, nil))
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ replayed 0 mutations: v0 does not match stored v1")
	assert.Contains(t, out, "--- stored\nboard label (primitive)\n")
}
