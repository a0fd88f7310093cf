package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
	"github.com/roach88/protoboard/internal/store"
)

func TestApplyCommitsSnapshot(t *testing.T) {
	opts := testOptions(t)
	script := writeFile(t, t.TempDir(), "build.yaml", buildScript)

	out, err := execute(t, NewApplyCommand(opts), script)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 mutations (2 changed): v0 -> v2")
	assert.Contains(t, out, "Committed ")

	st, err := store.Open(opts.Database)
	require.NoError(t, err)
	defer st.Close()

	snap, err := st.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, builtOutline, ir.Outline(snap.Workspace))

	records, err := st.Mutations(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, rules.AddBoard, records[0].Envelope.Kind)
	assert.Equal(t, "$button.0", records[1].Envelope.Node, "logged references stay portable")
}

func TestApplyContinuesFromLatest(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	script := writeFile(t, t.TempDir(), "more.yaml", `mutations:
  - {kind: add_variant, component: button, name: Primary}
`)
	out, err := execute(t, NewApplyCommand(opts), script)
	require.NoError(t, err)
	assert.Contains(t, out, "v2 -> v3")
}

func TestApplyDryRun(t *testing.T) {
	opts := testOptions(t)
	script := writeFile(t, t.TempDir(), "build.yaml", buildScript)

	out, err := execute(t, NewApplyCommand(opts), script, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: nothing committed")
	assert.Contains(t, out, builtOutline)

	st, err := store.Open(opts.Database)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyFailedMutationCommitsNothing(t *testing.T) {
	opts := testOptions(t)
	script := writeFile(t, t.TempDir(), "bad.yaml", `mutations:
  - {kind: add_board, component: button}
  - {kind: move_node, node: "$card.0", index: 0}
`)

	_, err := execute(t, NewApplyCommand(opts), script)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "mutation 1 (move_node) failed")

	st, err := store.Open(opts.Database)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyJSONOutput(t *testing.T) {
	opts := testOptions(t)
	opts.Format = "json"
	script := writeFile(t, t.TempDir(), "build.yaml", buildScript)

	out, err := execute(t, NewApplyCommand(opts), script)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(2), resp.Data.Version)
	assert.Equal(t, 2, resp.Data.Changed)
	assert.True(t, resp.Data.Committed)
	assert.Len(t, resp.Data.Digest, 64)
}

func TestApplyInvalidScript(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"unknown_field", "mutation:\n  - {kind: add_board, component: button}\n"},
		{"empty", "mutations: []\n"},
		{"not_yaml", "mutations: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			script := writeFile(t, dir, tt.name+".yaml", tt.body)
			_, err := execute(t, NewApplyCommand(opts), script)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestApplyMissingCatalog(t *testing.T) {
	opts := testOptions(t)
	opts.CatalogDir = t.TempDir() + "/nope"
	opts.Format = "json"
	script := writeFile(t, t.TempDir(), "build.yaml", buildScript)

	out, err := execute(t, NewApplyCommand(opts), script)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(out)).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeCatalog, resp.Error.Code)
}

func TestLoadScript(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.yaml", `mutations:
  - kind: set_node_property
    node: "$label"
    key: text
    value: Hello
  - {kind: set_board_theme, component: label, theme: dark}
`)
	script, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, script.Mutations, 2)
	assert.Equal(t, rules.SetNodeProperty, script.Mutations[0].Kind)
	assert.Equal(t, "Hello", script.Mutations[0].Value)
	assert.Equal(t, "dark", script.Mutations[1].Theme)
}
