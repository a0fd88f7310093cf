package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/store"
)

func TestShowEmptyDatabase(t *testing.T) {
	opts := testOptions(t)

	out, err := execute(t, NewShowCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "Workspace is empty.")
}

func TestShowLatest(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	out, err := execute(t, NewShowCommand(opts))
	require.NoError(t, err)
	assert.Equal(t, "# version 2\n"+builtOutline, out)
}

func TestShowVersion(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	// Only the last version of a script is snapshotted.
	_, err := execute(t, NewShowCommand(opts), "--version", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, NewShowCommand(opts), "--version", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "# version 2")
}

func TestShowJSON(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)
	opts.Format = "json"

	out, err := execute(t, NewShowCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Version   int64           `json:"version"`
			Digest    string          `json:"digest"`
			Outline   string          `json:"outline"`
			Workspace json.RawMessage `json:"workspace"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(2), resp.Data.Version)
	assert.Equal(t, builtOutline, resp.Data.Outline)

	ws, err := ir.DecodeWorkspace(resp.Data.Workspace)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.Digest, ir.MustDigest(ws))
}

func TestResolveNode(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	// The screen's card title inherits text from the card's own label.
	out, err := execute(t, NewResolveCommand(opts), "$screen.0.0")
	require.NoError(t, err)
	assert.Equal(t, "color = THEME_CATEGORICAL \"@colors.text\"\ntext = EXACT \"Title\"\n", out)
}

func TestResolveCompound(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	out, err := execute(t, NewResolveCommand(opts), "$card.1")
	require.NoError(t, err)
	assert.Contains(t, out, "border.color = THEME_CATEGORICAL \"@colors.primary\"\n")
	assert.Contains(t, out, "border.width = EXACT 1\n")
	assert.Contains(t, out, "radius = EXACT 4\n")
}

func TestResolveJSON(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)
	opts.Format = "json"

	out, err := execute(t, NewResolveCommand(opts), "$button.1")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Node       string                     `json:"node"`
			Ref        string                     `json:"ref"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Data.Node)
	assert.Equal(t, "$button.1", resp.Data.Ref)
	assert.JSONEq(t, `{"type":"EXACT","value":"Button"}`, string(resp.Data.Properties["text"]))
}

func TestResolveBoard(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	_, err := execute(t, NewResolveCommand(opts), "button", "--board")
	require.NoError(t, err)

	_, err = execute(t, NewResolveCommand(opts), "nope", "--board")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResolveUnknownNode(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	_, err := execute(t, NewResolveCommand(opts), "$card.9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown node $card.9")
}

func TestCheckClean(t *testing.T) {
	opts := testOptions(t)
	applyBuildScript(t, opts)

	out, err := execute(t, NewCheckCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ version 2: no findings")
}

func TestCheckFindings(t *testing.T) {
	opts := testOptions(t)

	st, err := store.Open(opts.Database)
	require.NoError(t, err)
	ws := ir.NewWorkspace()
	ws.Version = 1
	ws.Boards["ghost"] = &ir.Board{ID: "ghost", Variants: []ir.NodeID{}}
	require.NoError(t, st.Commit(context.Background(), 0, ws, nil))
	require.NoError(t, st.Close())

	out, err := execute(t, NewCheckCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ INVALID_MUTATION board=ghost: board has 0 default variants")

	opts.Format = "json"
	out, err = execute(t, NewCheckCommand(opts))
	require.Error(t, err)

	var resp struct {
		Data CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Findings, 1)
	assert.Equal(t, engine.ErrCodeInvalidMutation, resp.Data.Findings[0].Code)
}
