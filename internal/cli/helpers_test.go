package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/engine"
)

// testCatalog is the CUE catalog shared with the harness scenarios:
// screen > card > (label, button > (label, icon)).
const testCatalog = "../harness/testdata/catalog"

// buildScript adds the whole screen tree, then swaps the button's children.
const buildScript = `mutations:
  - {kind: add_board, component: screen}
  - {kind: move_node, node: "$button.0", index: 1}
`

// builtOutline is the outline after buildScript.
const builtOutline = `board label (primitive)
  defaultVariant label "Default"
board icon (primitive)
  defaultVariant icon "Default"
board button (element)
  defaultVariant button "Default"
    instance icon
    instance label [text]
board card (part)
  defaultVariant card "Default"
    instance label [text]
    instance button
      instance icon
      instance label
board screen (screen)
  defaultVariant screen "Default"
    instance card
      instance label
      instance button
        instance icon
        instance label
`

func testOptions(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:     "text",
		Database:   filepath.Join(t.TempDir(), "test.db"),
		CatalogDir: testCatalog,
		Theme:      "light",
		MaxSites:   engine.DefaultMaxSites,
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// applyBuildScript runs buildScript against opts' database.
func applyBuildScript(t *testing.T, opts *RootOptions) {
	t.Helper()
	script := writeFile(t, t.TempDir(), "build.yaml", buildScript)
	_, err := execute(t, NewApplyCommand(opts), script)
	require.NoError(t, err)
}
