package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"apply", "show", "resolve", "check", "history", "replay", "test"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	dir := t.TempDir()

	_, err := execute(t, cmd, "show", "--format", "xml", "--db", filepath.Join(dir, "test.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommandReadsConfig(t *testing.T) {
	dir := t.TempDir()
	configDB := filepath.Join(dir, "from-config.db")
	cfg := writeFile(t, dir, "protoboard.toml", `database = "`+filepath.ToSlash(configDB)+`"`)

	_, err := execute(t, NewRootCommand(), "show", "--config", cfg)
	require.NoError(t, err)
	assert.FileExists(t, configDB)
}

func TestRootCommandFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	configDB := filepath.Join(dir, "from-config.db")
	flagDB := filepath.Join(dir, "from-flag.db")
	cfg := writeFile(t, dir, "protoboard.toml", `database = "`+filepath.ToSlash(configDB)+`"`)

	_, err := execute(t, NewRootCommand(), "show", "--config", cfg, "--db", flagDB)
	require.NoError(t, err)
	assert.FileExists(t, flagDB)
	assert.NoFileExists(t, configDB)
}

func TestRootCommandExplicitConfigMustExist(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, NewRootCommand(), "show",
		"--config", filepath.Join(dir, "missing.toml"),
		"--db", filepath.Join(dir, "test.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "e2e.db")
	script := writeFile(t, dir, "build.yaml", buildScript)
	common := []string{"--db", db, "--catalog", testCatalog, "--theme", "light", "--config", writeFile(t, dir, "empty.toml", "")}

	_, err := execute(t, NewRootCommand(), append([]string{"apply", script}, common...)...)
	require.NoError(t, err)

	out, err := execute(t, NewRootCommand(), append([]string{"show"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "# version 2\n"+builtOutline, out)

	_, err = execute(t, NewRootCommand(), append([]string{"check"}, common...)...)
	require.NoError(t, err)

	_, err = execute(t, NewRootCommand(), append([]string{"replay"}, common...)...)
	require.NoError(t, err)
}
