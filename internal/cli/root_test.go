package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dumpsplit", cmd.Use)
	assert.Contains(t, cmd.Long, "one streaming pass")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"split", "classify", "runs", "show", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSplitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	splitCmd, _, err := cmd.Find([]string{"split"})
	require.NoError(t, err)

	for _, name := range []string{"root", "compress", "level", "encoding", "default-database", "manifest", "log-format", "strict", "max-diagnostics"} {
		assert.NotNil(t, splitCmd.Flags().Lookup(name), "split should have --%s", name)
	}
	assert.Equal(t, "none", splitCmd.Flags().Lookup("compress").DefValue)
	assert.Equal(t, "default", splitCmd.Flags().Lookup("default-database").DefValue)
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "classify"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

// Persistent flags on the root reach the split configuration.
func TestRootSplitEndToEnd(t *testing.T) {
	root := t.TempDir()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(shopDump()))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"split", "--verbose", "--root", root, "--log-format", "json"})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(root, "shop", "users.sql"))
	assert.Contains(t, errOut.String(), `"msg":"[CREATE TABLE]"`, "verbose enables engine debug logs")
	assert.Contains(t, out.String(), "Artifacts: 1 databases, 2 tables")
}
