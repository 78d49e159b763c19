package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCLI runs a fresh root command with args and returns stdout.
func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "exptrack", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.Contains(t, cmd.Version, Version)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"version", "pivot", "query", "views", "export", "serve"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"config", "c", ""},
		{"output", "o", "table"},
		{"verbose", "v", "false"},
		{"log-level", "", "warn"},
		{"timeout", "", "30s"},
		{"server", "", ""},
		{"api-key", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestVersionCmd_Output(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	out, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "exptrack 1.2.3")
	assert.Contains(t, out, "commit: "+GitCommit)
}

func TestExecute_UnknownSubcommand(t *testing.T) {
	_, err := executeCLI(t, "teleport")
	assert.Error(t, err)
}

func TestExecute_Help(t *testing.T) {
	out, err := executeCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "pivot")
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"step", "base"}, [][]string{{"0", "1"}, {"10", "0.5", "extra"}, {"7"}})
	want := "" +
		"step  base\n" +
		"----  ----\n" +
		"0     1   \n" +
		"10    0.5 \n" +
		"7         \n"
	assert.Equal(t, want, got)
}

func TestFormatTable_NoHeaders(t *testing.T) {
	assert.Equal(t, "", FormatTable(nil, [][]string{{"x"}}))
}

func TestPrintResult_WithoutContextUsesJSON(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, PrintResult(cmd, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
	PrintError(cmd, assert.AnError)
	assert.Equal(t, "Error: "+assert.AnError.Error()+"\n", buf.String())
}

//Personal.AI order the ending
