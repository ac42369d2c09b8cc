package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["parcels"], "expected subcommand %q not found", "parcels")
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "parcel-geo", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestParcelsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range parcelsCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"query", "get", "resolve", "discover", "collect", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "parcels should have subcommand %q", name)
	}
}

func TestParcelsQueryCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"county", "bbox", "lon", "lat", "radius", "pretty"} {
		assert.NotNil(t, parcelsQueryCmd.Flags().Lookup(flagName), "parcels query should have --%s flag", flagName)
	}
}

func TestParcelsCollectCommand_InputDefault(t *testing.T) {
	flag := parcelsCollectCmd.Flags().Lookup("input")
	require.NotNil(t, flag)
	assert.Equal(t, "-", flag.DefValue)
}

// ---------------------------------------------------------------------------
// Execution helpers
// ---------------------------------------------------------------------------

// chdirTemp moves into an empty directory so no config.yaml or .env is read.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

// resetFlags restores every flag under c to its default so commands can be
// executed more than once in the same process.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PARCELGEO_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}
