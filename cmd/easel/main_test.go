package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "easel version "+strings.TrimSpace(easel.Version)+"\n", out)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`
data: "<paragraph>foo</paragraph>"
steps:
  - select: [0, 3]
  - expect: "<paragraph>foo[]</paragraph>"
`), 0o644))

	out, err := execute(t, "run", "--config", filepath.Join(dir, "none.yaml"), scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "<paragraph>foo[]</paragraph>")

	_, err = execute(t, "run")
	assert.Error(t, err, "scenario argument is required")
}

func TestGraphCommand(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(`<image uploadId="u1"></image>[]<paragraph>foo</paragraph>`))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "class n_0 pending;")
	assert.Contains(t, out, "class n current;")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(good, []byte("<paragraph>foo</paragraph>\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`<image uploadId="u1"></image>`), 0o644))
	cfgPath := filepath.Join(dir, "none.yaml")

	out, err := execute(t, "validate", "--config", cfgPath, good)
	require.NoError(t, err)
	assert.Contains(t, out, "Document is valid!")

	_, err = execute(t, "validate", "--config", cfgPath, bad)
	assert.ErrorContains(t, err, "upload u1 is still pending")

	_, err = execute(t, "validate", "--config", cfgPath, "--allow-pending", bad)
	assert.NoError(t, err)
}
