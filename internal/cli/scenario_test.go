package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/adapters/memory"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

func writeScenario(t *testing.T, src string, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(pngHeader), 0o644))
	}
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const uploadScenario = `
data: "<paragraph>fo[]o</paragraph>"
steps:
  - upload: [cat.png, dog.png]
  - complete:
      transfer: u1
      response:
        default: https://cdn.test/cat.png
        "800": https://cdn.test/cat-800.png
  - fail: {transfer: u2, error: quota exceeded}
  - resize: {path: [0], to: {x: 50}}
  - expect: '<image src="https://cdn.test/cat.png" srcset="https://cdn.test/cat-800.png 800w" width="500px"></image>[]<paragraph>foo</paragraph>'
`

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(uploadScenario))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 5)
	ops := make([]string, len(sc.Steps))
	for i, s := range sc.Steps {
		ops[i] = s.Op()
	}
	assert.Equal(t, []string{"upload", "complete", "fail", "resize", "expect"}, ops)
	assert.Equal(t, 50.0, sc.Steps[3].Resize.To.X)
}

func TestLoadScenario_Invalid(t *testing.T) {
	_, err := LoadScenario(strings.NewReader("steps:\n  - {abort: u1, expect: x}\n"))
	assert.ErrorContains(t, err, "exactly one operation")

	_, err = LoadScenario(strings.NewReader("steps:\n  - {}\n"))
	assert.Error(t, err)

	_, err = LoadScenario(strings.NewReader("steps:\n  - teleport: true\n"))
	assert.Error(t, err)
}

func TestScenario_Play(t *testing.T) {
	path := writeScenario(t, uploadScenario, "cat.png", "dog.png")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc, err := LoadScenario(f)
	require.NoError(t, err)
	sc.Dir = filepath.Dir(path)

	reg := memory.NewRegistry(memory.WithIDGenerator(sequentialIDs("u")))
	ed, err := easel.New(easel.WithUploadRegistry(reg))
	require.NoError(t, err)
	defer ed.Close(context.Background())

	var results []StepResult
	require.NoError(t, sc.Play(context.Background(), ed, reg, func(r StepResult) { results = append(results, r) }))
	require.Len(t, results, 5)
	assert.Equal(t, "2 inserted, transfers u1,u2", results[0].Detail)
	assert.Equal(t, "500px", results[3].Detail)
}

func TestScenario_ExpectationFails(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader("data: <paragraph>a</paragraph>\nsteps:\n  - expect: <paragraph>b</paragraph>\n"))
	require.NoError(t, err)
	reg := memory.NewRegistry()
	ed, err := easel.New(easel.WithUploadRegistry(reg))
	require.NoError(t, err)
	defer ed.Close(context.Background())

	err = sc.Play(context.Background(), ed, reg, nil)
	assert.ErrorIs(t, err, ErrExpectation)
	assert.ErrorContains(t, err, "step #1 (expect)")
}

func TestExecute(t *testing.T) {
	path := writeScenario(t, uploadScenario, "cat.png", "dog.png")
	var out bytes.Buffer
	require.NoError(t, Execute(RunOptions{ScenarioPath: path, Quiet: true, Out: &out}))
	assert.Empty(t, out.String(), "quiet runs print failures only")

	out.Reset()
	require.NoError(t, Execute(RunOptions{ScenarioPath: path, Out: &out}))
	assert.Contains(t, out.String(), "complete u1")
	assert.Contains(t, out.String(), "Scenario finished after 5 steps.")
}

func TestExecute_MissingFile(t *testing.T) {
	path := writeScenario(t, "steps:\n  - upload: [missing.png]\n")
	err := Execute(RunOptions{ScenarioPath: path, Quiet: true, Out: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "step #1 (upload)")
}
