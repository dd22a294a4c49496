package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/resize"
)

func TestNewFactory_Defaults(t *testing.T) {
	factory, err := NewFactory(config.Default(), logging.NewNop())
	require.NoError(t, err)

	ed, err := factory(context.Background(), "s1")
	require.NoError(t, err)
	defer ed.Close(context.Background())

	assert.Equal(t, domain.NameImage, ed.MediaElement())
	assert.Equal(t, []string{"jpeg", "png", "gif", "bmp", "webp", "tiff"}, ed.AcceptedTypes())
}

func TestNewFactory_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - name: figure
    allow_attributes: [linkHref]
    types:
      linkHref: string
`), 0o644))

	cfg := config.Default()
	cfg.Media.Element = "figure"
	cfg.Media.SchemaFile = path
	cfg.Resize.Unit = string(resize.UnitPercent)

	factory, err := NewFactory(cfg, logging.NewNop())
	require.NoError(t, err)
	ed, err := factory(context.Background(), "s1")
	require.NoError(t, err)
	defer ed.Close(context.Background())

	assert.Equal(t, "figure", ed.MediaElement())
	assert.True(t, ed.Schema().IsRegistered("figure"))
	require.NoError(t, ed.SetData(`<figure linkHref="x"></figure>`))
}

func TestNewFactory_BadSchemaFile(t *testing.T) {
	cfg := config.Default()
	cfg.Media.SchemaFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewFactory(cfg, logging.NewNop())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - allow_in: [root]\n"), 0o644))
	cfg = config.Default()
	cfg.Media.SchemaFile = path
	_, err = NewFactory(cfg, logging.NewNop())
	assert.ErrorContains(t, err, "has no name")
}
