package config

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "image", cfg.Media.Element)
	assert.Equal(t, 50.0, cfg.Resize.MinWidth)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
log_level: debug
media:
  accepted_types: [png]
resize:
  max_width: 800
  unit: "%"
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"png"}, cfg.Media.AcceptedTypes)
	assert.Equal(t, 800.0, cfg.Resize.MaxWidth)
	assert.Equal(t, "%", cfg.Resize.Unit)
	assert.Equal(t, "image", cfg.Media.Element, "untouched keys keep defaults")
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("resize:\n  min: 3\n"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Media.Element = ""
	cfg.Resize.MinWidth = 100
	cfg.Resize.MaxWidth = 10
	cfg.Resize.Unit = "em"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "resize.unit")
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTP.Addr)
	})

	t.Run("file and environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "easel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9000\"\nredis:\n  addr: file:6379\n"), 0o644))
		t.Setenv(EnvRedisAddr, "env:6379")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.HTTP.Addr)
		assert.Equal(t, "env:6379", cfg.Redis.Addr)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "easel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("upload:\n  max_bytes: -1\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "upload.max_bytes")
	})
}

func TestLedgerSettings(t *testing.T) {
	cfg := Default()
	key, err := cfg.LedgerKey()
	require.NoError(t, err)
	assert.Nil(t, key)

	cfg.Ledger.Key = base64.StdEncoding.EncodeToString(make([]byte, 32))
	key, err = cfg.LedgerKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	cfg.Ledger.Key = base64.StdEncoding.EncodeToString([]byte("short"))
	cfg.Ledger.RedactPatterns = []string{`\d+`, "("}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestLoad_LedgerKeyFromEnvironment(t *testing.T) {
	t.Setenv(EnvLedgerKey, base64.StdEncoding.EncodeToString(make([]byte, 32)))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Ledger.Key)
}
