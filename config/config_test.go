package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textdeco.toml")
	body := `
in = "docs/card.textdeco"
format = "svg"
log_level = "debug"
watch = true

[fonts]
serif = "fonts/serif.ttf"
abs = "/opt/fonts/abs.ttf"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs/card.textdeco", cfg.Input)
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, "svg", cfg.Format)
	assert.True(t, cfg.Watch)
	assert.Equal(t, filepath.Join(dir, "fonts/serif.ttf"), cfg.Fonts["serif"])
	assert.Equal(t, "/opt/fonts/abs.ttf", cfg.Fonts["abs"])

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("in = \n"), 0o644))
	_, err := Load(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.toml:")

	level := filepath.Join(dir, "level.toml")
	require.NoError(t, os.WriteFile(level, []byte(`log_level = "loud"`), 0o644))
	_, err = Load(level)
	assert.ErrorContains(t, err, "loud")
}
