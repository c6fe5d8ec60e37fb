package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share/markwrite"), cfg.DataDir)
	assert.Equal(t, "fs", cfg.Adapter)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "markWriteState", cfg.Key)
	assert.False(t, cfg.AsyncSave)
	assert.Zero(t, cfg.SaveDebounce.Duration)
}

func TestLoad_YAML(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /tmp/notes
adapter: sqlite
format: yaml
async_save: true
save_debounce: 250ms
log_level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/notes", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Adapter)
	assert.Equal(t, "yaml", cfg.Format)
	assert.True(t, cfg.AsyncSave)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce.Duration)
	assert.Equal(t, "markWriteState", cfg.Key, "unset fields keep defaults")
}

func TestLoad_TOML(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/srv/markwrite"
versioning = true
save_debounce = "1s"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/markwrite", cfg.DataDir)
	assert.True(t, cfg.Versioning)
	assert.Equal(t, time.Second, cfg.SaveDebounce.Duration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: sqlite\nkey: fromfile\n"), 0644))

	t.Setenv("MARKWRITE_ADAPTER", "memory")
	t.Setenv("MARKWRITE_SAVE_DEBOUNCE", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Adapter)
	assert.Equal(t, "fromfile", cfg.Key)
	assert.Equal(t, 2*time.Second, cfg.SaveDebounce.Duration)
}

func TestLoad_Errors(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("adapter: [unclosed"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("adapter: postgres\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "unknown adapter")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Key = " "
	assert.Error(t, cfg.Validate())
}
