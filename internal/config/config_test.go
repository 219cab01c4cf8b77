package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.Editor.LoadTimeout)
	assert.Equal(t, 2, cfg.Audit.Workers)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7000"
storage:
  driver: yaml
  path: /tmp/rules.yaml
editor:
  load_timeout: 2s
log:
  level: debug
`), 0o644))
	t.Setenv("PRIVACY_RULES_STORAGE__SIGNING_KEY", "s3cret")
	t.Setenv("PRIVACY_RULES_HTTP__ADDR", ":7100")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.HTTP.Addr)
	assert.Equal(t, DriverYAML, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/rules.yaml", cfg.Storage.Path)
	assert.Equal(t, "s3cret", cfg.Storage.SigningKey)
	assert.Equal(t, 2*time.Second, cfg.Editor.LoadTimeout)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Storage: StorageConfig{Driver: DriverMemory},
			Editor:  EditorConfig{LoadTimeout: time.Second},
			Log:     LogConfig{Level: "info"},
		}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Storage.Driver = DriverSQLite
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.Driver = "postgres"
	assert.Error(t, c.Validate())

	c = base()
	c.Editor.LoadTimeout = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Log.Level = "loud"
	assert.Error(t, c.Validate())
}
