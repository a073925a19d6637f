package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http_port": 9000}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, Default().DataPrefix, cfg.DataPrefix)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http_port": -1}`), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.HTTPPort = 8090
	cfg.Debug = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPathAccessorsExpandHome(t *testing.T) {
	cfg := Default()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.False(t, strings.HasPrefix(cfg.RecordDirectory(), "~"))
	assert.True(t, strings.HasPrefix(cfg.RecordDirectory(), home))
	assert.True(t, strings.Contains(cfg.AssetsDirectory(), "assets"))
}

func TestAbsolutePrefixUntouched(t *testing.T) {
	cfg := Default()
	cfg.DataPrefix = "/var/lib/hexcoop/"
	assert.Equal(t, "/var/lib/hexcoop/assets/", cfg.AssetsDirectory())
}
