package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Equal(t, "@polymodo", cfg.Socket)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.Development)
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polymodo.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"socket": "/run/polymodo.sock", "development": true}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/run/polymodo.sock", cfg.Socket)
	require.True(t, cfg.Development)
	// Fields absent from the file keep their defaults.
	require.Equal(t, "info", cfg.LogLevel)
	require.NotEmpty(t, cfg.HistoryDB)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polymodo.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
