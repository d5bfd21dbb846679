package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndCount(t *testing.T) {
	h := openTestHistory(t)

	counts, err := h.Counts()
	require.NoError(t, err)
	require.Empty(t, counts)

	require.NoError(t, h.RecordLaunch("firefox"))
	require.NoError(t, h.RecordLaunch("firefox"))
	require.NoError(t, h.RecordLaunch("vlc"))

	counts, err = h.Counts()
	require.NoError(t, err)
	require.Equal(t, map[string]int{"firefox": 2, "vlc": 1}, counts)
}

func TestCountsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, h.RecordLaunch("firefox"))
	require.NoError(t, h.Close())

	h, err = Open(path)
	require.NoError(t, err)
	defer h.Close()

	counts, err := h.Counts()
	require.NoError(t, err)
	require.Equal(t, map[string]int{"firefox": 1}, counts)
}
