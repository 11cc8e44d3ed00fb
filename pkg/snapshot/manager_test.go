package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	phpIni := filepath.Join(dir, "php.ini")
	other := filepath.Join(dir, "conf.d", "php.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(other), 0755))
	writeFile(t, phpIni, "[PHP]\nmemory_limit = 128M\n")
	writeFile(t, other, "extension=php_curl.dll\n")

	m := NewManager(filepath.Join(dir, "snapshots"))
	snap, err := m.Create("before apply", []string{phpIni, other, filepath.Join(dir, "missing.ini")})
	require.NoError(t, err)

	// Missing files are skipped and same-named files do not collide
	require.Len(t, snap.Metadata.Files, 2)
	assert.Equal(t, phpIni, snap.Metadata.Files[0].Source)
	assert.NotEqual(t, snap.Metadata.Files[0].Name, snap.Metadata.Files[1].Name)
	assert.Equal(t, "before apply", snap.Metadata.Message)

	writeFile(t, phpIni, "[PHP]\nmemory_limit = 512M\n")
	require.NoError(t, os.Remove(other))

	restored, err := m.Restore(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, restored.ID)
	assert.Equal(t, "[PHP]\nmemory_limit = 128M\n", readFile(t, phpIni))
	assert.Equal(t, "extension=php_curl.dll\n", readFile(t, other))
}

func TestRestoreRejectsTamperedSnapshot(t *testing.T) {
	dir := t.TempDir()
	phpIni := filepath.Join(dir, "php.ini")
	writeFile(t, phpIni, "[PHP]\n")

	m := NewManager(filepath.Join(dir, "snapshots"))
	snap, err := m.Create("", []string{phpIni})
	require.NoError(t, err)

	writeFile(t, filepath.Join(snap.Path, snap.Metadata.Files[0].Name), "[PHP]\nhacked = 1\n")
	writeFile(t, phpIni, "[PHP]\nkept = 1\n")

	_, err = m.Restore(snap.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.Equal(t, "[PHP]\nkept = 1\n", readFile(t, phpIni))
}

func TestRestoreMissingFile(t *testing.T) {
	dir := t.TempDir()
	phpIni := filepath.Join(dir, "php.ini")
	writeFile(t, phpIni, "[PHP]\n")

	m := NewManager(filepath.Join(dir, "snapshots"))
	snap, err := m.Create("", []string{phpIni})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(snap.Path, snap.Metadata.Files[0].Name)))

	_, err = m.Restore(snap.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestListPruneAndLatest(t *testing.T) {
	dir := t.TempDir()
	phpIni := filepath.Join(dir, "php.ini")
	writeFile(t, phpIni, "[PHP]\n")

	m := NewManager(filepath.Join(dir, "snapshots"))

	_, err := m.GetLatest()
	require.Error(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		snap, err := m.Create("", []string{phpIni})
		require.NoError(t, err)
		ids = append(ids, snap.ID)
		time.Sleep(5 * time.Millisecond)
	}

	// Directories without metadata are ignored
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "snapshots", "junk"), 0700))

	snapshots, err := m.List()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, ids[2], snapshots[0].ID)

	deleted, err := m.Prune(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[:2], deleted)

	latest, err := m.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)
}

func TestAutoPrune(t *testing.T) {
	dir := t.TempDir()
	phpIni := filepath.Join(dir, "php.ini")
	writeFile(t, phpIni, "[PHP]\n")

	m := NewManager(filepath.Join(dir, "snapshots"))
	m.SetKeep(2)
	for i := 0; i < 4; i++ {
		_, err := m.Create("", []string{phpIni})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	snapshots, err := m.List()
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestLoadRejectsTraversal(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.Load("../etc")
	assert.Error(t, err)
	assert.Error(t, m.Delete("../etc"))
}
