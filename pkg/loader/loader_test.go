package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0644))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.yaml"))
	touch(t, filepath.Join(dir, "a.yml"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.yaml"))
	touch(t, filepath.Join(dir, "group", "c.YAML"))
	touch(t, filepath.Join(dir, ".git", "d.yaml"))

	flat, err := Files(dir, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, flat)

	deep, err := Files(dir, nil, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "group", "c.YAML"),
	}, deep)

	txt, err := Files(dir, ExtFilter("txt"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, txt)
}

func TestFiles_MissingFolder(t *testing.T) {
	_, err := Files(filepath.Join(t.TempDir(), "nope"), nil, Options{})
	assert.Error(t, err)
}

func TestFiles_UnreadableSubfolderIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.yaml"))
	touch(t, filepath.Join(dir, "locked", "hidden.yaml"))
	touch(t, filepath.Join(dir, "open", "b.yaml"))

	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	files, err := Files(dir, nil, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "open", "b.yaml"),
	}, files)
}
