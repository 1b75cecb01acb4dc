package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPairingCode(t *testing.T) {
	assert.Equal(t, "ABCD-EFGH", FormatPairingCode("ABCDEFGH"))
	assert.Equal(t, "ABCD-EFGH", FormatPairingCode("ABCD-EFGH"))
	assert.Equal(t, "ABC", FormatPairingCode("ABC"))
	assert.Equal(t, "ABCD-EF", FormatPairingCode("ABCDEF"))
}

func TestJIDHelpers(t *testing.T) {
	assert.Equal(t, "628123@s.whatsapp.net", NormalizeJID("628123:12@s.whatsapp.net"))
	assert.Equal(t, "628123", UserFromJID("628123:12@s.whatsapp.net"))
	assert.True(t, IsGroupJID("1203630@g.us"))
	assert.False(t, IsGroupJID("628123@s.whatsapp.net"))
	assert.Equal(t, "628123", OnlyDigits("+62 81-23"))
}

func TestWriteAndReadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.json")

	require.NoError(t, WriteJSONFile(path, map[string]int{"a": 1}))

	var out map[string]int
	found, err := ReadJSONFile(path, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, out["a"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	found, err = ReadJSONFile(filepath.Join(dir, "missing.json"), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionInstanceID_Stable(t *testing.T) {
	dir := t.TempDir()
	first := SessionInstanceID("", dir)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, SessionInstanceID("", dir))
	assert.Equal(t, "fixed", SessionInstanceID("fixed", dir))
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db", "database.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"users":{"a":1,"b":2}}`)))
	require.NoError(t, WriteFileAtomic(path, []byte(`{}`)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got), "a shorter rewrite must not keep the old tail")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
