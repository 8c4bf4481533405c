package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVault(t *testing.T, files map[string]string) *DirVault {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	v, err := NewDirVault(dir)
	require.NoError(t, err)
	return v
}

func TestDirVaultListDocuments(t *testing.T) {
	v := testVault(t, map[string]string{
		"b.md":            "second",
		"a.md":            "first",
		"sub/c.md":        "nested",
		"sub/ignored.txt": "not markdown",
		".hidden/d.md":    "skipped",
	})

	refs, err := v.ListDocuments()
	require.NoError(t, err)

	paths := make([]string, len(refs))
	for i, ref := range refs {
		paths[i] = ref.Path
	}
	assert.Equal(t, []string{"a.md", "b.md", "sub/c.md"}, paths)
}

func TestDirVaultReadDocument(t *testing.T) {
	v := testVault(t, map[string]string{"sub/note.md": "hello"})

	content, err := v.ReadDocument("sub/note.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	_, err = v.ReadDocument("missing.md")
	assert.Error(t, err)
}

func TestDirVaultActiveAndSelection(t *testing.T) {
	v := testVault(t, map[string]string{"note.md": "x"})

	assert.Nil(t, v.ActiveDocument())
	assert.Empty(t, v.Selection())

	v.SetActive("note.md")
	require.NotNil(t, v.ActiveDocument())
	assert.Equal(t, "note.md", v.ActiveDocument().Name)

	v.SetSelection("picked text")
	assert.Equal(t, "picked text", v.Selection())
}

func TestNewDirVaultErrors(t *testing.T) {
	_, err := NewDirVault(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewDirVault(file)
	assert.Error(t, err)
}
