package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/llm"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
}

func TestFileStoreFirstRun(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	store := testStore(t)
	settings, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", settings.DefaultModel)
	assert.False(t, settings.HasAnyKey())
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	store := testStore(t)
	settings := DefaultSettings()
	settings.OpenAIAPIKey = "sk-stored"
	require.NoError(t, settings.SetDefaultModel(llm.ClaudeSonnetModel))
	settings.ModalSettings.HistoryIndex = 4

	require.NoError(t, store.Save(settings))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", loaded.OpenAIAPIKey)
	assert.Equal(t, llm.ClaudeSonnetModel, loaded.DefaultModel)
	assert.Equal(t, 4, loaded.ModalSettings.HistoryIndex)
}

func TestFileStoreEnvOverridesWin(t *testing.T) {
	store := testStore(t)
	settings := DefaultSettings()
	settings.ClaudeAPIKey = "from-disk"
	require.NoError(t, store.Save(settings))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("GEMINI_API_KEY", "")

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.ClaudeAPIKey)
}

func TestFileStoreCorruptFile(t *testing.T) {
	store := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0o755))
	require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0o644))

	_, err := store.Load()
	assert.Error(t, err)
}
