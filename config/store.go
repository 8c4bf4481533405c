package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/m-mizutani/goerr/v2"
)

// Store is the persistence port for the settings blob. The engine treats it
// as opaque load/save; mutations are only durable after an explicit Save.
type Store interface {
	Load() (*Settings, error)
	Save(*Settings) error
}

// FileStore persists settings as JSON on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSettingsPath returns ~/.quill/settings.json.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, ".quill", "settings.json"), nil
}

// envKeys are the credential overrides read from the environment. A set
// variable wins over the persisted value, so keys never need to live on
// disk.
type envKeys struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	ClaudeAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
}

// Load reads the settings file, falling back to defaults when it does not
// exist, and applies environment credential overrides.
func (f *FileStore) Load() (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(f.path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		return nil, goerr.Wrap(err, "failed to read settings", goerr.V("path", f.path))
	default:
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, goerr.Wrap(err, "failed to parse settings", goerr.V("path", f.path))
		}
	}

	var keys envKeys
	if err := env.Parse(&keys); err != nil {
		return nil, goerr.Wrap(err, "failed to parse environment overrides")
	}
	if keys.OpenAIAPIKey != "" {
		settings.OpenAIAPIKey = keys.OpenAIAPIKey
	}
	if keys.ClaudeAPIKey != "" {
		settings.ClaudeAPIKey = keys.ClaudeAPIKey
	}
	if keys.GeminiAPIKey != "" {
		settings.GeminiAPIKey = keys.GeminiAPIKey
	}

	return settings, nil
}

// Save writes the settings file, creating its directory if needed.
func (f *FileStore) Save(settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create settings directory")
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal settings")
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write settings", goerr.V("path", f.path))
	}
	return nil
}
