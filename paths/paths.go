package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
)

// GPT4AllModelDir returns the directory where the GPT4All desktop app keeps
// its downloaded model files on this platform.
func GPT4AllModelDir() (string, error) {
	return gpt4allModelDir(runtime.GOOS)
}

func gpt4allModelDir(goos string) (string, error) {
	switch goos {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", goerr.Wrap(err, "home directory unavailable")
			}
			appData = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(appData, "nomic.ai", "GPT4All"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", goerr.Wrap(err, "home directory unavailable")
		}
		return filepath.Join(home, "Library", "Application Support", "nomic.ai", "GPT4All"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", goerr.Wrap(err, "home directory unavailable")
		}
		return filepath.Join(home, "gpt4all"), nil
	}
}

// ListLocalModels returns the model files (*.gguf) present in the GPT4All
// model directory. A missing directory is not an error; it just means no
// local models are installed.
func ListLocalModels() ([]string, error) {
	dir, err := GPT4AllModelDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "reading model directory", goerr.V("dir", dir))
	}

	var models []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".gguf" {
			models = append(models, entry.Name())
		}
	}
	return models, nil
}
