// Package runtimedir resolves the fixed directory for runner files and debug
// artifacts. It lives outside the source tree so file writes during a run do
// not trip dev-server auto-reload watchers.
package runtimedir

import (
	"os"
	"path/filepath"
)

const defaultDirName = ".quizagent"

// Resolve returns the runtime directory, creating it if needed. An empty
// configured path falls back to ~/.quizagent.
func Resolve(configured string) (string, error) {
	dir := configured
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, defaultDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Sub returns a subdirectory of the runtime directory, creating it if needed.
func Sub(base, name string) (string, error) {
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
