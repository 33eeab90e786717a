// Package storage provides persistent storage for preferences, statistics
// and game records.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "chessplay"

	// HomeEnv overrides the data directory on every platform.
	HomeEnv = "CHESSPLAY_HOME"
)

// env is the slice of the process environment that path resolution reads.
type env struct {
	goos   string
	getenv func(string) string
	home   func() (string, error)
}

func processEnv() env {
	return env{goos: runtime.GOOS, getenv: os.Getenv, home: os.UserHomeDir}
}

// dataDir resolves the application data directory without touching the
// filesystem:
//   - $CHESSPLAY_HOME when set
//   - macOS: ~/Library/Application Support/chessplay
//   - Windows: %APPDATA%\chessplay, falling back to ~\AppData\Roaming
//   - others: $XDG_DATA_HOME/chessplay, falling back to ~/.local/share
func (e env) dataDir() (string, error) {
	if dir := e.getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	var base []string
	switch e.goos {
	case "darwin":
		base = []string{"", "Library", "Application Support"}
	case "windows":
		if appData := e.getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		base = []string{"", "AppData", "Roaming"}
	default:
		if xdg := e.getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		base = []string{"", ".local", "share"}
	}

	home, err := e.home()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	base[0] = home
	return filepath.Join(append(base, appName)...), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// DataDir returns the application data directory, creating it if needed.
func DataDir() (string, error) {
	dir, err := processEnv().dataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(dir)
}

// DatabaseDir returns the BadgerDB directory inside DataDir.
func DatabaseDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dir, "db"))
}
