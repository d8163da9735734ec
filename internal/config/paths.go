package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the directory searched for a user-wide
// .clarity.yaml (the home directory). It's a variable to allow overriding
// in tests.
var GetGlobalConfigDir = func() (string, error) {
	return os.UserHomeDir()
}

// StateDir returns the directory for crash logs.
// Resolution order (first match wins):
// 1. Explicit config via "stateDir" (Viper/env/flag)
// 2. XDG_STATE_HOME/clarity (if XDG_STATE_HOME is set)
// 3. ./.clarity
func StateDir() string {
	if dir := viper.GetString("stateDir"); dir != "" && dir != DefaultStateDir {
		return dir
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "clarity")
	}
	return DefaultStateDir
}

// CrashLogDir returns the directory crash logs are written to.
func CrashLogDir(stateDir string) string {
	return filepath.Join(stateDir, "crash_logs")
}
