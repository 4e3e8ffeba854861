// Package config resolves smsledger settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/smsledger/inbox.db"

// DatabasePath returns the expanded inbox database path. ":memory:" is
// passed through untouched.
func DatabasePath() string {
	dbPath := strings.TrimSpace(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = DefaultDatabasePath
	}
	return ExpandPath(dbPath)
}

// ExpandPath expands a leading ~ and $VAR references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
