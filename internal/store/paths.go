package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFile is the name of the SQLite run journal.
const DBFile = "runs.db"

// GlobalBionetPath returns the path to the per-user .bionet directory.
// On Unix: ~/.bionet
// On Windows: %USERPROFILE%\.bionet
func GlobalBionetPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".bionet"), nil
}

// DefaultDBPath returns ~/.bionet/runs.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalBionetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFile), nil
}

// Open returns the store for the given backend. "memory" ignores path;
// "sqlite" or "" opens path, defaulting to DefaultDBPath.
func Open(backend, path string) (RunStore, error) {
	switch backend {
	case "memory":
		return NewInMemoryRunStore(), nil
	case "", "sqlite":
		if path == "" {
			var err error
			if path, err = DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		return NewSQLiteRunStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
