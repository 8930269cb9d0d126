// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDatabasePath is where the ledger database lives unless overridden.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dualledger.db"
	}
	return filepath.Join(home, ".local", "share", "dualledger", "ledger.db")
}

// DefaultReceiptsPath is where uploaded receipts are stored unless overridden.
func DefaultReceiptsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "receipts"
	}
	return filepath.Join(home, ".local", "share", "dualledger", "receipts")
}
