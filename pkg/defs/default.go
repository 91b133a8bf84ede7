package defs

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed default_defs.yaml
var defaultDefs []byte

// Default returns the built-in definition set.
func Default() *Database {
	db, err := Parse(defaultDefs)
	if err != nil {
		panic(fmt.Sprintf("built-in defs are invalid: %v", err))
	}
	return db
}

// GenerateDefault writes the built-in definitions to path unless the file
// already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create defs directory: %w", err)
	}
	if err := os.WriteFile(path, defaultDefs, 0o644); err != nil {
		return fmt.Errorf("failed to write defs file: %w", err)
	}
	return nil
}
