// Package validation checks user-supplied inputs before any command does
// real work, so bad paths and formats fail fast with a clear message instead
// of surfacing as parse errors deep in the engine.
package validation

import (
	"fmt"
	"os"
)

// IsValidInputFile checks that path names an existing regular file. Ledger
// CSVs and scenario documents must pass before they are handed to a parser.
func IsValidInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking input file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory, not a file: %s", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input path is not a regular file: %s", path)
	}
	return nil
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "json", "csv":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'json', 'csv'", format)
	}
}

// IsValidFilePermissions rejects modes that grant any access to "others".
// Ledger files and .env files can carry account data, so 0600 or 0640 are
// the expected modes.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0o007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0644", mode.String())
	}
	return nil
}
