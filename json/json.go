// Package json persists voicechat state as JSON files: the credential
// key-value file and saved conversation transcripts. Files are replaced
// atomically and created with owner-only permissions.
package json

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFile atomically replaces path with data, creating parent directories
// as needed.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
