//go:build windows
// +build windows

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFile is temp file, sync, and rename.  The temp file is removed on every failure path.
func writeFile(filename string, content []byte) (err error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest file: %w", err)
	}
	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp manifest file: %w", err)
	}
	closed = true
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp manifest file: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
