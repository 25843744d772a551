//go:build !windows
// +build !windows

package manifest

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// writeFile does temp file, fsync, and rename, so a crash never leaves a half-written manifest.
func writeFile(filename string, content []byte) (err error) {
	pending, err := renameio.NewPendingFile(filename,
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending manifest file: %w", err)
	}
	defer func() {
		if _err := pending.Cleanup(); _err != nil && err == nil {
			err = _err
		}
	}()
	if _, err := pending.Write(content); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace manifest: %w", err)
	}
	return nil
}
