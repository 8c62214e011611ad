//go:build !windows

package segment

import (
	"errors"
	"fmt"
	"os"
)

// syncDirectory flushes the directory entry changes (create, rename, remove) to stable storage.
func syncDirectory(directory string) error {
	dir, err := os.Open(directory) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return fmt.Errorf("opening directory %q: %w", directory, err)
	}
	syncErr := dir.Sync()
	closeErr := dir.Close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("flushing directory %q: %w", directory, err)
	}
	return nil
}
