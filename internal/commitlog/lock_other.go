//go:build !unix

package commitlog

import (
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
)

// directoryLock only records the owner of the directory. There is no advisory locking on this platform.
type directoryLock struct{}

func acquireDirectoryLock(directory string, instanceID uuid.UUID) (*directoryLock, error) {
	lockFilePath := path.Join(directory, LockFileName)
	if err := os.WriteFile(lockFilePath, lockFileContent(instanceID), 0o644); err != nil { //nolint:gosec // The lock file is not secret.
		return nil, fmt.Errorf("writing the lock file %q: %w", lockFilePath, err)
	}
	return &directoryLock{}, nil
}

func (d *directoryLock) Release() error {
	return nil
}
