//go:build unix

package commitlog

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// directoryLock is an advisory exclusive lock on the lock file of a directory.
type directoryLock struct {
	file *os.File
}

func acquireDirectoryLock(directory string, instanceID uuid.UUID) (*directoryLock, error) {
	lockFilePath := path.Join(directory, LockFileName)
	file, err := os.OpenFile(lockFilePath, os.O_RDWR|os.O_CREATE, 0o644) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("opening the lock file %q: %w", lockFilePath, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil { //nolint:gosec // file descriptors fit into int
		closeErr := file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.Join(fmt.Errorf("%w: %q", ErrLocked, directory), closeErr)
		}
		return nil, errors.Join(fmt.Errorf("locking the lock file %q: %w", lockFilePath, err), closeErr)
	}

	if err := writeLockFile(file, instanceID); err != nil {
		return nil, errors.Join(
			fmt.Errorf("writing the lock file %q: %w", lockFilePath, err),
			unix.Flock(int(file.Fd()), unix.LOCK_UN), //nolint:gosec // file descriptors fit into int
			file.Close(),
		)
	}
	return &directoryLock{file: file}, nil
}

func writeLockFile(file *os.File, instanceID uuid.UUID) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	if _, err := file.WriteAt(lockFileContent(instanceID), 0); err != nil {
		return err
	}
	return file.Sync()
}

// Release unlocks and closes the lock file. The file itself stays in the directory.
func (d *directoryLock) Release() error {
	if d == nil || d.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(d.file.Fd()), unix.LOCK_UN) //nolint:gosec // file descriptors fit into int
	closeErr := d.file.Close()
	d.file = nil
	return errors.Join(unlockErr, closeErr)
}
