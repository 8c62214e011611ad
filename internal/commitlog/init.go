package commitlog

import (
	"errors"
	"fmt"
	"os"

	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

// IsInitialized reports if there is already a commit log available in the given directory. A directory which does not
// exist is not initialized.
func IsInitialized(directory string) (bool, error) {
	if _, err := os.Stat(directory); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	segments, err := segment.GetSegments(directory)
	if err != nil {
		return false, logerr.Io("is initialized", err)
	}
	return len(segments) > 0, nil
}

// Init initializes a new commit log in the given directory by creating the first empty segment. Fails if the directory
// already holds a commit log.
func Init(directory string) error {
	initialized, err := IsInitialized(directory)
	if err != nil {
		return err
	}
	if initialized {
		return fmt.Errorf("the directory %q already holds a commit log", directory)
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return logerr.Io("init", fmt.Errorf("creating directory %q: %w", directory, err))
	}
	first, err := segment.Create(directory, 0)
	if err != nil {
		return err
	}
	return first.Close()
}

// InitIfRequired initializes the commit log if it is not yet initialized.
func InitIfRequired(directory string) error {
	initialized, err := IsInitialized(directory)
	if err != nil {
		return err
	}

	if initialized {
		return nil
	}

	if err := Init(directory); err != nil {
		return err
	}
	return nil
}
