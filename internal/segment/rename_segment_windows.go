//go:build windows

package segment

import (
	"fmt"
	"os"
)

// renameSegment will rename the segment file by closing it, renaming it and then reopening it again. This is necessary
// on windows, as it does not allow renaming of open files.
func renameSegment(file *os.File, newFilePath string) (*os.File, error) {
	oldFilePath := file.Name()
	file, err := renameSegmentImpl(file, oldFilePath, newFilePath)
	if err != nil {
		return nil, fmt.Errorf("renaming the segment file from %q to %q: %w", oldFilePath, newFilePath, err)
	}
	return file, nil
}

func renameSegmentImpl(file *os.File, oldFilePath string, newFilePath string) (*os.File, error) {
	if err := file.Close(); err != nil {
		return nil, err
	}

	if err := os.Rename(oldFilePath, newFilePath); err != nil {
		return nil, err
	}

	// Segments write with WriteAt, so there is no file position to restore.
	return os.OpenFile(newFilePath, os.O_RDWR, 0) //nolint:gosec // We can not validate paths in a library.
}
