//go:build !windows

package segment

import (
	"errors"
	"fmt"
	"os"
)

// renameSegment will rename the segment file while being open. This works on linux but not on windows.
func renameSegment(file *os.File, newFilePath string) (*os.File, error) {
	oldFilePath := file.Name()
	if err := os.Rename(oldFilePath, newFilePath); err != nil {
		return nil, errors.Join(
			fmt.Errorf("renaming the segment file from %q to %q: %w", oldFilePath, newFilePath, err),
			file.Close(),
		)
	}
	return file, nil
}
