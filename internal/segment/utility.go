package segment

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// FileExtension is the extension of every segment file.
const FileExtension = ".dlog"

// temporarySuffix is appended to the file name of a segment while it is being created.
const temporarySuffix = ".new"

// segmentFileNamePattern is the file pattern all segment files need to follow.
var segmentFileNamePattern = regexp.MustCompile(`^\d{20}\.dlog$`)

// temporaryFileNamePattern matches segment files which were left behind by an interrupted Create.
var temporaryFileNamePattern = regexp.MustCompile(`^\d{20}\.dlog\.new$`)

// GetSegments returns a list of segment identifiers found in the directory. The identifiers are sorted in ascending
// order.
func GetSegments(directory string) ([]uint64, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", directory, err)
	}

	result := make([]uint64, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			// We are not interested in directories.
			continue
		}
		if !segmentFileNamePattern.MatchString(dirEntry.Name()) {
			// We are not interested in files not matching our naming pattern.
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(dirEntry.Name(), FileExtension), 10, 64)
		if err != nil {
			// Twenty digits can exceed the range of uint64.
			return nil, fmt.Errorf("parsing the segment identifier from the file name %q: %w", dirEntry.Name(), err)
		}
		result = append(result, id)
	}

	// The file names returned by os.ReadDir() should already be in the correct order. For additional safety we sort
	// the identifiers again.
	slices.Sort(result)
	return result, nil
}

// RemoveTemporaryFiles deletes the files of segments whose creation never completed. Returns the names of the files
// removed.
func RemoveTemporaryFiles(directory string) ([]string, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", directory, err)
	}

	var removed []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !temporaryFileNamePattern.MatchString(dirEntry.Name()) {
			continue
		}
		if err := os.Remove(path.Join(directory, dirEntry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing the temporary segment file %q: %w", dirEntry.Name(), err)
		}
		removed = append(removed, dirEntry.Name())
	}
	if len(removed) > 0 {
		if err := syncDirectory(directory); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// SegmentFileName returns the file name of the segment with the given identifier.
func SegmentFileName(id uint64) string {
	return fmt.Sprintf("%020d%s", id, FileExtension)
}

// SegmentFilePath returns the path of the segment with the given identifier inside the directory.
func SegmentFilePath(directory string, id uint64) string {
	return path.Join(directory, SegmentFileName(id))
}
