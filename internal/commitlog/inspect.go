package commitlog

import (
	"errors"

	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

// SegmentReport describes what Inspect found in a single segment.
type SegmentReport struct {
	segment.Snapshot

	// ID is the identifier of the segment.
	ID uint64

	// FilePath is the path of the segment file.
	FilePath string

	// FileSize is the size of the segment file.
	FileSize int64

	// Last reports if this is the segment records are appended to.
	Last bool

	// TailCause is set when the scan stopped at an invalid or incomplete record before the end of the file. For the
	// last segment, this is cut off on the next Open. For every other segment, this is corruption.
	TailCause error
}

// InspectVisitor is called for every valid record found by Inspect. Returning an error stops the inspection.
type InspectVisitor func(segmentID uint64, value segment.ScanValue) error

// Inspect scans all segments in the given directory without modifying anything, and reports the valid extent of each
// segment. When visit is not nil, it is called for every valid record. Inspect does not take the directory lock, so it
// can be used next to a running commit log. It stops at the first segment holding corruption and returns a fatal error
// together with the reports so far.
func Inspect(directory string, visit InspectVisitor) ([]SegmentReport, error) {
	ids, err := segment.GetSegments(directory)
	if err != nil {
		return nil, logerr.Io("inspect", err)
	}

	reports := make([]SegmentReport, 0, len(ids))
	var highest uint64
	hasHighest := false
	for i, id := range ids {
		report, err := inspectSegment(directory, id, i == len(ids)-1, highest, hasHighest, visit)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
		if report.Records > 0 {
			highest = report.LastOffset
			hasHighest = true
		}
		if report.TailCause != nil && !report.Last {
			var logErr *logerr.Error
			if !errors.As(report.TailCause, &logErr) {
				logErr = logerr.New(logerr.KindInvalidFormat, "inspect", report.TailCause)
			}
			return reports, logErr.WithSegment(id).WithPosition(report.Size).AsFatal()
		}
	}
	return reports, nil
}

func inspectSegment(directory string, id uint64, last bool, highest uint64, hasHighest bool, visit InspectVisitor) (SegmentReport, error) {
	report := SegmentReport{
		ID:       id,
		FilePath: segment.SegmentFilePath(directory, id),
		Last:     last,
	}

	seg, err := segment.OpenSealed(directory, id)
	if err != nil {
		return report, err
	}
	defer func() {
		_ = seg.Close()
	}()
	report.FileSize = seg.Size()

	minOffset := id
	if hasHighest {
		minOffset = max(minOffset, highest+1)
	}
	scanner := seg.Scan(minOffset)
	for scanner.Next() {
		if visit == nil {
			continue
		}
		if err := visit(id, scanner.Value()); err != nil {
			report.Snapshot = scanner.Snapshot()
			return report, err
		}
	}
	report.Snapshot = scanner.Snapshot()
	if err := scanner.Err(); err != nil {
		return report, err
	}
	if scanner.Incomplete() {
		report.TailCause = scanner.TailCause()
	}
	return report, nil
}

// Verify checks all segments in the given directory without modifying anything. It returns a fatal error when a sealed
// segment holds corruption. An invalid tail of the last segment is not an error, as it is cut off on the next Open.
func Verify(directory string) ([]SegmentReport, error) {
	return Inspect(directory, nil)
}
