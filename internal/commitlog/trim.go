package commitlog

import (
	"errors"

	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/segment"
)

// TrimBefore deletes all sealed segments whose records all have an offset below the given offset. Segments are only
// deleted as a whole and the active segment is never deleted. Returns the identifiers of the deleted segments. Nothing
// is deleted when no segment qualifies.
func (l *Log) TrimBefore(offset uint64) ([]uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.checkReady("trim"); err != nil {
		return nil, err
	}

	removed := l.detachSegments(offset)
	if len(removed) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(removed))
	var errs []error
	for _, seg := range removed {
		ids = append(ids, seg.ID())
		if err := seg.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	TrimmedSegmentsTotal.Add(float64(len(removed)))

	if err := errors.Join(errs...); err != nil {
		l.logger.Error("Deleting trimmed segments failed.", zap.Uint64s("segments", ids), zap.Error(err))
		return ids, err
	}
	l.logger.Info("Trimmed segments.", zap.Uint64s("segments", ids), zap.Uint64("before_offset", offset))
	return ids, nil
}

// detachSegments removes the qualifying segments from the segment list and the index. Readers no longer see them
// afterward. Must be called with mutex held.
func (l *Log) detachSegments(offset uint64) []*segment.Segment {
	l.segmentsMutex.Lock()
	defer l.segmentsMutex.Unlock()

	count := 0
	for i, seg := range l.segments[:len(l.segments)-1] {
		last, ok := seg.LastOffset()
		if !ok {
			// An empty segment covers everything up to the start of the next one.
			if l.segments[i+1].ID() > offset {
				break
			}
		} else if last >= offset {
			break
		}
		count++
	}
	if count == 0 {
		return nil
	}

	removed := make([]*segment.Segment, count)
	copy(removed, l.segments[:count])
	for _, seg := range removed {
		l.index.RemoveSegment(seg.ID())
	}
	remaining := make([]*segment.Segment, len(l.segments)-count)
	copy(remaining, l.segments[count:])
	l.segments = remaining
	return removed
}
