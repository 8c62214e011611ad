package commitlog

import (
	"github.com/backbone81/durable-log/internal/segment"
)

// WithFileWrapper applies the wrapper to the file of every writable segment.
func WithFileWrapper(wrapFile segment.FileWrapper) Option {
	return func(c *config) {
		c.segmentOptions = append(c.segmentOptions, segment.WithFileWrapper(wrapFile))
	}
}

// ActiveSegmentSnapshot returns the extent of the segment records are appended to.
func ActiveSegmentSnapshot(l *Log) segment.Snapshot {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.activeSegment().Snapshot()
}
