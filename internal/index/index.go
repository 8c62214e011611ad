// Package index provides the in-memory mapping from logical offsets to the byte position of their record.
//
// The index is never persisted. It is rebuilt from the segment files on startup and extended on every append. Offsets
// are strictly increasing, so the entries are kept in a slice sorted by offset and looked up by binary search.
package index

import (
	"fmt"
	"slices"
	"sync"

	"github.com/backbone81/durable-log/internal/utils"
)

// Location is the position of a record inside the segments.
type Location struct {
	// Offset is the logical offset of the record.
	Offset uint64

	// Segment is the identifier of the segment holding the record.
	Segment uint64

	// Position is the byte position of the frame inside the segment.
	Position int64
}

// Index maps offsets to locations.
//
// Index is safe to use from multiple Go routines concurrently.
type Index struct {
	noCopy utils.NoCopy

	mutex   sync.RWMutex
	entries []Location
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make([]Location, 0, 1024),
	}
}

// Add appends the location of a record. The offset must be greater than every offset already in the index.
//
// Add panics when offsets do not increase.
func (i *Index) Add(offset uint64, segment uint64, position int64) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if len(i.entries) > 0 && i.entries[len(i.entries)-1].Offset >= offset {
		panic(fmt.Sprintf("index offset %d does not follow %d", offset, i.entries[len(i.entries)-1].Offset))
	}
	i.entries = append(i.entries, Location{
		Offset:   offset,
		Segment:  segment,
		Position: position,
	})
}

// Lookup returns the location of the record with exactly the given offset.
func (i *Index) Lookup(offset uint64) (Location, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	position, found := i.search(offset)
	if !found {
		return Location{}, false
	}
	return i.entries[position], true
}

// Ceiling returns the location of the first record with an offset at or above the given offset.
func (i *Index) Ceiling(offset uint64) (Location, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	position, _ := i.search(offset)
	if position >= len(i.entries) {
		return Location{}, false
	}
	return i.entries[position], true
}

// HighestOffset returns the highest offset in the index.
func (i *Index) HighestOffset() (uint64, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	if len(i.entries) == 0 {
		return 0, false
	}
	return i.entries[len(i.entries)-1].Offset, true
}

// LowestOffset returns the lowest offset in the index.
func (i *Index) LowestOffset() (uint64, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	if len(i.entries) == 0 {
		return 0, false
	}
	return i.entries[0].Offset, true
}

// Len returns the number of records in the index.
func (i *Index) Len() int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return len(i.entries)
}

// TruncateAfter drops all entries with an offset above the given offset. Returns the number of entries dropped.
func (i *Index) TruncateAfter(offset uint64) int {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	position, found := i.search(offset)
	if found {
		position++
	}
	dropped := len(i.entries) - position
	i.entries = i.entries[:position]
	return dropped
}

// TruncateAll drops all entries.
func (i *Index) TruncateAll() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	dropped := len(i.entries)
	i.entries = i.entries[:0]
	return dropped
}

// TrimThrough drops all entries with an offset at or below the given offset. Returns the number of entries dropped.
func (i *Index) TrimThrough(offset uint64) int {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	position, found := i.search(offset)
	if found {
		position++
	}

	// Copy the remaining entries to a new slice, so that the memory of the trimmed prefix can be released.
	remaining := make([]Location, len(i.entries)-position, max(len(i.entries)-position, 1024))
	copy(remaining, i.entries[position:])
	i.entries = remaining
	return position
}

// RemoveSegment drops the entries of the given segment. Segments are removed from the front only, so this stops at the
// first entry of another segment.
func (i *Index) RemoveSegment(segment uint64) int {
	i.mutex.RLock()
	var lastOffset uint64
	found := false
	for _, location := range i.entries {
		if location.Segment != segment {
			break
		}
		lastOffset = location.Offset
		found = true
	}
	i.mutex.RUnlock()

	if !found {
		return 0
	}
	return i.TrimThrough(lastOffset)
}

// search returns the position of the offset in the entries, or the position where it would be inserted.
func (i *Index) search(offset uint64) (int, bool) {
	return slices.BinarySearchFunc(i.entries, offset, func(location Location, offset uint64) int {
		switch {
		case location.Offset < offset:
			return -1
		case location.Offset > offset:
			return 1
		default:
			return 0
		}
	})
}
