package commitlog

import (
	"github.com/backbone81/durable-log/internal/index"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/utils"
)

// Record is a record returned by the Iterator.
type Record struct {
	// Offset is the logical offset of the record.
	Offset uint64

	// Payload holds the data of the record. It is owned by the caller.
	Payload []byte
}

// Read returns the payload of the record with the given offset. The checksum is always verified.
//
// Returns an error matching logerr.ErrNotFound when the offset was trimmed, was never written, is not yet durable or
// was abandoned after a failed flush.
func (l *Log) Read(offset uint64) ([]byte, error) {
	if err := l.checkReady("read"); err != nil {
		return nil, err
	}
	if !l.watermark.Durable(offset) {
		return nil, logerr.NotFound("read", offset)
	}
	return l.readRecord("read", offset, true)
}

// readRecord reads the record with the given offset, which must be durable.
func (l *Log) readRecord(op string, offset uint64, verifyChecksum bool) ([]byte, error) {
	l.segmentsMutex.RLock()
	defer l.segmentsMutex.RUnlock()

	if len(l.segments) == 0 {
		return nil, logerr.Closed(op)
	}
	if offset < l.retainedFromLocked() {
		return nil, logerr.NotFound(op, offset)
	}
	location, found := l.index.Lookup(offset)
	if !found {
		return nil, logerr.NotFound(op, offset)
	}
	return l.readLocationLocked(op, location, verifyChecksum)
}

// readLocationLocked reads the record at the given location. Must be called with segmentsMutex held.
func (l *Log) readLocationLocked(op string, location index.Location, verifyChecksum bool) ([]byte, error) {
	seg := l.segmentByIDLocked(location.Segment)
	if seg == nil {
		// The segment was trimmed after the location was looked up.
		return nil, logerr.NotFound(op, location.Offset)
	}
	return seg.ReadRecord(location.Position, location.Offset, verifyChecksum)
}

// ReadFrom returns an iterator over all durable records starting with the given offset. The iterator stops at the
// commit pointer at the time of the call. Records appended later are not returned. To continue, call ReadFrom again
// with the offset following the last record returned.
//
// Returns an error matching logerr.ErrNotFound when the offset was trimmed.
func (l *Log) ReadFrom(offset uint64) (*Iterator, error) {
	if err := l.checkReady("read from"); err != nil {
		return nil, err
	}

	l.segmentsMutex.RLock()
	retainedFrom := l.retainedFromLocked()
	l.segmentsMutex.RUnlock()
	if offset < retainedFrom {
		return nil, logerr.NotFound("read from", offset)
	}

	return &Iterator{
		log:            l,
		next:           offset,
		end:            l.watermark.End(),
		verifyChecksum: l.config.replayChecksums,
	}, nil
}

// Iterator returns the records of the commit log in ascending offset order.
//
// Instances of Iterator are NOT safe to use concurrently. You need to provide external synchronization.
type Iterator struct {
	noCopy utils.NoCopy

	log            *Log
	next           uint64
	end            uint64
	verifyChecksum bool

	value Record
	done  bool
	err   error
}

// Next reports if a record has been successfully read. When it returns true, Value() contains valid data. When it
// returns false, either all records up to the commit pointer were returned, or Err() reports what went wrong.
func (i *Iterator) Next() bool {
	if i.done {
		return false
	}
	if i.next >= i.end {
		i.done = true
		return false
	}
	if err := i.log.checkReady("read from"); err != nil {
		return i.fail(err)
	}

	location, found := i.log.index.Ceiling(i.next)
	if !found || location.Offset >= i.end {
		i.done = true
		return false
	}

	payload, err := i.read(location)
	if err != nil {
		return i.fail(err)
	}
	i.value = Record{
		Offset:  location.Offset,
		Payload: payload,
	}
	i.next = location.Offset + 1
	return true
}

func (i *Iterator) read(location index.Location) ([]byte, error) {
	i.log.segmentsMutex.RLock()
	defer i.log.segmentsMutex.RUnlock()

	if len(i.log.segments) == 0 {
		return nil, logerr.Closed("read from")
	}
	if i.next < i.log.retainedFromLocked() {
		// The records we were about to return were trimmed while iterating.
		return nil, logerr.NotFound("read from", i.next)
	}
	return i.log.readLocationLocked("read from", location, i.verifyChecksum)
}

func (i *Iterator) fail(err error) bool {
	i.done = true
	i.err = err
	return false
}

// Value returns the last record read. The values are only valid after a call to Next() which returned true.
func (i *Iterator) Value() Record {
	return i.value
}

// Err returns the error which stopped the iteration, or nil when the iteration reached its end.
func (i *Iterator) Err() error {
	return i.err
}

// End returns the offset the iteration stops at. It is one above the commit pointer at the time ReadFrom was called.
func (i *Iterator) End() uint64 {
	return i.end
}
