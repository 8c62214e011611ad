package utils

import (
	"errors"
	"io"
	"sync"
)

// SegmentFileRecorder provides a stub for a segment file which records what is written to it in memory. It allows us
// to run a segment against memory and to look at the bytes it produced afterward.
//
// SegmentFileRecorder is safe to use from multiple Go routines concurrently.
type SegmentFileRecorder struct {
	mutex  sync.Mutex
	data   []byte
	syncs  int
	closed bool
}

func (s *SegmentFileRecorder) WriteAt(p []byte, off int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if off < 0 {
		return 0, errors.New("negative offset")
	}
	end := int(off) + len(p)
	if end > len(s.data) {
		s.data = append(s.data, make([]byte, end-len(s.data))...)
	}
	copy(s.data[off:], p)
	return len(p), nil
}

func (s *SegmentFileRecorder) ReadAt(p []byte, off int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *SegmentFileRecorder) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	return nil
}

func (s *SegmentFileRecorder) Sync() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.syncs++
	return nil
}

func (s *SegmentFileRecorder) Truncate(size int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if size < int64(len(s.data)) {
		s.data = s.data[:size]
	} else {
		s.data = append(s.data, make([]byte, int(size)-len(s.data))...)
	}
	return nil
}

func (s *SegmentFileRecorder) Name() string {
	return "in-memory-recorder"
}

// Bytes returns a copy of everything recorded so far.
func (s *SegmentFileRecorder) Bytes() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]byte(nil), s.data...)
}

// Syncs returns how often Sync was called.
func (s *SegmentFileRecorder) Syncs() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.syncs
}

// Closed reports if Close was called.
func (s *SegmentFileRecorder) Closed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.closed
}
