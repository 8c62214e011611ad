package utils

import (
	"errors"
	"io"
	"sync/atomic"
)

// ErrInjected is returned by SegmentFileFaulty for every operation which was told to fail.
var ErrInjected = errors.New("injected failure")

// FaultyFile is the part of a segment file SegmentFileFaulty forwards to.
type FaultyFile interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Sync() error
	Truncate(size int64) error
	Name() string
}

// SegmentFileFaulty wraps a segment file and fails selected operations on request. It allows us to test how the commit
// log deals with a disk which stops accepting writes or flushes.
type SegmentFileFaulty struct {
	File FaultyFile

	FailWrite    atomic.Bool
	FailSync     atomic.Bool
	FailTruncate atomic.Bool

	// FailSyncOnce fails the next flush only.
	FailSyncOnce atomic.Bool
}

func (s *SegmentFileFaulty) WriteAt(p []byte, off int64) (int, error) {
	if s.FailWrite.Load() {
		return 0, ErrInjected
	}
	return s.File.WriteAt(p, off)
}

func (s *SegmentFileFaulty) ReadAt(p []byte, off int64) (int, error) {
	return s.File.ReadAt(p, off)
}

func (s *SegmentFileFaulty) Close() error {
	return s.File.Close()
}

func (s *SegmentFileFaulty) Sync() error {
	if s.FailSync.Load() || s.FailSyncOnce.CompareAndSwap(true, false) {
		return ErrInjected
	}
	return s.File.Sync()
}

func (s *SegmentFileFaulty) Truncate(size int64) error {
	if s.FailTruncate.Load() {
		return ErrInjected
	}
	return s.File.Truncate(size)
}

func (s *SegmentFileFaulty) Name() string {
	return s.File.Name()
}
