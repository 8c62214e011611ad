package utils

import "io"

// SegmentFileDiscard provides a stub for a segment file which discards all data. It allows us to run large scale
// benchmarks without filling up the disk or memory.
type SegmentFileDiscard struct{}

func (s *SegmentFileDiscard) WriteAt(p []byte, _ int64) (int, error) {
	return len(p), nil
}

func (s *SegmentFileDiscard) ReadAt(_ []byte, _ int64) (int, error) {
	return 0, io.EOF
}

func (s *SegmentFileDiscard) Close() error {
	return nil
}

func (s *SegmentFileDiscard) Sync() error {
	return nil
}

func (s *SegmentFileDiscard) Truncate(_ int64) error {
	return nil
}

func (s *SegmentFileDiscard) Name() string {
	return "in-memory-discard"
}
