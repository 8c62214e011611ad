package utils

import "io"

// SegmentReaderLoop provides a stub which returns the same data over and over again in an endless loop. It allows us
// to run large scale benchmarks without having to provide an actual big file on disk or memory.
type SegmentReaderLoop struct {
	Data   []byte
	Offset int
}

// SegmentReaderLoop implements io.ReaderAt.
var _ io.ReaderAt = (*SegmentReaderLoop)(nil)

func (s *SegmentReaderLoop) Read(p []byte) (int, error) {
	copyBytes := min(len(p), len(s.Data)-s.Offset)
	copy(p, s.Data[s.Offset:s.Offset+copyBytes])
	s.Offset += copyBytes
	if s.Offset >= len(s.Data) {
		s.Offset = 0
	}
	return copyBytes, nil
}

// ReadAt reads as if Data was repeated endlessly. It never returns io.EOF.
func (s *SegmentReaderLoop) ReadAt(p []byte, off int64) (int, error) {
	if len(s.Data) == 0 {
		return 0, io.EOF
	}
	read := 0
	position := int(off % int64(len(s.Data)))
	for read < len(p) {
		copied := copy(p[read:], s.Data[position:])
		read += copied
		position = 0
	}
	return read, nil
}

func (s *SegmentReaderLoop) Name() string {
	return "in-memory-loop"
}
