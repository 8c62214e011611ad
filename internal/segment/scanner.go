package segment

import (
	"bufio"
	"errors"
	"io"

	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/utils"
)

// scanBufferSize is the size of the read buffer of a scanner.
const scanBufferSize = 64 * 1024

// ScanValue is the value returned by the Scanner.
type ScanValue struct {
	// Position is the byte position of the frame inside the segment.
	Position int64

	// Header is the decoded header of the record.
	Header encoding.RecordHeader

	// Payload holds the data of the record. It is only valid until the next call to Next().
	Payload []byte
}

// Scanner validates the records of a segment in file order.
//
// The scanner stops at the first frame which is not complete or not valid. This is not reported as an error but as an
// incomplete tail. Whether this is a crash artifact or corruption is decided by the caller, which knows if the segment
// was the last one. Err() only reports failures of the underlying storage.
//
// Instances of Scanner are NOT safe to use concurrently. You need to provide external synchronization.
type Scanner struct {
	noCopy utils.NoCopy

	// The reader of the segment content and its size.
	reader *bufio.Reader
	size   int64

	// Records need to carry at least this offset.
	minOffset uint64

	// The byte position of the next frame. This is the end of the valid part of the segment.
	position int64

	records     int64
	firstOffset uint64
	lastOffset  uint64

	// The buffer to hold the payload data.
	data []byte

	header [encoding.HeaderSize]byte

	value      ScanValue
	done       bool
	incomplete bool
	tailCause  error
	err        error
}

// NewScanner creates a scanner over the first size bytes of reader.
func NewScanner(reader io.ReaderAt, size int64, minOffset uint64) *Scanner {
	return &Scanner{
		reader:    bufio.NewReaderSize(io.NewSectionReader(reader, 0, size), scanBufferSize),
		size:      size,
		minOffset: minOffset,
		data:      make([]byte, 4*1024), // Pre-allocate the data slice to reduce the number of allocations.
	}
}

// Next reports if a record has been successfully read. When it returns true, Value() contains valid data. When it
// returns false, the scan is over: either the end of the segment was reached, the tail is incomplete, or Err() reports
// an I/O failure.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	if err := s.next(); err != nil {
		s.done = true
		if logerr.IsFrameInvalid(err) {
			s.incomplete = true
			s.tailCause = err
		} else if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}

	ScanRecordTotal.Inc()
	ScanRecordBytes.Add(float64(len(s.value.Payload)))
	return true
}

func (s *Scanner) next() error {
	remaining := s.size - s.position
	if remaining == 0 {
		return io.EOF
	}
	if remaining < encoding.HeaderSize {
		return s.invalid(logerr.InvalidFormat("scan", "incomplete header: %d bytes left", remaining))
	}

	if _, err := io.ReadFull(s.reader, s.header[:]); err != nil {
		return s.readFailure(err)
	}
	header, err := encoding.DecodeHeader(s.header[:])
	if err != nil {
		return s.invalid(err)
	}
	if header.FrameSize() > remaining {
		return s.invalid(logerr.InvalidFormat("scan", "incomplete record: %d bytes left for %d bytes of payload",
			remaining-encoding.HeaderSize, header.PayloadLength).WithOffset(header.Offset))
	}
	if s.records > 0 && header.Offset <= s.lastOffset {
		return s.invalid(logerr.InvalidFormat("scan", "offset %d does not follow %d", header.Offset, s.lastOffset).
			WithOffset(header.Offset).
			WithValues(s.lastOffset+1, header.Offset))
	}
	if header.Offset < s.minOffset {
		return s.invalid(logerr.InvalidFormat("scan", "offset %d is below the segment base %d", header.Offset, s.minOffset).
			WithOffset(header.Offset).
			WithValues(s.minOffset, header.Offset))
	}

	// The payload length was checked against the remaining bytes, so a garbage length cannot make us allocate more
	// than the segment size.
	length := int(header.PayloadLength)
	if len(s.data) < length {
		// We increase the data slice by a factor of 1.5 to amortise memory allocations over multiple calls, and round
		// up to the next multiple of 4096 to have buffer sizes aligned with OS page sizes.
		newSize := length + length>>1
		newSize = (newSize + 4095) &^ 4095
		s.data = make([]byte, newSize)
	}
	payload := s.data[:length]
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return s.readFailure(err)
	}
	if err := encoding.VerifyChecksum(header, payload); err != nil {
		return s.invalid(err)
	}

	s.value = ScanValue{
		Position: s.position,
		Header:   header,
		Payload:  payload,
	}
	if s.records == 0 {
		s.firstOffset = header.Offset
	}
	s.lastOffset = header.Offset
	s.records++
	s.position += header.FrameSize()
	return nil
}

func (s *Scanner) invalid(err error) error {
	var logErr *logerr.Error
	if errors.As(err, &logErr) {
		return logErr.WithPosition(s.position)
	}
	return err
}

func (s *Scanner) readFailure(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// The segment is shorter than the size we were told about.
		return s.invalid(logerr.New(logerr.KindInvalidFormat, "scan", err))
	}
	var logErr *logerr.Error
	if errors.As(err, &logErr) {
		return logErr.WithPosition(s.position)
	}
	return logerr.Io("scan", err).WithPosition(s.position)
}

// Value returns the last record read from the segment. The values are only valid after a call to Next() which returned
// true.
func (s *Scanner) Value() ScanValue {
	return s.value
}

// Err returns the I/O failure which stopped the scan, or nil.
func (s *Scanner) Err() error {
	return s.err
}

// Incomplete reports if the scan stopped at an invalid or incomplete frame before the end of the segment.
func (s *Scanner) Incomplete() bool {
	return s.incomplete
}

// TailCause returns why the frame at Position() was rejected. Only set when Incomplete() is true.
func (s *Scanner) TailCause() error {
	return s.tailCause
}

// Position returns the byte position after the last valid frame.
func (s *Scanner) Position() int64 {
	return s.position
}

// Size returns the number of bytes the scanner was asked to look at.
func (s *Scanner) Size() int64 {
	return s.size
}

// Snapshot returns the extent of the valid part of the segment seen so far. After the scan is over, this is what the
// segment needs to be truncated to.
func (s *Scanner) Snapshot() Snapshot {
	return Snapshot{
		Size:        s.position,
		Records:     s.records,
		FirstOffset: s.firstOffset,
		LastOffset:  s.lastOffset,
	}
}
