package segment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/utils"
)

// File is the interface which needs to be implemented by the file backing a writable segment. *os.File implements
// it.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Sync() error
	Truncate(size int64) error
	Name() string
}

// FileWrapper is applied to every file opened for writing. It allows tests to intercept file operations.
type FileWrapper func(file File) File

// Option describes the function signature which all segment options need to implement.
type Option func(config *config)

type config struct {
	wrapFile FileWrapper
}

// WithFileWrapper applies the wrapper to the file of a writable segment.
func WithFileWrapper(wrapFile FileWrapper) Option {
	return func(config *config) {
		config.wrapFile = wrapFile
	}
}

func newConfig(options []Option) config {
	result := config{
		wrapFile: func(file File) File { return file },
	}
	for _, option := range options {
		option(&result)
	}
	return result
}

// Snapshot describes the extent of a segment: how many bytes are in use and which records they hold.
type Snapshot struct {
	// Size is the number of bytes in use. Always a frame boundary.
	Size int64

	// Records is the number of records in the segment.
	Records int64

	// FirstOffset and LastOffset are the offsets of the first and last record. Only valid when Records is not zero.
	FirstOffset uint64
	LastOffset  uint64
}

// Info provides a point in time description of a segment.
type Info struct {
	Snapshot

	// ID is the identifier of the segment. It is the base offset of the segment.
	ID uint64

	// FilePath is the path of the segment file.
	FilePath string

	// Sealed reports if the segment is read-only.
	Sealed bool
}

// Segment provides functionality for appending to and reading from a single segment file.
//
// Appending, flushing, truncating and sealing need external synchronization, as only a single writer is supported.
// ReadAt and ReadRecord are safe to call concurrently with each other and with the writer.
type Segment struct {
	noCopy utils.NoCopy

	// The identifier of the segment, which is its base offset.
	id uint64

	// The path to the segment file.
	filePath string

	// Guards the switch from file to mapping on Seal, and the release of both on Close.
	mutex sync.RWMutex

	// The file of a writable segment. nil after the segment was sealed.
	file File

	// The read-only mapping of a sealed segment. nil while the segment is writable.
	mapping *mmap.ReaderAt

	closed bool

	size        atomic.Int64
	records     atomic.Int64
	firstOffset atomic.Uint64
	lastOffset  atomic.Uint64
}

// Create creates a new empty segment in the given directory. It will create the new file with the file extension
// ".new" appended to the file name and rename it after it has been flushed. This ensures that the new segment file is
// only visible in the directory when it was completely created.
func Create(directory string, id uint64, options ...Option) (*Segment, error) {
	segmentFilePath := SegmentFilePath(directory, id)
	segment, err := create(directory, segmentFilePath, id, newConfig(options))
	if err != nil {
		return nil, logerr.Io("create segment", fmt.Errorf("the segment file %q: %w", segmentFilePath, err)).WithSegment(id)
	}
	return segment, nil
}

func create(directory string, segmentFilePath string, id uint64, config config) (*Segment, error) {
	if _, err := os.Stat(segmentFilePath); err == nil {
		return nil, errors.New("segment file already exists")
	}

	// Remove any temporary segment file which might be there from an earlier failure.
	newSegmentFilePath := segmentFilePath + temporarySuffix
	if err := os.Remove(newSegmentFilePath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing the temporary file %q: %w", newSegmentFilePath, err)
	}

	file, err := os.OpenFile(newSegmentFilePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o664) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("creating the temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.Join(fmt.Errorf("flushing the temporary file: %w", err), file.Close())
	}

	file, err = renameSegment(file, segmentFilePath)
	if err != nil {
		return nil, err
	}
	if err := syncDirectory(directory); err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return New(id, segmentFilePath, config.wrapFile(file), Snapshot{}), nil
}

// Open opens the existing segment in the given directory for scanning and appending. The extent of the segment is
// unknown until it was scanned and Truncate was called with the scan result. Until then, Size reports the size of the
// file.
func Open(directory string, id uint64, options ...Option) (*Segment, error) {
	segmentFilePath := SegmentFilePath(directory, id)
	config := newConfig(options)

	file, err := os.OpenFile(segmentFilePath, os.O_RDWR, 0) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, logerr.Io("open segment", fmt.Errorf("opening the segment file %q: %w", segmentFilePath, err)).WithSegment(id)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, logerr.Io("open segment", errors.Join(
			fmt.Errorf("reading the size of the segment file %q: %w", segmentFilePath, err),
			file.Close(),
		)).WithSegment(id)
	}
	return New(id, segmentFilePath, config.wrapFile(file), Snapshot{Size: fileInfo.Size()}), nil
}

// OpenSealed opens the existing segment in the given directory as a read-only mapping. The extent of the segment is
// unknown until it was scanned and Adopt was called with the scan result.
func OpenSealed(directory string, id uint64) (*Segment, error) {
	segmentFilePath := SegmentFilePath(directory, id)
	mapping, err := mmap.Open(segmentFilePath)
	if err != nil {
		return nil, logerr.Io("open segment", fmt.Errorf("mapping the segment file %q: %w", segmentFilePath, err)).WithSegment(id)
	}

	segment := &Segment{
		id:       id,
		filePath: segmentFilePath,
		mapping:  mapping,
	}
	segment.size.Store(int64(mapping.Len()))
	return segment, nil
}

// New creates a Segment from a file which is already open. The snapshot describes the content of the file.
func New(id uint64, filePath string, file File, snapshot Snapshot) *Segment {
	segment := &Segment{
		id:       id,
		filePath: filePath,
		file:     file,
	}
	segment.adopt(snapshot)
	return segment
}

// ID returns the identifier of the segment.
func (s *Segment) ID() uint64 {
	return s.id
}

// FilePath returns the path of the segment file.
func (s *Segment) FilePath() string {
	return s.filePath
}

// Size returns the number of bytes in use.
func (s *Segment) Size() int64 {
	return s.size.Load()
}

// Empty reports if the segment does not hold any record.
func (s *Segment) Empty() bool {
	return s.records.Load() == 0
}

// LastOffset returns the offset of the last record and false if the segment is empty.
func (s *Segment) LastOffset() (uint64, bool) {
	if s.Empty() {
		return 0, false
	}
	return s.lastOffset.Load(), true
}

// Sealed reports if the segment is read-only.
func (s *Segment) Sealed() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.mapping != nil
}

// Snapshot returns the current extent of the segment.
func (s *Segment) Snapshot() Snapshot {
	return Snapshot{
		Size:        s.size.Load(),
		Records:     s.records.Load(),
		FirstOffset: s.firstOffset.Load(),
		LastOffset:  s.lastOffset.Load(),
	}
}

// Info returns a description of the segment.
func (s *Segment) Info() Info {
	return Info{
		Snapshot: s.Snapshot(),
		ID:       s.id,
		FilePath: s.filePath,
		Sealed:   s.Sealed(),
	}
}

// Append writes the frame at the end of the segment and returns the byte position it was written to. The frame must
// be a complete record as produced by encoding.AppendFrame.
//
// Append panics when called on a sealed segment.
func (s *Segment) Append(frame []byte) (int64, error) {
	header, err := encoding.DecodeHeader(frame)
	if err != nil {
		return 0, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.mapping != nil {
		panic(fmt.Sprintf("appending to sealed segment %d", s.id))
	}
	if s.closed {
		return 0, logerr.Closed("append").WithSegment(s.id)
	}

	position := s.size.Load()
	if _, err := s.file.WriteAt(frame, position); err != nil {
		return 0, logerr.Io("append", fmt.Errorf("writing record to segment file: %w", err)).
			WithSegment(s.id).
			WithPosition(position).
			WithOffset(header.Offset)
	}

	if s.records.Load() == 0 {
		s.firstOffset.Store(header.Offset)
	}
	s.lastOffset.Store(header.Offset)
	s.records.Add(1)
	s.size.Add(int64(len(frame)))
	return position, nil
}

// Flush flushes the content of the segment file to stable storage.
func (s *Segment) Flush() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.mapping != nil {
		// Sealed segments were flushed before they were sealed.
		return nil
	}
	if s.closed {
		return logerr.Closed("flush").WithSegment(s.id)
	}
	return s.flush()
}

func (s *Segment) flush() error {
	start := time.Now()
	if err := s.file.Sync(); err != nil {
		return logerr.Io("flush", fmt.Errorf("flushing the segment file: %w", err)).WithSegment(s.id)
	}
	FlushDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Truncate discards everything behind the extent described by snapshot and flushes the file. The snapshot must come
// from a scan of this segment or from an earlier call to Snapshot. This is used for cutting off a torn tail after a
// crash, and for rolling back records which could not be flushed.
func (s *Segment) Truncate(snapshot Snapshot) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.mapping != nil {
		panic(fmt.Sprintf("truncating sealed segment %d", s.id))
	}
	if s.closed {
		return logerr.Closed("truncate").WithSegment(s.id)
	}

	// A failed write might have left bytes behind the size we know about, so the file is always cut.
	if err := s.file.Truncate(snapshot.Size); err != nil {
		return logerr.Io("truncate", fmt.Errorf("truncating the segment file: %w", err)).
			WithSegment(s.id).
			WithPosition(snapshot.Size)
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.adopt(snapshot)
	return nil
}

// Adopt takes over the extent from a scan without modifying the file. It is used for segments which are complete.
func (s *Segment) Adopt(snapshot Snapshot) {
	s.adopt(snapshot)
}

func (s *Segment) adopt(snapshot Snapshot) {
	s.size.Store(snapshot.Size)
	s.records.Store(snapshot.Records)
	s.firstOffset.Store(snapshot.FirstOffset)
	s.lastOffset.Store(snapshot.LastOffset)
}

// Seal flushes the segment and switches it to read-only. The file is replaced by a read-only memory mapping.
func (s *Segment) Seal() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.mapping != nil {
		return nil
	}
	if s.closed {
		return logerr.Closed("seal").WithSegment(s.id)
	}

	if err := s.flush(); err != nil {
		return err
	}

	mapping, err := mmap.Open(s.filePath)
	if err != nil {
		return logerr.Io("seal", fmt.Errorf("mapping the segment file %q: %w", s.filePath, err)).WithSegment(s.id)
	}
	if err := s.file.Close(); err != nil {
		return logerr.Io("seal", errors.Join(
			fmt.Errorf("closing the segment file: %w", err),
			mapping.Close(),
		)).WithSegment(s.id)
	}
	s.file = nil
	s.mapping = mapping
	return nil
}

// ReadAt reads len(p) bytes from the segment at the given byte position. Implements io.ReaderAt.
func (s *Segment) ReadAt(p []byte, position int64) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.readAt(p, position)
}

func (s *Segment) readAt(p []byte, position int64) (int, error) {
	if s.closed {
		return 0, logerr.Closed("read").WithSegment(s.id)
	}
	if s.mapping != nil {
		return s.mapping.ReadAt(p, position)
	}
	return s.file.ReadAt(p, position)
}

// ReadRecord reads the record at the given byte position and makes sure that it carries the expected offset. The
// checksum is verified when verifyChecksum is set. The returned payload is owned by the caller.
func (s *Segment) ReadRecord(position int64, offset uint64, verifyChecksum bool) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	payload, err := s.readRecord(position, offset, verifyChecksum)
	if err != nil {
		var logErr *logerr.Error
		if errors.As(err, &logErr) {
			return nil, logErr.WithSegment(s.id).WithPosition(position)
		}
		return nil, err
	}

	ReadRecordTotal.Inc()
	ReadRecordBytes.Add(float64(len(payload)))
	return payload, nil
}

func (s *Segment) readRecord(position int64, offset uint64, verifyChecksum bool) ([]byte, error) {
	var headerBuffer [encoding.HeaderSize]byte
	reader := io.NewSectionReader(readerAtFunc(s.readAt), position, encoding.HeaderSize)
	header, err := encoding.ReadHeader(reader, headerBuffer[:])
	if err != nil {
		return nil, err
	}
	if header.Offset != offset {
		return nil, logerr.InvalidFormat("read record", "record carries offset %d", header.Offset).
			WithOffset(offset).
			WithValues(offset, header.Offset)
	}
	if position+header.FrameSize() > s.size.Load() {
		return nil, logerr.InvalidFormat("read record", "record exceeds the segment").WithOffset(offset)
	}

	payload := make([]byte, header.PayloadLength)
	if err := s.readFull(payload, position+encoding.HeaderSize); err != nil {
		return nil, err
	}
	if verifyChecksum {
		if err := encoding.VerifyChecksum(header, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// readerAtFunc turns a read function into an io.ReaderAt.
type readerAtFunc func(p []byte, position int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, position int64) (int, error) {
	return f(p, position)
}

func (s *Segment) readFull(p []byte, position int64) error {
	n, err := s.readAt(p, position)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return logerr.InvalidFormat("read record", "short read: %d of %d bytes", n, len(p))
	}
	var logErr *logerr.Error
	if errors.As(err, &logErr) {
		return err
	}
	return logerr.Io("read record", err)
}

// Scan returns a scanner which validates the records of the segment from the first byte on. Records must carry an
// offset of at least minOffset.
func (s *Segment) Scan(minOffset uint64) *Scanner {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.file != nil {
		adviseSequential(s.file)
	}
	return NewScanner(s, s.size.Load(), minOffset)
}

// Close closes the file or the mapping of the segment. Pending changes are not flushed.
func (s *Segment) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.mapping != nil {
		err = s.mapping.Close()
	} else if s.file != nil {
		err = s.file.Close()
	}
	if err != nil {
		return logerr.Io("close segment", err).WithSegment(s.id)
	}
	return nil
}

// Remove closes the segment and deletes its file.
func (s *Segment) Remove() error {
	closeErr := s.Close()
	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return errors.Join(closeErr, logerr.Io("remove segment", err).WithSegment(s.id))
	}
	if err := syncDirectory(path.Dir(s.filePath)); err != nil {
		return errors.Join(closeErr, logerr.Io("remove segment", err).WithSegment(s.id))
	}
	return closeErr
}
