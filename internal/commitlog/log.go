package commitlog

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/index"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
	"github.com/backbone81/durable-log/internal/utils"
)

// State is the lifecycle state of a Log.
type State int32

const (
	StateUninitialized State = iota
	StateRecovering
	StateReady
	StateClosed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRecovering:
		return "recovering"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AppendResult is the result of appending a record.
type AppendResult struct {
	// Offset is the offset assigned to the record.
	Offset uint64

	// Durable reports if the record was flushed to stable storage before Append returned. Records which are not yet
	// durable become durable with a later flush. Use WaitDurable to wait for that.
	Durable bool
}

// Log provides the main functionality of the commit log. It abstracts away the fact that the records are distributed
// over several segment files and does rollover into new segments as necessary.
//
// Log is safe to use from multiple Go routines concurrently. Appends are serialized, reads run concurrently.
type Log struct {
	noCopy utils.NoCopy

	directory  string
	config     config
	logger     *zap.Logger
	instanceID uuid.UUID
	lock       *directoryLock
	state      atomic.Int32
	recovery   RecoveryReport

	// The index of all records written to the segments.
	index *index.Index

	// Tracks which offsets are durable. Its end is the commit pointer.
	watermark *durability.Watermark

	// mutex serializes appends, flushes, rollovers and trims. It is taken before segmentsMutex.
	mutex sync.Mutex

	// The sync policy decides when records are flushed. Guarded by mutex.
	syncPolicy durability.SyncPolicy

	// The offset the next record will receive. Only modified with mutex held.
	nextOffset atomic.Uint64

	// The next offset as found by recovery. Offsets below it were handed out by an earlier process. Set once on open.
	recoveredOffset uint64

	// The extent of the active segment after the last successful flush. Records behind it are pending.
	durable segment.Snapshot

	// The range of offsets written but not yet flushed.
	hasPending  bool
	pendingFrom uint64
	lastWritten uint64

	// Set when a failed flush could not be rolled back. No more writes are accepted.
	brokenErr error

	// Set after pending records were rolled back. The next append starts a new segment, so that the skipped offsets
	// stay skipped after a restart.
	rolloverRequired bool

	// Scratch space for encoding records.
	frameBuffer []byte

	// segmentsMutex guards the list of segments. Readers hold it while reading from a segment, so that trimming
	// does not close a segment under them.
	segmentsMutex sync.RWMutex

	// The segments ordered by identifier. The last segment is the active one.
	segments []*segment.Segment
}

// Open opens the commit log in the given directory and recovers its state. The directory is created if it does not
// exist. A directory without segments results in an empty commit log.
//
// To avoid resources leaking, the returned Log needs to be closed by calling Close().
func Open(directory string, options ...Option) (*Log, error) {
	newLog := &Log{
		directory:   directory,
		config:      newConfig(options),
		instanceID:  uuid.New(),
		index:       index.New(),
		frameBuffer: make([]byte, 0, 4*1024),
	}
	newLog.logger = newLog.config.logger.With(
		zap.String("directory", directory),
		zap.Stringer("instance", newLog.instanceID),
	)

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, logerr.Io("open", fmt.Errorf("creating directory %q: %w", directory, err))
	}

	if newLog.config.directoryLock {
		lock, err := acquireDirectoryLock(directory, newLog.instanceID)
		if err != nil {
			return nil, err
		}
		newLog.lock = lock
	}

	newLog.state.Store(int32(StateRecovering))
	if err := newLog.recover(); err != nil {
		closeErr := newLog.closeSegments()
		lockErr := newLog.lock.Release()
		return nil, errors.Join(fmt.Errorf("recovering the commit log in %q: %w", directory, err), closeErr, lockErr)
	}

	syncPolicy, err := durability.GetSyncPolicy(newLog.config.durabilityMode, logFlusher{log: newLog}, newLog.config.syncPolicy)
	if err != nil {
		closeErr := newLog.closeSegments()
		lockErr := newLog.lock.Release()
		return nil, errors.Join(err, closeErr, lockErr)
	}
	newLog.syncPolicy = syncPolicy

	newLog.state.Store(int32(StateReady))
	return newLog, nil
}

// logFlusher hands the writer lock and the flush of the log to the sync policy.
type logFlusher struct {
	log *Log
}

func (f logFlusher) Lock() {
	f.log.mutex.Lock()
}

func (f logFlusher) Unlock() {
	f.log.mutex.Unlock()
}

func (f logFlusher) FlushLocked() error {
	return f.log.flushLocked()
}

// State returns the lifecycle state.
func (l *Log) State() State {
	return State(l.state.Load())
}

// Directory returns the directory of the commit log.
func (l *Log) Directory() string {
	return l.directory
}

// InstanceID returns the identifier of this instance. It is written to the lock file.
func (l *Log) InstanceID() uuid.UUID {
	return l.instanceID
}

// Recovery returns what was found while recovering the commit log on Open.
func (l *Log) Recovery() RecoveryReport {
	return l.recovery
}

// CommitPointer returns the highest offset which is durable, and false if no record is durable.
func (l *Log) CommitPointer() (uint64, bool) {
	return l.watermark.Load()
}

// NextOffset returns the offset the next record will receive.
func (l *Log) NextOffset() uint64 {
	return l.nextOffset.Load()
}

// OldestOffset returns the lowest offset which can still be read. Offsets below it were trimmed. Returns false if
// there is no readable record.
func (l *Log) OldestOffset() (uint64, bool) {
	lowest, ok := l.index.LowestOffset()
	if !ok || !l.watermark.Durable(lowest) {
		return 0, false
	}
	return lowest, true
}

// Segments returns a description of every segment, ordered by identifier. The last one is the active segment.
func (l *Log) Segments() []segment.Info {
	l.segmentsMutex.RLock()
	defer l.segmentsMutex.RUnlock()

	result := make([]segment.Info, 0, len(l.segments))
	for _, seg := range l.segments {
		result = append(result, seg.Info())
	}
	return result
}

// Close flushes pending records, stops the background flush and closes all segments. Records which are not durable
// after Close failed are lost.
func (l *Log) Close() error {
	l.mutex.Lock()
	if l.State() != StateReady {
		l.mutex.Unlock()
		return nil
	}
	l.state.Store(int32(StateClosed))
	l.mutex.Unlock()

	// The background flush needs the lock, so the policy is stopped without holding it.
	policyErr := l.syncPolicy.Close()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	var flushErr error
	if l.brokenErr == nil {
		flushErr = l.flushLocked()
	}
	l.watermark.Close(logerr.Closed("wait durable"))

	closeErr := l.closeSegments()
	lockErr := l.lock.Release()
	if err := errors.Join(policyErr, flushErr, closeErr, lockErr); err != nil {
		l.logger.Error("Closing the commit log failed.", zap.Error(err))
		return err
	}
	l.logger.Info("Closed the commit log.", zap.Uint64("next_offset", l.NextOffset()))
	return nil
}

func (l *Log) closeSegments() error {
	l.segmentsMutex.Lock()
	defer l.segmentsMutex.Unlock()

	var errs []error
	for _, seg := range l.segments {
		errs = append(errs, seg.Close())
	}
	l.segments = nil
	return errors.Join(errs...)
}

// checkReady returns an error when the log does not accept operations.
func (l *Log) checkReady(op string) error {
	if state := l.State(); state != StateReady {
		return logerr.Closed(op)
	}
	return nil
}

// activeSegment returns the segment records are appended to. Must be called with mutex held.
func (l *Log) activeSegment() *segment.Segment {
	return l.segments[len(l.segments)-1]
}

// segmentByIDLocked returns the segment with the given identifier. Must be called with segmentsMutex held.
func (l *Log) segmentByIDLocked(id uint64) *segment.Segment {
	// Lookups mostly go to recent segments, so we search from the end.
	for i := len(l.segments) - 1; i >= 0; i-- {
		if l.segments[i].ID() == id {
			return l.segments[i]
		}
		if l.segments[i].ID() < id {
			break
		}
	}
	return nil
}

// retainedFromLocked returns the lowest offset which was not trimmed. Must be called with segmentsMutex held.
func (l *Log) retainedFromLocked() uint64 {
	if len(l.segments) == 0 {
		return 0
	}
	return l.segments[0].ID()
}
