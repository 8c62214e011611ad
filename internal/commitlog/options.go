package commitlog

import (
	"time"

	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/segment"
)

// DefaultSegmentSizeLimit is the size of the active segment which causes a rollover into a new segment.
const DefaultSegmentSizeLimit = 64 * 1024 * 1024

// RolloverCallback is the callback users can register for getting notified when a rollover of a segment file happens.
// The parameters are the previous and the next segment identified by their identifier.
type RolloverCallback func(previousSegment uint64, nextSegment uint64)

// DefaultRolloverCallback provides a callback which does nothing.
var DefaultRolloverCallback RolloverCallback = func(previousSegment uint64, nextSegment uint64) {}

// Option describes the function signature which all commit log options need to implement.
type Option func(c *config)

type config struct {
	segmentSizeLimit int64
	durabilityMode   durability.Mode
	syncPolicy       durability.Config
	replayChecksums  bool
	directoryLock    bool
	logger           *zap.Logger
	rolloverCallback RolloverCallback
	segmentOptions   []segment.Option
}

func newConfig(options []Option) config {
	result := config{
		segmentSizeLimit: DefaultSegmentSizeLimit,
		durabilityMode:   durability.DefaultMode,
		syncPolicy: durability.Config{
			FlushBatchSize: durability.DefaultFlushBatchSize,
			FlushInterval:  durability.DefaultFlushInterval,
		},
		replayChecksums:  true,
		directoryLock:    true,
		logger:           zap.NewNop(),
		rolloverCallback: DefaultRolloverCallback,
	}
	for _, option := range options {
		option(&result)
	}
	return result
}

// WithSegmentSizeLimit overwrites the default segment size which causes rollover into a new segment when it would be
// exceeded. A record bigger than the limit is written to a segment of its own.
func WithSegmentSizeLimit(segmentSizeLimit int64) Option {
	return func(c *config) {
		c.segmentSizeLimit = max(segmentSizeLimit, encoding.HeaderSize)
	}
}

// WithDurabilityMode overwrites the default durability mode.
func WithDurabilityMode(mode durability.Mode) Option {
	return func(c *config) {
		c.durabilityMode = mode
	}
}

// WithFlushBatchSize overwrites the number of pending records which causes a flush in grouped mode.
func WithFlushBatchSize(flushBatchSize int) Option {
	return func(c *config) {
		c.syncPolicy.FlushBatchSize = max(flushBatchSize, 1)
	}
}

// WithFlushInterval overwrites the time after which pending records are flushed in grouped mode.
func WithFlushInterval(flushInterval time.Duration) Option {
	return func(c *config) {
		c.syncPolicy.FlushInterval = flushInterval
	}
}

// WithReplayChecksums enables or disables the checksum verification of records returned by ReadFrom. Point reads and
// recovery always verify checksums.
func WithReplayChecksums(replayChecksums bool) Option {
	return func(c *config) {
		c.replayChecksums = replayChecksums
	}
}

// WithLogger sets the logger for recovery, rollover and flush events. By default, nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRolloverCallback sets the given callback for being triggered when the active segment is rolled.
func WithRolloverCallback(rolloverCallback RolloverCallback) Option {
	return func(c *config) {
		if rolloverCallback != nil {
			c.rolloverCallback = rolloverCallback
		}
	}
}

// WithoutDirectoryLock disables the lock file which prevents a second process from opening the same directory.
func WithoutDirectoryLock() Option {
	return func(c *config) {
		c.directoryLock = false
	}
}
