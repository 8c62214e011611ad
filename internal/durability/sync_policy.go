// Package durability decides when appended records are flushed to stable storage, and tracks which offsets are
// durable.
package durability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrModeUnsupported = errors.New("unsupported durability mode")

// Mode describes when records are flushed to stable storage.
type Mode int

const (
	// ModeSync flushes every record before the append returns.
	ModeSync Mode = iota + 1 // We do not start at 0 to detect missing values.

	// ModeGrouped flushes several records together, after a number of records or after some time.
	ModeGrouped
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// Modes provides a list of supported modes. Helpful for writing tests and benchmarks which iterate over all
// possibilities.
var Modes = []Mode{
	ModeSync,
	ModeGrouped,
}

// DefaultMode is the mode which should work fine for most use cases.
const DefaultMode = ModeGrouped

// DefaultFlushBatchSize is the number of pending records which triggers a flush in grouped mode.
const DefaultFlushBatchSize = 64

// DefaultFlushInterval is the time after which pending records are flushed in grouped mode.
const DefaultFlushInterval = 5 * time.Millisecond

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, error) {
	for _, mode := range Modes {
		if strings.EqualFold(mode.String(), name) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrModeUnsupported, name)
}

// Flusher is implemented by the owner of the records. The sync policies flush through it.
type Flusher interface {
	// Lock and Unlock guard the records. The background flush of a sync policy takes the lock before flushing.
	Lock()
	Unlock()

	// FlushLocked flushes all records appended so far. Must be called with the lock held.
	FlushLocked() error
}

// SyncPolicy is the interface every sync policy needs to implement.
//
// EntryAppended and Flushed are called with the lock of the Flusher held.
type SyncPolicy interface {
	// EntryAppended is called after the record with the given offset was written. Reports if the record is durable
	// when the call returns.
	EntryAppended(offset uint64) (bool, error)

	// Flushed is called after every flush of the records, whoever triggered it, and also after a failed flush was
	// rolled back. Nothing is pending afterward.
	Flushed()

	// Close stops the background activity of the policy. Must be called without the lock held. Pending records are not
	// flushed.
	Close() error
}

// Config holds the settings of the sync policies.
type Config struct {
	// FlushBatchSize is the number of pending records which triggers a flush in grouped mode.
	FlushBatchSize int

	// FlushInterval is the time after which pending records are flushed in grouped mode.
	FlushInterval time.Duration
}

// GetSyncPolicy returns an instance of the sync policy matching the mode.
func GetSyncPolicy(mode Mode, flusher Flusher, config Config) (SyncPolicy, error) {
	switch mode {
	case ModeSync:
		return NewSyncPolicyImmediate(flusher), nil
	case ModeGrouped:
		return NewSyncPolicyGrouped(flusher, config.FlushBatchSize, config.FlushInterval), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrModeUnsupported, mode)
	}
}
