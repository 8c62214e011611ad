package commitlog

import (
	intcommitlog "github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/durability"
)

// Option configures a Log. Can be used with Open.
type Option = intcommitlog.Option

// DurabilityMode describes when records are flushed to stable storage.
type DurabilityMode = durability.Mode

const (
	// DurabilityModeSync flushes every record before Append returns.
	DurabilityModeSync = durability.ModeSync

	// DurabilityModeGrouped flushes several records together, after a number of records or after some time.
	DurabilityModeGrouped = durability.ModeGrouped
)

// ParseDurabilityMode returns the durability mode with the given name.
var ParseDurabilityMode = durability.ParseMode

// RolloverCallback is the callback users can register for getting notified when a rollover of a segment file happens.
type RolloverCallback = intcommitlog.RolloverCallback

// DefaultSegmentSizeLimit is the size of the active segment which causes a rollover into a new segment.
const DefaultSegmentSizeLimit = intcommitlog.DefaultSegmentSizeLimit

// WithSegmentSizeLimit overwrites the default segment size which causes rollover into a new segment.
var WithSegmentSizeLimit = intcommitlog.WithSegmentSizeLimit

// WithDurabilityMode overwrites the default durability mode.
var WithDurabilityMode = intcommitlog.WithDurabilityMode

// WithFlushBatchSize overwrites the number of pending records which causes a flush in grouped mode.
var WithFlushBatchSize = intcommitlog.WithFlushBatchSize

// WithFlushInterval overwrites the time after which pending records are flushed in grouped mode.
var WithFlushInterval = intcommitlog.WithFlushInterval

// WithReplayChecksums enables or disables the checksum verification of records returned by ReadFrom.
var WithReplayChecksums = intcommitlog.WithReplayChecksums

// WithLogger sets the logger for recovery, rollover and flush events.
var WithLogger = intcommitlog.WithLogger

// WithRolloverCallback sets the given callback for being triggered when the active segment is rolled.
var WithRolloverCallback = intcommitlog.WithRolloverCallback

// WithoutDirectoryLock disables the lock file which prevents a second process from opening the same directory.
var WithoutDirectoryLock = intcommitlog.WithoutDirectoryLock
