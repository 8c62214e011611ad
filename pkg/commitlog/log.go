package commitlog

import intcommitlog "github.com/backbone81/durable-log/internal/commitlog"

// Log provides the main functionality of the commit log. It abstracts away the fact that the records are distributed
// over several segment files and does rollover into new segments as necessary.
//
// Log is safe to use from multiple Go routines concurrently.
type Log = intcommitlog.Log

// State is the lifecycle state of a Log.
type State = intcommitlog.State

const (
	StateUninitialized = intcommitlog.StateUninitialized
	StateRecovering    = intcommitlog.StateRecovering
	StateReady         = intcommitlog.StateReady
	StateClosed        = intcommitlog.StateClosed
)

// AppendResult is the result of appending a record.
type AppendResult = intcommitlog.AppendResult

// RecoveryReport describes what was found while recovering the commit log.
type RecoveryReport = intcommitlog.RecoveryReport

// TornTail describes the part of the last segment which was cut off during recovery.
type TornTail = intcommitlog.TornTail

// Open opens the commit log in the given directory and recovers its state. The directory is created if it does not
// exist.
var Open = intcommitlog.Open

// ErrLocked is returned by Open when another process holds the lock of the directory.
var ErrLocked = intcommitlog.ErrLocked
