package commitlog

import "github.com/backbone81/durable-log/internal/logerr"

// Error carries the kind of a failure together with the segment, position and offset it happened at. Use errors.As to
// access it.
type Error = logerr.Error

// Match these with errors.Is.
var (
	ErrIo               = logerr.ErrIo
	ErrInvalidFormat    = logerr.ErrInvalidFormat
	ErrChecksumMismatch = logerr.ErrChecksumMismatch
	ErrNotFound         = logerr.ErrNotFound
	ErrClosed           = logerr.ErrClosed
	ErrCorruption       = logerr.ErrCorruption
)
