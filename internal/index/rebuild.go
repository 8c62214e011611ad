package index

import (
	"errors"

	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

// Source is a segment the index can be rebuilt from.
type Source interface {
	ID() uint64
	Scan(minOffset uint64) *segment.Scanner
}

// Tail describes the invalid or incomplete frames found at the end of the final source.
type Tail struct {
	// Segment is the identifier of the final source.
	Segment uint64

	// Position is the byte position of the first invalid frame. The segment needs to be truncated to it.
	Position int64

	// Discarded is the number of bytes behind Position.
	Discarded int64

	// Cause describes why the frame at Position was rejected.
	Cause error
}

// RebuildResult describes what Rebuild found.
type RebuildResult struct {
	// Snapshots holds the valid extent of every source, in the order of the sources.
	Snapshots []segment.Snapshot

	// Tail is set when the final source ended with an invalid or incomplete frame.
	Tail *Tail
}

// Rebuild replaces the content of the index with the records found in the sources. The sources need to be ordered by
// their identifier.
//
// Every source but the last needs to be valid up to its end. An invalid frame in such a source is corruption and
// returned as a fatal error. In the last source, an invalid frame is taken as a write which was torn by a crash. The
// scan stops there and the result describes where the source needs to be truncated.
func (i *Index) Rebuild(sources []Source) (RebuildResult, error) {
	i.TruncateAll()

	result := RebuildResult{
		Snapshots: make([]segment.Snapshot, 0, len(sources)),
	}
	for sourceIndex, source := range sources {
		minOffset := source.ID()
		if highest, ok := i.HighestOffset(); ok {
			minOffset = max(minOffset, highest+1)
		}

		scanner := source.Scan(minOffset)
		for scanner.Next() {
			value := scanner.Value()
			i.Add(value.Header.Offset, source.ID(), value.Position)
		}
		if err := scanner.Err(); err != nil {
			return result, asLogError(err, logerr.KindIo).WithSegment(source.ID())
		}
		result.Snapshots = append(result.Snapshots, scanner.Snapshot())

		if !scanner.Incomplete() {
			continue
		}
		if sourceIndex < len(sources)-1 {
			return result, asLogError(scanner.TailCause(), logerr.KindInvalidFormat).
				WithSegment(source.ID()).
				WithPosition(scanner.Position()).
				AsFatal()
		}
		result.Tail = &Tail{
			Segment:   source.ID(),
			Position:  scanner.Position(),
			Discarded: scanner.Size() - scanner.Position(),
			Cause:     scanner.TailCause(),
		}
	}
	return result, nil
}

// asLogError returns the *logerr.Error in the chain of err, or wraps err with the given kind.
func asLogError(err error, kind logerr.Kind) *logerr.Error {
	var logErr *logerr.Error
	if errors.As(err, &logErr) {
		return logErr
	}
	return logerr.New(kind, "rebuild index", err)
}
