package commitlog

import (
	"time"

	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/index"
	"github.com/backbone81/durable-log/internal/segment"
)

// RecoveryReport describes what was found while recovering the commit log.
type RecoveryReport struct {
	// Segments is the number of segments found.
	Segments int

	// Records is the number of valid records found.
	Records int

	// RemovedTemporaryFiles lists segment files whose creation was interrupted.
	RemovedTemporaryFiles []string

	// TornTail is set when the last segment ended with an invalid or incomplete record which was cut off.
	TornTail *TornTail

	// Duration is the time the recovery took.
	Duration time.Duration
}

// TornTail describes the part of the last segment which was cut off during recovery.
type TornTail struct {
	// Segment is the identifier of the last segment.
	Segment uint64

	// Position is the byte position the segment was truncated to.
	Position int64

	// Discarded is the number of bytes which were cut off.
	Discarded int64

	// Cause describes why the record at Position was rejected.
	Cause error
}

// recover opens all segments, rebuilds the index and cuts off a torn tail of the last segment.
func (l *Log) recover() error {
	start := time.Now()

	removed, err := segment.RemoveTemporaryFiles(l.directory)
	if err != nil {
		return err
	}
	for _, name := range removed {
		l.logger.Warn("Removed segment file whose creation was interrupted.", zap.String("file", name))
	}
	l.recovery.RemovedTemporaryFiles = removed

	ids, err := segment.GetSegments(l.directory)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		first, err := segment.Create(l.directory, 0, l.config.segmentOptions...)
		if err != nil {
			return err
		}
		l.segments = []*segment.Segment{first}
		l.watermark = durability.NewWatermark(0)
		l.nextOffset.Store(0)
		l.recovery.Segments = 1
		l.recovery.Duration = time.Since(start)
		l.logger.Info("Created a new commit log.")
		return nil
	}

	for i, id := range ids {
		var seg *segment.Segment
		if i < len(ids)-1 {
			seg, err = segment.OpenSealed(l.directory, id)
		} else {
			seg, err = segment.Open(l.directory, id, l.config.segmentOptions...)
		}
		if err != nil {
			return err
		}
		l.segments = append(l.segments, seg)
	}

	sources := make([]index.Source, 0, len(l.segments))
	for _, seg := range l.segments {
		sources = append(sources, seg)
	}
	result, err := l.index.Rebuild(sources)
	if err != nil {
		return err
	}

	last := l.activeSegment()
	for i, snapshot := range result.Snapshots[:len(result.Snapshots)-1] {
		l.segments[i].Adopt(snapshot)
	}
	if result.Tail != nil {
		l.logger.Warn("Cutting off the torn tail of the last segment.",
			zap.Uint64("segment", result.Tail.Segment),
			zap.Int64("position", result.Tail.Position),
			zap.Int64("discarded_bytes", result.Tail.Discarded),
			zap.NamedError("cause", result.Tail.Cause),
		)
		l.recovery.TornTail = &TornTail{
			Segment:   result.Tail.Segment,
			Position:  result.Tail.Position,
			Discarded: result.Tail.Discarded,
			Cause:     result.Tail.Cause,
		}
		TornTailTotal.Inc()
	}
	if err := last.Truncate(result.Snapshots[len(result.Snapshots)-1]); err != nil {
		return err
	}
	l.durable = last.Snapshot()

	nextOffset := last.ID()
	var end uint64
	if highest, ok := l.index.HighestOffset(); ok {
		nextOffset = max(nextOffset, highest+1)
		end = highest + 1
	}
	l.nextOffset.Store(nextOffset)
	l.recoveredOffset = nextOffset
	l.watermark = durability.NewWatermark(end)

	l.recovery.Segments = len(l.segments)
	l.recovery.Records = l.index.Len()
	l.recovery.Duration = time.Since(start)
	l.logger.Info("Recovered the commit log.",
		zap.Int("segments", l.recovery.Segments),
		zap.Int("records", l.recovery.Records),
		zap.Uint64("next_offset", nextOffset),
		zap.Bool("torn_tail", l.recovery.TornTail != nil),
		zap.Duration("duration", l.recovery.Duration),
	)
	return nil
}
