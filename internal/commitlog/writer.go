package commitlog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

// maxRetainedFrameBuffer is the biggest scratch buffer kept between appends. Bigger records get a buffer of their own.
const maxRetainedFrameBuffer = 1024 * 1024

// Append appends the given payload as a new record to the commit log. It will roll over to the next segment before
// appending if the record would make the active segment exceed the segment size limit.
//
// The record is visible to readers once it is durable. In sync mode, this is the case when Append returns. In grouped
// mode, the result reports if the record is already durable.
func (l *Log) Append(payload []byte) (AppendResult, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.checkReady("append"); err != nil {
		return AppendResult{}, err
	}
	if l.brokenErr != nil {
		return AppendResult{}, l.brokenErr
	}

	offset := l.nextOffset.Load()
	frame, err := encoding.AppendFrame(l.frameBuffer[:0], offset, payload)
	if err != nil {
		return AppendResult{}, err
	}
	if cap(frame) <= maxRetainedFrameBuffer {
		l.frameBuffer = frame
	}

	if err := l.rolloverIfNeeded(int64(len(frame)), offset); err != nil {
		return AppendResult{}, err
	}

	active := l.activeSegment()
	position, err := active.Append(frame)
	if err != nil {
		// Parts of the record might have reached the file. The offset is used up, and everything pending is rolled
		// back together with it.
		l.nextOffset.Store(offset + 1)
		l.markPending(offset)
		return AppendResult{}, l.abandonLocked(err)
	}
	l.nextOffset.Store(offset + 1)
	l.index.Add(offset, active.ID(), position)
	l.markPending(offset)

	AppendTotal.Inc()
	AppendBytes.Add(float64(len(payload)))

	durable, err := l.syncPolicy.EntryAppended(offset)
	if err != nil {
		return AppendResult{}, err
	}
	return AppendResult{
		Offset:  offset,
		Durable: durable,
	}, nil
}

// AppendDurable appends the given payload and waits until the record is durable.
func (l *Log) AppendDurable(ctx context.Context, payload []byte) (uint64, error) {
	result, err := l.Append(payload)
	if err != nil {
		return 0, err
	}
	if result.Durable {
		return result.Offset, nil
	}
	if err := l.WaitDurable(ctx, result.Offset); err != nil {
		return result.Offset, err
	}
	return result.Offset, nil
}

// WaitDurable blocks until the record with the given offset is durable. Returns the flush error when the record could
// not be flushed, and the context error when the context is done first. Offsets which were never written, including
// the ones skipped by an earlier process, result in a NotFound error.
func (l *Log) WaitDurable(ctx context.Context, offset uint64) error {
	if offset >= l.NextOffset() {
		return logerr.NotFound("wait durable", offset)
	}
	// Offsets handed out by an earlier process are durable when they exist at all.
	if offset >= l.recoveredOffset {
		if err := l.watermark.Wait(ctx, offset); err != nil {
			return err
		}
	}
	return l.checkWritten(offset)
}

// checkWritten reports a NotFound error when no record with the given offset was written. Trimmed records count as
// written.
func (l *Log) checkWritten(offset uint64) error {
	l.segmentsMutex.RLock()
	defer l.segmentsMutex.RUnlock()

	if offset < l.retainedFromLocked() {
		return nil
	}
	if _, ok := l.index.Lookup(offset); !ok {
		return logerr.NotFound("wait durable", offset)
	}
	return nil
}

// Sync flushes all pending records to stable storage.
func (l *Log) Sync() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.checkReady("sync"); err != nil {
		return err
	}
	return l.flushLocked()
}

func (l *Log) markPending(offset uint64) {
	if !l.hasPending {
		l.pendingFrom = offset
		l.hasPending = true
	}
	l.lastWritten = offset
}

// flushLocked flushes the active segment and advances the commit pointer. On failure, the pending records are rolled
// back. Must be called with mutex held.
func (l *Log) flushLocked() error {
	defer l.syncPolicy.Flushed()

	if l.brokenErr != nil {
		return l.brokenErr
	}
	if !l.hasPending {
		return nil
	}

	start := time.Now()
	active := l.activeSegment()
	if err := active.Flush(); err != nil {
		FlushFailureTotal.Inc()
		return l.abandonLocked(err)
	}

	FlushTotal.Inc()
	FlushDuration.Observe(time.Since(start).Seconds())
	FlushBatchSize.Observe(float64(l.lastWritten - l.pendingFrom + 1))

	l.durable = active.Snapshot()
	l.hasPending = false
	l.watermark.Advance(l.lastWritten + 1)
	return nil
}

// abandonLocked gives up on the pending records after a failed write or flush. Their offsets are never handed out
// again. Everybody waiting for them receives the error. The active segment is truncated back to the last durable
// position. Must be called with mutex held.
func (l *Log) abandonLocked(cause error) error {
	from, to := l.pendingFrom, l.lastWritten
	l.hasPending = false
	l.syncPolicy.Flushed()

	l.watermark.Abandon(from, to, cause)
	AbandonedTotal.Add(float64(to - from + 1))

	// Index entries above the commit pointer are exactly the pending records.
	if highest, ok := l.watermark.Load(); ok {
		l.index.TruncateAfter(highest)
	} else {
		l.index.TruncateAll()
	}

	active := l.activeSegment()
	if err := active.Truncate(l.durable); err != nil {
		l.brokenErr = errors.Join(cause, err)
		l.logger.Error("Rolling back records which could not be flushed failed. No more writes are accepted.",
			zap.Uint64("segment", active.ID()),
			zap.Uint64("from_offset", from),
			zap.Uint64("to_offset", to),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return l.brokenErr
	}
	l.rolloverRequired = true

	l.logger.Error("Records could not be flushed and were rolled back.",
		zap.Uint64("segment", active.ID()),
		zap.Uint64("from_offset", from),
		zap.Uint64("to_offset", to),
		zap.Error(cause),
	)
	return cause
}

// rolloverIfNeeded will check if the record would make the active segment exceed the segment size limit and do a
// rollover then. An empty segment always takes the record, so that records bigger than the limit are not split.
func (l *Log) rolloverIfNeeded(frameSize int64, offset uint64) error {
	active := l.activeSegment()
	if !l.rolloverRequired && !active.Sealed() && (active.Empty() || active.Size()+frameSize <= l.config.segmentSizeLimit) {
		return nil
	}
	return l.rollover(offset)
}

// rollover seals the active segment and creates a new one, which starts with the given offset.
func (l *Log) rollover(offset uint64) error {
	RolloverTotal.Inc()
	start := time.Now()

	previous := l.activeSegment()
	if !previous.Sealed() {
		if err := l.flushLocked(); err != nil {
			return err
		}
		if err := previous.Seal(); err != nil {
			return err
		}
	}

	next, err := segment.Create(l.directory, offset, l.config.segmentOptions...)
	if err != nil {
		// The previous segment stays sealed. The next append tries again.
		return err
	}

	l.segmentsMutex.Lock()
	l.segments = append(l.segments, next)
	l.segmentsMutex.Unlock()
	l.durable = segment.Snapshot{}
	l.rolloverRequired = false

	l.config.rolloverCallback(previous.ID(), next.ID())

	duration := time.Since(start)
	l.logger.Debug("Rolled over into a new segment.",
		zap.Uint64("previous_segment", previous.ID()),
		zap.Uint64("next_segment", next.ID()),
		zap.Duration("duration", duration),
	)
	if duration > time.Second {
		l.logger.Warn("Segment rollover was too slow.", zap.Duration("duration", duration))
	}
	RolloverDuration.Observe(duration.Seconds())
	return nil
}
