package durability

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// MaxAbandonedRanges limits how many abandoned ranges are remembered. The oldest ranges are forgotten first.
const MaxAbandonedRanges = 1024

// abandonedRange is a range of offsets which will never become durable.
type abandonedRange struct {
	from uint64
	to   uint64
	err  error
}

// Watermark tracks up to which offset records are durable, and lets callers wait for an offset to become durable.
//
// The watermark is stored as the end of the durable range, which is one above the highest durable offset. An end of
// zero means nothing is durable.
//
// Watermark is safe to use from multiple Go routines concurrently.
type Watermark struct {
	end atomic.Uint64

	mutex     sync.Mutex
	notify    chan struct{}
	abandoned []abandonedRange
	closedErr error
}

// NewWatermark creates a watermark with the given end.
func NewWatermark(end uint64) *Watermark {
	watermark := &Watermark{
		notify: make(chan struct{}),
	}
	watermark.end.Store(end)
	return watermark
}

// End returns one above the highest durable offset. Zero means nothing is durable.
func (w *Watermark) End() uint64 {
	return w.end.Load()
}

// Load returns the highest durable offset and false if nothing is durable.
func (w *Watermark) Load() (uint64, bool) {
	end := w.end.Load()
	if end == 0 {
		return 0, false
	}
	return end - 1, true
}

// Durable reports if the record with the given offset is durable.
func (w *Watermark) Durable(offset uint64) bool {
	return offset < w.end.Load()
}

// Advance moves the end of the durable range forward. Moving backward is ignored.
func (w *Watermark) Advance(end uint64) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if end <= w.end.Load() {
		return
	}
	w.end.Store(end)
	w.wakeLocked()
}

// Abandon marks the offsets from..to (inclusive) as never becoming durable. Everybody waiting for one of them receives
// the error. Ranges must be abandoned in ascending order. Only the latest MaxAbandonedRanges ranges are remembered,
// waiting for an offset of a forgotten range is not reported as failed.
func (w *Watermark) Abandon(from uint64, to uint64, err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if len(w.abandoned) >= MaxAbandonedRanges {
		w.abandoned = append(w.abandoned[:0], w.abandoned[len(w.abandoned)-MaxAbandonedRanges+1:]...)
	}
	w.abandoned = append(w.abandoned, abandonedRange{
		from: from,
		to:   to,
		err:  err,
	})
	w.wakeLocked()
}

// Close wakes up everybody waiting for offsets which are not durable. They receive the error.
func (w *Watermark) Close(err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closedErr != nil {
		return
	}
	w.closedErr = err
	w.wakeLocked()
}

// Wait blocks until the record with the given offset is durable. Returns the flush error when the offset was
// abandoned, the close error when the watermark was closed before, or the context error.
func (w *Watermark) Wait(ctx context.Context, offset uint64) error {
	for {
		w.mutex.Lock()
		if err := w.abandonedLocked(offset); err != nil {
			w.mutex.Unlock()
			return err
		}
		if offset < w.end.Load() {
			w.mutex.Unlock()
			return nil
		}
		if w.closedErr != nil {
			w.mutex.Unlock()
			return w.closedErr
		}
		notify := w.notify
		w.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}

func (w *Watermark) abandonedLocked(offset uint64) error {
	i := sort.Search(len(w.abandoned), func(i int) bool {
		return w.abandoned[i].to >= offset
	})
	if i < len(w.abandoned) && w.abandoned[i].from <= offset {
		return w.abandoned[i].err
	}
	return nil
}

func (w *Watermark) wakeLocked() {
	close(w.notify)
	w.notify = make(chan struct{})
}
