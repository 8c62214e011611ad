package durability

import (
	"math"
	"sync"
	"time"
)

// SyncPolicyGrouped is flushing records to disk after some number of records were appended, or after some time
// has passed since the first record which is not yet flushed. This amortizes the cost of a flush over several
// records, at the price of records not being durable when the append returns.
//
// All state besides the background task is guarded by the lock of the Flusher.
type SyncPolicyGrouped struct {
	flusher Flusher

	flushBatchSize int
	flushInterval  time.Duration

	flushTimer        *time.Timer
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup
	closeOnce         sync.Once

	pending          int
	flushTimerActive bool
}

// SyncPolicyGrouped implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyGrouped)(nil)

// NewSyncPolicyGrouped creates a new SyncPolicyGrouped and starts its background task.
func NewSyncPolicyGrouped(flusher Flusher, flushBatchSize int, flushInterval time.Duration) *SyncPolicyGrouped {
	newPolicy := SyncPolicyGrouped{
		flusher:        flusher,
		flushBatchSize: max(flushBatchSize, 1),
		flushInterval:  max(flushInterval, 100*time.Microsecond),
		flushTimer:     time.NewTimer(math.MaxInt64),
		shutdown:       make(chan struct{}),
	}
	newPolicy.shutdownWaitGroup.Add(1)
	go newPolicy.backgroundTask()
	return &newPolicy
}

func (s *SyncPolicyGrouped) EntryAppended(_ uint64) (bool, error) {
	s.pending++
	if s.pending >= s.flushBatchSize {
		// The flusher reports back through Flushed, which resets the pending count.
		if err := s.flusher.FlushLocked(); err != nil {
			return false, err
		}
		return true, nil
	}

	if !s.flushTimerActive {
		s.flushTimer.Reset(s.flushInterval)
		s.flushTimerActive = true
	}
	return false, nil
}

func (s *SyncPolicyGrouped) Flushed() {
	s.pending = 0
	if s.flushTimerActive {
		s.flushTimer.Stop()
		s.flushTimerActive = false
	}
}

// Pending returns the number of records which are not yet flushed. Must be called with the lock held.
func (s *SyncPolicyGrouped) Pending() int {
	return s.pending
}

func (s *SyncPolicyGrouped) Close() error {
	s.closeOnce.Do(func() {
		// Shutdown and wait for the background task to exit.
		close(s.shutdown)
		s.shutdownWaitGroup.Wait()
		s.flushTimer.Stop()
	})
	return nil
}

func (s *SyncPolicyGrouped) backgroundTask() {
	defer s.shutdownWaitGroup.Done()
	for {
		select {
		case <-s.flushTimer.C:
			s.backgroundFlush()
		case <-s.shutdown:
			return
		}
	}
}

func (s *SyncPolicyGrouped) backgroundFlush() {
	s.flusher.Lock()
	defer s.flusher.Unlock()

	if s.pending == 0 {
		// An inline flush came first.
		s.flushTimerActive = false
		return
	}

	// Errors are reported by the flusher to everybody waiting for the records. Flushed resets the timer state.
	_ = s.flusher.FlushLocked()
}
