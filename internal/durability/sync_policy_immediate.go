package durability

// SyncPolicyImmediate is flushing the records to disk after every record. This reduces the chances of data loss
// because of hardware failure, but it has a negative impact on performance.
type SyncPolicyImmediate struct {
	flusher Flusher
}

// SyncPolicyImmediate implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyImmediate)(nil)

// NewSyncPolicyImmediate creates a new SyncPolicyImmediate.
func NewSyncPolicyImmediate(flusher Flusher) *SyncPolicyImmediate {
	return &SyncPolicyImmediate{
		flusher: flusher,
	}
}

func (s *SyncPolicyImmediate) EntryAppended(_ uint64) (bool, error) {
	if err := s.flusher.FlushLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SyncPolicyImmediate) Flushed() {}

func (s *SyncPolicyImmediate) Close() error {
	return nil
}
