package durability_test

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/durability"
)

// countingFlusher counts the flushes and reports them back to the policy like the commit log does.
type countingFlusher struct {
	sync.Mutex

	policy  durability.SyncPolicy
	flushes int
	err     error
}

func (f *countingFlusher) FlushLocked() error {
	defer f.policy.Flushed()
	if f.err != nil {
		return f.err
	}
	f.flushes++
	return nil
}

func (f *countingFlusher) Flushes() int {
	f.Lock()
	defer f.Unlock()

	return f.flushes
}

// appendEntry simulates an append of the commit log.
func (f *countingFlusher) appendEntry(offset uint64) (bool, error) {
	f.Lock()
	defer f.Unlock()

	return f.policy.EntryAppended(offset)
}

var _ = Describe("SyncPolicy", func() {
	DescribeTable("parsing modes",
		func(name string, expected durability.Mode) {
			Expect(durability.ParseMode(name)).To(Equal(expected))
		},
		Entry("When the mode is sync", "sync", durability.ModeSync),
		Entry("When the mode is grouped", "grouped", durability.ModeGrouped),
		Entry("When the mode is upper case", "GROUPED", durability.ModeGrouped),
	)

	It("should fail parsing an unknown mode", func() {
		Expect(durability.ParseMode("periodic")).Error().To(MatchError(durability.ErrModeUnsupported))
	})

	It("should fail creating a policy for an unknown mode", func() {
		Expect(durability.GetSyncPolicy(durability.Mode(42), &countingFlusher{}, durability.Config{})).
			Error().To(MatchError(durability.ErrModeUnsupported))
	})

	for _, mode := range durability.Modes {
		It("should create a policy for mode "+mode.String(), func() {
			policy, err := durability.GetSyncPolicy(mode, &countingFlusher{}, durability.Config{})
			Expect(err).ToNot(HaveOccurred())
			Expect(policy.Close()).To(Succeed())
		})
	}

	Context("Immediate", func() {
		It("should flush on every entry", func() {
			flusher := &countingFlusher{}
			flusher.policy = durability.NewSyncPolicyImmediate(flusher)

			for offset := range uint64(3) {
				Expect(flusher.appendEntry(offset)).To(BeTrue())
			}
			Expect(flusher.Flushes()).To(Equal(3))
			Expect(flusher.policy.Close()).To(Succeed())
		})

		It("should report flush errors", func() {
			flusher := &countingFlusher{err: errors.New("disk on fire")}
			flusher.policy = durability.NewSyncPolicyImmediate(flusher)

			durable, err := flusher.appendEntry(0)
			Expect(err).To(MatchError("disk on fire"))
			Expect(durable).To(BeFalse())
		})
	})

	Context("Grouped", func() {
		It("should flush inline when the batch is full", func() {
			flusher := &countingFlusher{}
			policy := durability.NewSyncPolicyGrouped(flusher, 3, time.Hour)
			flusher.policy = policy
			defer func() {
				Expect(policy.Close()).To(Succeed())
			}()

			Expect(flusher.appendEntry(0)).To(BeFalse())
			Expect(flusher.appendEntry(1)).To(BeFalse())
			Expect(flusher.appendEntry(2)).To(BeTrue())
			Expect(flusher.Flushes()).To(Equal(1))
			Expect(flusher.appendEntry(3)).To(BeFalse())
			Expect(flusher.Flushes()).To(Equal(1))
		})

		It("should flush in the background after the interval", func() {
			flusher := &countingFlusher{}
			policy := durability.NewSyncPolicyGrouped(flusher, 1000, 10*time.Millisecond)
			flusher.policy = policy
			defer func() {
				Expect(policy.Close()).To(Succeed())
			}()

			Expect(flusher.appendEntry(0)).To(BeFalse())
			Expect(flusher.appendEntry(1)).To(BeFalse())
			Eventually(flusher.Flushes).Should(Equal(1))
			Consistently(flusher.Flushes, 50*time.Millisecond).Should(Equal(1))

			flusher.Lock()
			Expect(policy.Pending()).To(BeZero())
			flusher.Unlock()

			Expect(flusher.appendEntry(2)).To(BeFalse())
			Eventually(flusher.Flushes).Should(Equal(2))
		})

		It("should not flush in the background when nothing is pending", func() {
			flusher := &countingFlusher{}
			policy := durability.NewSyncPolicyGrouped(flusher, 1000, time.Millisecond)
			flusher.policy = policy

			Consistently(flusher.Flushes, 20*time.Millisecond).Should(BeZero())
			Expect(policy.Close()).To(Succeed())
			Expect(policy.Close()).To(Succeed())
		})

		It("should reset after a failed flush", func() {
			flusher := &countingFlusher{err: errors.New("disk on fire")}
			policy := durability.NewSyncPolicyGrouped(flusher, 2, time.Hour)
			flusher.policy = policy
			defer func() {
				Expect(policy.Close()).To(Succeed())
			}()

			Expect(flusher.appendEntry(0)).To(BeFalse())
			Expect(flusher.appendEntry(1)).Error().To(MatchError("disk on fire"))

			flusher.Lock()
			Expect(policy.Pending()).To(BeZero())
			flusher.err = nil
			flusher.Unlock()

			Expect(flusher.appendEntry(2)).To(BeFalse())
			Expect(flusher.appendEntry(3)).To(BeTrue())
		})
	})
})
