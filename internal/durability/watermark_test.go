package durability_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/durability"
)

var _ = Describe("Watermark", func() {
	It("should report nothing durable initially", func() {
		watermark := durability.NewWatermark(0)
		_, ok := watermark.Load()
		Expect(ok).To(BeFalse())
		Expect(watermark.Durable(0)).To(BeFalse())
	})

	It("should advance but never move backward", func() {
		watermark := durability.NewWatermark(3)
		highest, ok := watermark.Load()
		Expect(ok).To(BeTrue())
		Expect(highest).To(Equal(uint64(2)))

		watermark.Advance(10)
		Expect(watermark.End()).To(Equal(uint64(10)))
		watermark.Advance(5)
		Expect(watermark.End()).To(Equal(uint64(10)))
		Expect(watermark.Durable(9)).To(BeTrue())
		Expect(watermark.Durable(10)).To(BeFalse())
	})

	It("should return immediately for durable offsets", func() {
		watermark := durability.NewWatermark(5)
		Expect(watermark.Wait(context.Background(), 4)).To(Succeed())
	})

	It("should wake up waiters when advancing", func() {
		watermark := durability.NewWatermark(0)
		done := make(chan error, 1)
		go func() {
			done <- watermark.Wait(context.Background(), 3)
		}()

		watermark.Advance(2)
		Consistently(done, 20*time.Millisecond).ShouldNot(Receive())
		watermark.Advance(4)
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should hand the error to waiters of abandoned offsets", func() {
		watermark := durability.NewWatermark(0)
		flushErr := errors.New("flush failed")
		done := make(chan error, 1)
		go func() {
			done <- watermark.Wait(context.Background(), 1)
		}()

		watermark.Abandon(0, 2, flushErr)
		Eventually(done).Should(Receive(MatchError(flushErr)))

		// Abandoned offsets stay failed, even when later offsets become durable.
		watermark.Advance(10)
		Expect(watermark.Wait(context.Background(), 2)).To(MatchError(flushErr))
		Expect(watermark.Wait(context.Background(), 3)).To(Succeed())
	})

	It("should find the matching range among many abandoned ranges", func() {
		watermark := durability.NewWatermark(0)
		errs := make([]error, 10)
		for i := range errs {
			errs[i] = fmt.Errorf("flush %d failed", i)
			watermark.Abandon(uint64(i*10), uint64(i*10+4), errs[i])
		}
		watermark.Advance(100)

		Expect(watermark.Wait(context.Background(), 0)).To(MatchError(errs[0]))
		Expect(watermark.Wait(context.Background(), 34)).To(MatchError(errs[3]))
		Expect(watermark.Wait(context.Background(), 92)).To(MatchError(errs[9]))
		Expect(watermark.Wait(context.Background(), 35)).To(Succeed())
		Expect(watermark.Wait(context.Background(), 99)).To(Succeed())
	})

	It("should forget the oldest abandoned ranges", func() {
		watermark := durability.NewWatermark(0)
		flushErr := errors.New("flush failed")
		for i := range durability.MaxAbandonedRanges + 1 {
			watermark.Abandon(uint64(i*2), uint64(i*2), flushErr)
		}
		watermark.Advance(uint64(durability.MaxAbandonedRanges*2 + 2))

		Expect(watermark.Wait(context.Background(), 0)).To(Succeed())
		Expect(watermark.Wait(context.Background(), 2)).To(MatchError(flushErr))
		Expect(watermark.Wait(context.Background(), uint64(durability.MaxAbandonedRanges*2))).To(MatchError(flushErr))
	})

	It("should honor the context", func() {
		watermark := durability.NewWatermark(0)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		Expect(watermark.Wait(ctx, 0)).To(MatchError(context.DeadlineExceeded))
	})

	It("should release waiters on close", func() {
		watermark := durability.NewWatermark(0)
		closeErr := errors.New("closed")
		done := make(chan error, 1)
		go func() {
			done <- watermark.Wait(context.Background(), 0)
		}()

		watermark.Close(closeErr)
		Eventually(done).Should(Receive(MatchError(closeErr)))
		Expect(watermark.Wait(context.Background(), 5)).To(MatchError(closeErr))
	})
})
