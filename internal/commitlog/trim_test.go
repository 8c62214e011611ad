package commitlog_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/logerr"
)

var _ = Describe("Trimming", func() {
	var dir string
	var commitLog *commitlog.Log

	options := []commitlog.Option{
		commitlog.WithDurabilityMode(durability.ModeSync),
		commitlog.WithSegmentSizeLimit(2 * frameSize),
	}

	BeforeEach(func() {
		dir = makeTempDir()
		commitLog = mustOpen(dir, options...)

		// Results in the segments 0 (0, 1), 2 (2, 3) and 4 (4, 5).
		mustAppend(commitLog, "foo", "bar", "baz", "qux", "quu", "quz")
	})

	It("should delete segments whose records are all below the offset", func() {
		Expect(commitLog.TrimBefore(3)).To(Equal([]uint64{0}))
		Expect(segmentFilePath(dir, 0)).ToNot(BeAnExistingFile())
		Expect(segmentFilePath(dir, 2)).To(BeAnExistingFile())

		Expect(commitLog.Read(0)).Error().To(MatchError(logerr.ErrNotFound))
		Expect(commitLog.Read(2)).To(Equal([]byte("baz")))
		Expect(commitLog.ReadFrom(1)).Error().To(MatchError(logerr.ErrNotFound))
		Expect(readAll(commitLog, 2)).To(HaveLen(4))

		oldestOffset, ok := commitLog.OldestOffset()
		Expect(ok).To(BeTrue())
		Expect(oldestOffset).To(Equal(uint64(2)))
	})

	It("should do nothing when no segment qualifies", func() {
		Expect(commitLog.TrimBefore(1)).To(BeEmpty())
		Expect(commitLog.TrimBefore(0)).To(BeEmpty())
		Expect(commitLog.Segments()).To(HaveLen(3))
	})

	It("should never delete the active segment", func() {
		Expect(commitLog.TrimBefore(100)).To(Equal([]uint64{0, 2}))
		segments := commitLog.Segments()
		Expect(segments).To(HaveLen(1))
		Expect(segments[0].ID).To(Equal(uint64(4)))
		Expect(readAll(commitLog, 4)).To(Equal(map[uint64]string{4: "quu", 5: "quz"}))

		// Appending continues as usual.
		Expect(commitLog.Append([]byte("grault"))).To(HaveField("Offset", uint64(6)))
	})

	It("should keep the trimmed state after reopening", func() {
		Expect(commitLog.TrimBefore(4)).To(Equal([]uint64{0, 2}))
		Expect(commitLog.Close()).To(Succeed())

		commitLog = mustOpen(dir, options...)
		Expect(commitLog.NextOffset()).To(Equal(uint64(6)))
		oldestOffset, ok := commitLog.OldestOffset()
		Expect(ok).To(BeTrue())
		Expect(oldestOffset).To(Equal(uint64(4)))
		Expect(commitLog.Read(3)).Error().To(MatchError(logerr.ErrNotFound))
	})

	It("should fail an iteration which runs into trimmed records", func() {
		iterator, err := commitLog.ReadFrom(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(iterator.Next()).To(BeTrue())

		Expect(commitLog.TrimBefore(4)).To(HaveLen(2))
		Expect(iterator.Next()).To(BeFalse())
		Expect(iterator.Err()).To(MatchError(logerr.ErrNotFound))
	})
})
