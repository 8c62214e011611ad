package commitlog_test

import (
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

var _ = Describe("Inspect", func() {
	var dir string

	BeforeEach(func() {
		dir = makeTempDir()
		commitLog, err := commitlog.Open(dir,
			commitlog.WithDurabilityMode(durability.ModeSync),
			commitlog.WithSegmentSizeLimit(2*frameSize),
		)
		Expect(err).ToNot(HaveOccurred())
		mustAppend(commitLog, "foo", "bar", "baz")
		Expect(commitLog.Close()).To(Succeed())
	})

	It("should visit every record", func() {
		visited := make(map[uint64]string)
		reports, err := commitlog.Inspect(dir, func(segmentID uint64, value segment.ScanValue) error {
			visited[value.Header.Offset] = string(value.Payload)
			return nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(visited).To(Equal(map[uint64]string{0: "foo", 1: "bar", 2: "baz"}))

		Expect(reports).To(HaveLen(2))
		Expect(reports[0].ID).To(BeZero())
		Expect(reports[0].Records).To(Equal(int64(2)))
		Expect(reports[0].FileSize).To(Equal(int64(2 * frameSize)))
		Expect(reports[0].Last).To(BeFalse())
		Expect(reports[1].ID).To(Equal(uint64(2)))
		Expect(reports[1].Last).To(BeTrue())
		Expect(reports[1].TailCause).ToNot(HaveOccurred())
	})

	It("should stop when the visitor fails", func() {
		errStop := errors.New("stop")
		_, err := commitlog.Inspect(dir, func(segmentID uint64, value segment.ScanValue) error {
			return errStop
		})
		Expect(err).To(MatchError(errStop))
	})

	It("should report a torn tail of the last segment without failing", func() {
		Expect(os.Truncate(segmentFilePath(dir, 2), frameSize-1)).To(Succeed())

		reports, err := commitlog.Verify(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(reports[1].TailCause).To(MatchError(logerr.ErrInvalidFormat))
		Expect(reports[1].Size).To(BeZero())
		Expect(reports[1].FileSize).To(Equal(int64(frameSize - 1)))

		// Nothing was modified.
		fileInfo, err := os.Stat(segmentFilePath(dir, 2))
		Expect(err).ToNot(HaveOccurred())
		Expect(fileInfo.Size()).To(Equal(int64(frameSize - 1)))
	})

	It("should fail on corruption of a sealed segment", func() {
		flipByte(segmentFilePath(dir, 0), encoding.HeaderSize)

		reports, err := commitlog.Verify(dir)
		Expect(err).To(MatchError(logerr.ErrCorruption))
		Expect(err).To(MatchError(logerr.ErrChecksumMismatch))
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].Records).To(BeZero())
	})
})
