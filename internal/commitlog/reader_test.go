package commitlog_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/logerr"
)

var _ = Describe("Reading", func() {
	var dir string

	BeforeEach(func() {
		dir = makeTempDir()
	})

	It("should not return records appended after the iteration started", func() {
		commitLog := mustOpen(dir, commitlog.WithDurabilityMode(durability.ModeSync))
		mustAppend(commitLog, "foo", "bar", "baz")

		iterator, err := commitLog.ReadFrom(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(iterator.End()).To(Equal(uint64(3)))
		mustAppend(commitLog, "qux")

		var records []commitlog.Record
		for iterator.Next() {
			records = append(records, iterator.Value())
		}
		Expect(iterator.Err()).ToNot(HaveOccurred())
		Expect(records).To(Equal([]commitlog.Record{
			{Offset: 0, Payload: []byte("foo")},
			{Offset: 1, Payload: []byte("bar")},
			{Offset: 2, Payload: []byte("baz")},
		}))
		Expect(iterator.Next()).To(BeFalse())
	})

	It("should resume an iteration at a given offset", func() {
		commitLog := mustOpen(dir,
			commitlog.WithDurabilityMode(durability.ModeSync),
			commitlog.WithSegmentSizeLimit(2*frameSize),
		)
		mustAppend(commitLog, "foo", "bar", "baz", "qux", "quu")

		Expect(readAll(commitLog, 3)).To(Equal(map[uint64]string{3: "qux", 4: "quu"}))
		Expect(readAll(commitLog, 5)).To(BeEmpty())
		Expect(readAll(commitLog, 100)).To(BeEmpty())
	})

	It("should report offsets which are not durable as not found", func() {
		commitLog := mustOpen(dir, commitlog.WithDurabilityMode(durability.ModeSync))
		mustAppend(commitLog, "foo")
		Expect(commitLog.Read(1)).Error().To(MatchError(logerr.ErrNotFound))
		Expect(commitLog.Read(1000)).Error().To(MatchError(logerr.ErrNotFound))
	})

	It("should detect bit rot on point reads", func() {
		commitLog := mustOpen(dir, commitlog.WithDurabilityMode(durability.ModeSync))
		mustAppend(commitLog, "foo", "bar")
		flipByte(segmentFilePath(dir, 0), frameSize+encoding.HeaderSize+1)

		Expect(commitLog.Read(0)).To(Equal([]byte("foo")))
		Expect(commitLog.Read(1)).Error().To(MatchError(logerr.ErrChecksumMismatch))

		iterator, err := commitLog.ReadFrom(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(iterator.Next()).To(BeTrue())
		Expect(iterator.Next()).To(BeFalse())
		Expect(iterator.Err()).To(MatchError(logerr.ErrChecksumMismatch))
	})

	It("should skip checksums on replay when told so", func() {
		commitLog := mustOpen(dir,
			commitlog.WithDurabilityMode(durability.ModeSync),
			commitlog.WithReplayChecksums(false),
		)
		mustAppend(commitLog, "foo", "bar")
		flipByte(segmentFilePath(dir, 0), frameSize+encoding.HeaderSize)

		Expect(commitLog.Read(1)).Error().To(MatchError(logerr.ErrChecksumMismatch))
		Expect(readAll(commitLog, 0)).To(Equal(map[uint64]string{0: "foo", 1: "car"}))
	})

	It("should return payloads owned by the caller", func() {
		commitLog := mustOpen(dir, commitlog.WithDurabilityMode(durability.ModeSync))
		mustAppend(commitLog, "foo")

		payload, err := commitLog.Read(0)
		Expect(err).ToNot(HaveOccurred())
		payload[0] = 'x'
		Expect(commitLog.Read(0)).To(Equal([]byte("foo")))
	})
})
