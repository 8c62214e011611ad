package index_test

import (
	"errors"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/encoding"
	"github.com/backbone81/durable-log/internal/index"
	"github.com/backbone81/durable-log/internal/logerr"
	"github.com/backbone81/durable-log/internal/segment"
)

var _ = Describe("Rebuild", func() {
	var dir string
	var segments []*segment.Segment

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-index-rebuild-*")
		Expect(err).ToNot(HaveOccurred())
		segments = nil
	})

	AfterEach(func() {
		for _, seg := range segments {
			Expect(seg.Close()).To(Succeed())
		}
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	createSegment := func(id uint64, offsets ...uint64) *segment.Segment {
		seg, err := segment.Create(dir, id)
		Expect(err).ToNot(HaveOccurred())
		for _, offset := range offsets {
			frame, err := encoding.Encode(offset, []byte(fmt.Sprintf("record %d", offset)))
			Expect(err).ToNot(HaveOccurred())
			Expect(seg.Append(frame)).Error().ToNot(HaveOccurred())
		}
		segments = append(segments, seg)
		return seg
	}

	sources := func() []index.Source {
		result := make([]index.Source, 0, len(segments))
		for _, seg := range segments {
			result = append(result, seg)
		}
		return result
	}

	It("should rebuild from complete segments", func() {
		createSegment(0, 0, 1, 2)
		createSegment(3, 3, 5)
		createSegment(6)

		idx := index.New()
		result, err := idx.Rebuild(sources())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Tail).To(BeNil())
		Expect(result.Snapshots).To(HaveLen(3))
		Expect(result.Snapshots[1].Records).To(Equal(int64(2)))
		Expect(result.Snapshots[2].Records).To(BeZero())

		Expect(idx.Len()).To(Equal(5))
		location, found := idx.Lookup(5)
		Expect(found).To(BeTrue())
		Expect(location.Segment).To(Equal(uint64(3)))
		Expect(location.Position).To(Equal(encoding.FrameSize(8)))
	})

	It("should report a torn tail in the final segment", func() {
		createSegment(0, 0, 1)
		last := createSegment(2, 2, 3)
		Expect(last.Flush()).To(Succeed())

		// Append half of a frame behind the valid records.
		frame, err := encoding.Encode(4, []byte("record 4"))
		Expect(err).ToNot(HaveOccurred())
		file, err := os.OpenFile(last.FilePath(), os.O_WRONLY|os.O_APPEND, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Write(frame[:20])).Error().ToNot(HaveOccurred())
		Expect(file.Close()).To(Succeed())

		reopened, err := segment.Open(dir, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(last.Close()).To(Succeed())
		segments[1] = reopened

		idx := index.New()
		result, err := idx.Rebuild(sources())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Tail).ToNot(BeNil())
		Expect(result.Tail.Segment).To(Equal(uint64(2)))
		Expect(result.Tail.Position).To(Equal(2 * encoding.FrameSize(8)))
		Expect(result.Tail.Discarded).To(Equal(int64(20)))
		Expect(result.Tail.Cause).To(MatchError(logerr.ErrInvalidFormat))

		highest, _ := idx.HighestOffset()
		Expect(highest).To(Equal(uint64(3)))
	})

	It("should fail on a torn frame in a sealed segment", func() {
		first := createSegment(0, 0, 1)
		createSegment(2, 2)
		Expect(first.Flush()).To(Succeed())

		data, err := os.ReadFile(first.FilePath())
		Expect(err).ToNot(HaveOccurred())
		data[len(data)-1] ^= 0x01
		Expect(os.WriteFile(first.FilePath(), data, 0o600)).To(Succeed())

		idx := index.New()
		_, err = idx.Rebuild(sources())
		Expect(err).To(MatchError(logerr.ErrCorruption))
		Expect(err).To(MatchError(logerr.ErrChecksumMismatch))

		var logErr *logerr.Error
		Expect(errors.As(err, &logErr)).To(BeTrue())
		Expect(logErr.Segment).To(Equal(uint64(0)))
		Expect(logErr.Position).To(Equal(encoding.FrameSize(8)))
		Expect(logErr.Fatal).To(BeTrue())
	})

	It("should fail when a sealed segment repeats offsets of its predecessor", func() {
		createSegment(0, 0, 1, 2)
		createSegment(2, 2, 3)
		createSegment(4, 4)

		idx := index.New()
		_, err := idx.Rebuild(sources())
		Expect(err).To(MatchError(logerr.ErrCorruption))
	})

	It("should replace the previous content", func() {
		createSegment(10, 10, 11)

		idx := index.New()
		idx.Add(0, 0, 0)
		Expect(idx.Rebuild(sources())).Error().ToNot(HaveOccurred())
		lowest, _ := idx.LowestOffset()
		Expect(lowest).To(Equal(uint64(10)))
	})
})
