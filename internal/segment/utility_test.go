package segment_test

import (
	"os"
	"path"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/segment"
)

var _ = Describe("Utility", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-segment-utility-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should format segment file names", func() {
		Expect(segment.SegmentFileName(0)).To(Equal("00000000000000000000.dlog"))
		Expect(segment.SegmentFileName(42)).To(Equal("00000000000000000042.dlog"))
		Expect(segment.SegmentFileName(18446744073709551615)).To(Equal("18446744073709551615.dlog"))
	})

	It("should list segments in ascending order and ignore other files", func() {
		for _, name := range []string{
			segment.SegmentFileName(200),
			segment.SegmentFileName(3),
			segment.SegmentFileName(17),
			"LOCK",
			"notes.txt",
			"123.dlog",
			segment.SegmentFileName(9) + ".new",
		} {
			Expect(os.WriteFile(path.Join(dir, name), nil, 0o600)).To(Succeed())
		}
		Expect(os.Mkdir(path.Join(dir, segment.SegmentFileName(1)), 0o700)).To(Succeed())

		Expect(segment.GetSegments(dir)).To(Equal([]uint64{3, 17, 200}))
	})

	It("should fail listing a directory which does not exist", func() {
		Expect(segment.GetSegments(path.Join(dir, "missing"))).Error().To(HaveOccurred())
	})

	It("should fail on a file name which exceeds the identifier range", func() {
		Expect(os.WriteFile(path.Join(dir, "99999999999999999999.dlog"), nil, 0o600)).To(Succeed())
		Expect(segment.GetSegments(dir)).Error().To(HaveOccurred())
	})

	It("should remove temporary files", func() {
		Expect(os.WriteFile(path.Join(dir, segment.SegmentFileName(9)+".new"), nil, 0o600)).To(Succeed())
		Expect(os.WriteFile(path.Join(dir, segment.SegmentFileName(10)), nil, 0o600)).To(Succeed())

		Expect(segment.RemoveTemporaryFiles(dir)).To(Equal([]string{segment.SegmentFileName(9) + ".new"}))
		Expect(segment.GetSegments(dir)).To(Equal([]uint64{10}))
		Expect(path.Join(dir, segment.SegmentFileName(9)+".new")).ToNot(BeAnExistingFile())
	})
})
