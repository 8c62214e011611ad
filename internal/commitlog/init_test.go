package commitlog_test

import (
	"path"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-log/internal/commitlog"
)

var _ = Describe("Init", func() {
	var dir string

	BeforeEach(func() {
		dir = makeTempDir()
	})

	It("should initialize a commit log", func() {
		Expect(commitlog.IsInitialized(dir)).To(BeFalse())

		Expect(commitlog.Init(dir)).To(Succeed())

		Expect(commitlog.IsInitialized(dir)).To(BeTrue())
		Expect(commitlog.Init(dir)).ToNot(Succeed())

		commitLog := mustOpen(dir)
		Expect(commitLog.NextOffset()).To(BeZero())
		Expect(commitLog.Segments()).To(HaveLen(1))
	})

	It("should initialize a directory which does not exist yet", func() {
		nested := path.Join(dir, "nested", "log")
		Expect(commitlog.IsInitialized(nested)).To(BeFalse())

		Expect(commitlog.InitIfRequired(nested)).To(Succeed())
		Expect(commitlog.InitIfRequired(nested)).To(Succeed())

		Expect(commitlog.IsInitialized(nested)).To(BeTrue())
	})
})
