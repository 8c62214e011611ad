package config_test

import (
	"os"
	"path"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/config"
	"github.com/backbone81/durable-log/internal/durability"
)

var _ = Describe("Config", func() {
	It("should use the defaults for an empty file", func() {
		cfg, err := config.Parse(nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg).To(Equal(config.Default()))
		Expect(cfg.DurabilityMode).To(Equal("grouped"))
		Expect(cfg.SegmentSizeLimit).To(Equal(int64(commitlog.DefaultSegmentSizeLimit)))
	})

	It("should override the defaults with the keys given", func() {
		cfg, err := config.Parse([]byte(`
segment_size_limit: 1048576
durability_mode: sync
flush_interval: 20ms
replay_checksums: false
log_level: debug
`))
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.SegmentSizeLimit).To(Equal(int64(1048576)))
		Expect(cfg.DurabilityMode).To(Equal("sync"))
		Expect(cfg.FlushInterval).To(Equal(20 * time.Millisecond))
		Expect(cfg.FlushBatchSize).To(Equal(durability.DefaultFlushBatchSize))
		Expect(cfg.ReplayChecksums).To(BeFalse())
		Expect(cfg.DirectoryLock).To(BeTrue())
		Expect(cfg.Level()).To(Equal(zapcore.DebugLevel))
	})

	DescribeTable("should reject invalid settings",
		func(data string, message string) {
			_, err := config.Parse([]byte(data))
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("small segment size limit", "segment_size_limit: 10", "segment_size_limit"),
		Entry("unknown durability mode", "durability_mode: never", "durability_mode"),
		Entry("empty batches", "flush_batch_size: 0", "flush_batch_size"),
		Entry("negative flush interval", "flush_interval: -1s", "flush_interval"),
		Entry("unknown log level", "log_level: loud", "log_level"),
		Entry("unknown key", "segment_size: 1024", "segment_size"),
	)

	It("should load a file and turn it into working options", func() {
		dir, err := os.MkdirTemp("", "test-config-*")
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(os.RemoveAll(dir)).To(Succeed())
		}()

		configPath := path.Join(dir, "config.yaml")
		Expect(os.WriteFile(configPath, []byte("durability_mode: sync\ndirectory_lock: false\n"), 0o600)).To(Succeed())
		cfg, err := config.Load(configPath)
		Expect(err).ToNot(HaveOccurred())

		options, err := cfg.Options(zap.NewNop())
		Expect(err).ToNot(HaveOccurred())
		commitLog, err := commitlog.Open(path.Join(dir, "log"), options...)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(commitLog.Close()).To(Succeed())
		}()

		Expect(commitLog.Append([]byte("foo"))).To(HaveField("Durable", true))
		Expect(path.Join(dir, "log", commitlog.LockFileName)).ToNot(BeAnExistingFile())
	})

	It("should fail for a missing file", func() {
		_, err := config.Load("/does/not/exist.yaml")
		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
