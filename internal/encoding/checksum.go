package encoding

import (
	"hash/crc32"

	"github.com/backbone81/durable-log/internal/logerr"
)

var crc32ChecksumTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 of the payload.
func Checksum(payload []byte) uint32 {
	return crc32.Checksum(payload, crc32ChecksumTable)
}

// VerifyChecksum compares the checksum stored in the header with the checksum of the payload. A mismatch is reported
// as ChecksumMismatch, not as a format violation.
func VerifyChecksum(header RecordHeader, payload []byte) error {
	if actual := Checksum(payload); actual != header.Checksum {
		return logerr.New(logerr.KindChecksumMismatch, "verify checksum", nil).
			WithOffset(header.Offset).
			WithValues(uint64(header.Checksum), uint64(actual))
	}
	return nil
}
