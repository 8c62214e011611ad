package encoding

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/backbone81/durable-log/internal/logerr"
)

// RecordHeader is the fixed size header in front of every record payload.
type RecordHeader struct {
	// Magic identifies a commit log record. Must always be Magic.
	Magic [4]byte

	// Version of the record format. Only Version is supported.
	Version uint8

	// Flags are reserved for future use and must be zero.
	Flags uint8

	// Offset is the logical offset of the record. Offsets are strictly increasing over the whole log.
	Offset uint64

	// PayloadLength is the number of payload bytes following the header.
	PayloadLength uint32

	// Checksum is the CRC-32 of the payload bytes only.
	Checksum uint32
}

// HeaderSize provides the size in bytes of the header. Helpful for reading the full header before decoding individual
// elements.
const HeaderSize = 4 + 1 + 1 + 2 + 8 + 4 + 4

// Magic holds the magic bytes expected at the start of every record.
var Magic = [4]byte{'D', 'L', 'O', 'G'}

// Version provides the currently supported record format version.
const Version uint8 = 1

// FlagsNone is the only flag value supported by Version.
const FlagsNone uint8 = 0

// MaxPayloadSize is the biggest payload which can be represented by the payload length field.
const MaxPayloadSize = math.MaxUint32

// NewRecordHeader creates a header for the given offset, payload length and checksum with the current format version.
func NewRecordHeader(offset uint64, payloadLength uint32, checksum uint32) RecordHeader {
	return RecordHeader{
		Magic:         Magic,
		Version:       Version,
		Flags:         FlagsNone,
		Offset:        offset,
		PayloadLength: payloadLength,
		Checksum:      checksum,
	}
}

// FrameSize returns the number of bytes the full frame occupies on disk.
func (h RecordHeader) FrameSize() int64 {
	return HeaderSize + int64(h.PayloadLength)
}

// PutHeader serializes the header into the first HeaderSize bytes of buffer. The reserved padding is written as
// zeros.
func PutHeader(buffer []byte, header RecordHeader) {
	_ = buffer[HeaderSize-1] // Bounds check hint to the compiler.
	copy(buffer[0:4], header.Magic[:])
	buffer[4] = header.Version
	buffer[5] = header.Flags
	buffer[6] = 0
	buffer[7] = 0
	Endian.PutUint64(buffer[8:16], header.Offset)
	Endian.PutUint32(buffer[16:20], header.PayloadLength)
	Endian.PutUint32(buffer[20:24], header.Checksum)
}

// DecodeHeader decodes the header from the first HeaderSize bytes of data. Magic, version and flags are validated
// before any other field is looked at. The checksum is not verified, as this requires the payload.
func DecodeHeader(data []byte) (RecordHeader, error) {
	if len(data) < HeaderSize {
		return RecordHeader{}, logerr.InvalidFormat("decode header", "header too short: %d bytes (need %d)", len(data), HeaderSize).
			WithValues(HeaderSize, uint64(len(data)))
	}

	magic := [4]byte(data[0:4])
	if magic != Magic {
		// The magic is reported as the number its bytes spell when read in order.
		expected, actual := binary.BigEndian.Uint32(Magic[:]), binary.BigEndian.Uint32(magic[:])
		return RecordHeader{}, logerr.InvalidFormat("decode header", "invalid magic: 0x%08X (expected 0x%08X)", actual, expected).
			WithValues(uint64(expected), uint64(actual))
	}
	if data[4] != Version {
		return RecordHeader{}, logerr.InvalidFormat("decode header", "unsupported version: %d (expected %d)", data[4], Version).
			WithValues(uint64(Version), uint64(data[4]))
	}
	if data[5] != FlagsNone {
		return RecordHeader{}, logerr.InvalidFormat("decode header", "unsupported flags: 0x%02X (expected 0x%02X)", data[5], FlagsNone).
			WithValues(uint64(FlagsNone), uint64(data[5]))
	}

	return RecordHeader{
		Magic:         magic,
		Version:       data[4],
		Flags:         data[5],
		Offset:        Endian.Uint64(data[8:16]),
		PayloadLength: Endian.Uint32(data[16:20]),
		Checksum:      Endian.Uint32(data[20:24]),
	}, nil
}

// ReadHeader reads the header from the reader.
// The buffer is required to avoid allocations and should be big enough to hold the full header temporarily.
// A reader which ends before a full header was read results in an InvalidFormat error wrapping io.EOF or
// io.ErrUnexpectedEOF. Errors of this package's kinds returned by the reader are passed on as they are.
func ReadHeader(reader io.Reader, buffer []byte) (RecordHeader, error) {
	if n, err := io.ReadFull(reader, buffer[:HeaderSize]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return RecordHeader{}, logerr.New(logerr.KindInvalidFormat, "read header", err).WithValues(HeaderSize, uint64(n))
		}
		var logErr *logerr.Error
		if errors.As(err, &logErr) {
			return RecordHeader{}, err
		}
		return RecordHeader{}, logerr.Io("read header", err)
	}
	return DecodeHeader(buffer[:HeaderSize])
}
