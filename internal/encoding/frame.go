package encoding

import (
	"github.com/backbone81/durable-log/internal/logerr"
)

// Encode returns the full frame of a record with the given offset and payload.
func Encode(offset uint64, payload []byte) ([]byte, error) {
	return AppendFrame(nil, offset, payload)
}

// AppendFrame appends the full frame of a record to dst and returns the extended slice. Passing a dst with enough
// capacity avoids memory allocations.
//
// An error is returned when the payload is too big to be represented by the payload length field.
func AppendFrame(dst []byte, offset uint64, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > MaxPayloadSize {
		return dst, logerr.InvalidFormat("encode", "payload length %d exceeds maximum %d", len(payload), uint64(MaxPayloadSize)).
			WithOffset(offset).
			WithValues(MaxPayloadSize, uint64(len(payload)))
	}

	header := NewRecordHeader(offset, uint32(len(payload)), Checksum(payload)) //nolint:gosec // checked above
	start := len(dst)
	dst = grow(dst, HeaderSize+len(payload))
	PutHeader(dst[start:start+HeaderSize], header)
	copy(dst[start+HeaderSize:], payload)
	return dst, nil
}

// DecodeRecord decodes the header and returns the payload which follows it. The payload aliases data.
//
// An error is returned when the header is invalid or when the payload length points past the end of data. The checksum
// is not verified. Use VerifyChecksum for that.
func DecodeRecord(data []byte) (RecordHeader, []byte, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return RecordHeader{}, nil, err
	}

	// The payload length is at most MaxUint32, so the addition cannot overflow an int64. We still do the check in
	// uint64 to not depend on the size of int.
	end := uint64(HeaderSize) + uint64(header.PayloadLength)
	if end < uint64(HeaderSize) || end > uint64(len(data)) {
		return RecordHeader{}, nil, logerr.InvalidFormat(
			"decode record",
			"record truncated: need %d bytes for payload, have %d",
			header.PayloadLength,
			len(data)-HeaderSize,
		).WithOffset(header.Offset).WithValues(uint64(header.PayloadLength), uint64(len(data)-HeaderSize))
	}
	return header, data[HeaderSize:end], nil
}

// FrameSize returns the size of the frame for a payload of the given length.
func FrameSize(payloadLength int) int64 {
	return HeaderSize + int64(payloadLength)
}

// grow extends the slice by n bytes and reallocates if the capacity is not enough.
func grow(data []byte, n int) []byte {
	if cap(data)-len(data) < n {
		newData := make([]byte, len(data), len(data)+n)
		copy(newData, data)
		data = newData
	}
	return data[:len(data)+n]
}
