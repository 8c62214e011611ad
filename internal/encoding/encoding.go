// Package encoding provides the on-disk framing of commit log records.
//
// A frame is a fixed size header followed by the payload. The magic is stored as the ASCII bytes "DLOG"
// (44 4C 4F 47), all integers are encoded little-endian:
//
//	offset  size  field
//	0       4     magic "DLOG"
//	4       1     version (1)
//	5       1     flags (must be 0)
//	6       2     reserved padding
//	8       8     logical offset
//	16      4     payload length
//	20      4     CRC-32 (IEEE) of the payload
//	24      n     payload
//
// Decoding the header, checking the payload bounds and verifying the checksum are separate steps. This allows the
// recovery scanner to look at a possibly torn tail without trusting a payload length which might be garbage.
package encoding

import "encoding/binary"

// Endian is the endianness the commit log uses for serializing/deserializing integers to file.
var Endian = binary.LittleEndian
