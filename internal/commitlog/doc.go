// Package commitlog provides an implementation of a crash-safe, append-only commit log.
//
// The on-disk structure looks like this:
//
//   - The commit log is made up of multiple segment files. All segment files are located in the same directory. Every
//     segment file has the offset of its first record as its file name, padded with leading zeros to be 20 characters
//     in length with a `.dlog` file extension. That offset is the identifier of the segment.
//   - Each segment file holds records one after the other, without a file header. Each record is made up of a fixed
//     size header with the offset, the payload length and a checksum, followed by the payload.
//   - Offsets uniquely identify every record. They are unsigned 64-bit integers which are strictly increasing. Offsets
//     of records which could not be flushed are never handed out again, so there can be gaps.
//   - Only the last segment is written to. All other segments are sealed and only read.
//
// On startup, every segment is scanned and validated. An invalid record at the end of the last segment is the remainder
// of a write which was interrupted by a crash, and is cut off. An invalid record anywhere else is corruption, and the
// commit log refuses to start.
//
// A record becomes visible to readers only after it was flushed to stable storage.
//
// Only a single process may use a directory at a time. This is enforced with an advisory lock file on unix systems.
package commitlog
