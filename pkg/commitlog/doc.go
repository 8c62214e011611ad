// Package commitlog provides a crash-safe, append-only commit log.
//
//   - Records are opaque byte payloads. Every record receives a logical offset, an unsigned 64-bit integer which is
//     strictly increasing.
//   - Records are stored in segment files in a single directory. Only the newest segment is written to. Every segment
//     file has the offset of its first record as its file name, padded with leading zeros to be 20 characters in
//     length with a `.dlog` file extension.
//   - A record is visible to readers only after it was flushed to stable storage. The highest such offset is the
//     commit pointer.
//   - On Open, a record which was torn by a crash at the end of the newest segment is cut off. Damage anywhere else is
//     reported as corruption and the commit log does not start.
package commitlog
