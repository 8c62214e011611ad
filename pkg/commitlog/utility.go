package commitlog

import (
	intcommitlog "github.com/backbone81/durable-log/internal/commitlog"
	intsegment "github.com/backbone81/durable-log/internal/segment"
)

// GetSegments returns the identifiers of all segments in the directory, sorted in ascending order. The identifier of a
// segment is the offset of its first record.
var GetSegments = intsegment.GetSegments

// SegmentReport describes what Inspect found in a single segment.
type SegmentReport = intcommitlog.SegmentReport

// Inspect scans all segments in the given directory without modifying anything.
var Inspect = intcommitlog.Inspect

// Verify checks all segments in the given directory without modifying anything.
var Verify = intcommitlog.Verify

// InspectVisitor is called by Inspect for every valid record found.
type InspectVisitor = intcommitlog.InspectVisitor

// ScanValue is a record found by Inspect, together with its header and byte position.
type ScanValue = intsegment.ScanValue

// SegmentInfo describes a segment of an open Log. It is returned by Log.Segments.
type SegmentInfo = intsegment.Info
