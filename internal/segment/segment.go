// Package segment implements the on-disk segment format and the two-level
// sparse index: an in-memory directory of IndexBlocks backed by an on-disk
// sparse array of (timestamp, offset) pairs, plus a small footer recording
// exact segment metadata and content checksums.
package segment

import "fmt"

// IndexBlock describes one contiguous run of sparse index entries on disk.
// It is the in-memory, first-level directory: a query prunes by timestamp
// range against these before touching the index file at all.
type IndexBlock struct {
	MinTS      uint64
	MaxTS      uint64
	FileOffset uint64
	EntryCount uint32
}

// Metadata describes one immutable, sorted segment: its data file, its
// index file, and the in-memory index directory built for it.
type Metadata struct {
	StartTS     uint64
	EndTS       uint64
	DataPath    string
	IndexPath   string
	FooterPath  string
	RecordCount uint64
	Index       []IndexBlock
}

// Overlaps reports whether the segment's [StartTS, EndTS] range intersects
// [start, end].
func (m Metadata) Overlaps(start, end uint64) bool {
	return m.StartTS <= end && m.EndTS >= start
}

func (m Metadata) String() string {
	return fmt.Sprintf("segment[%d..%d] records=%d blocks=%d path=%s",
		m.StartTS, m.EndTS, m.RecordCount, len(m.Index), m.DataPath)
}
