package segment

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"janus/internal/record"
)

type sparseEntry struct {
	ts     uint64
	offset uint64
}

// Query runs the two-level sparse-index lookup against a single segment,
// returning every record with ts in [start, end].
// If the segment's index directory is empty (e.g. after incomplete startup
// recovery), it falls back to a full scan of the data file.
func Query(m Metadata, start, end uint64) ([]record.Event, error) {
	if m.FooterPath != "" {
		if footer, err := ReadFooter(m.FooterPath); err == nil {
			if err := footer.VerifyChecksums(m.DataPath, m.IndexPath); err != nil {
				return nil, fmt.Errorf("segment: %s failed verification: %w", m.DataPath, err)
			}
		}
	}

	if len(m.Index) == 0 {
		return scanFrom(m.DataPath, 0, start, end)
	}

	var relevant []IndexBlock
	for i, block := range m.Index {
		// The records a block indexes run past its last sparse entry, up to
		// the next block's first entry (or the segment's end for the last
		// block), so that is the upper bound used for pruning.
		reach := block.MaxTS
		if i+1 < len(m.Index) {
			reach = m.Index[i+1].MinTS
		} else if m.EndTS > reach {
			reach = m.EndTS
		}
		if block.MinTS <= end && reach >= start {
			relevant = append(relevant, block)
		}
	}
	if len(relevant) == 0 {
		return nil, nil
	}

	entries, err := loadBlocks(m.IndexPath, relevant)
	if err != nil {
		return nil, fmt.Errorf("segment: load index blocks: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	// Binary search for the floor entry: the largest entry with ts <= start.
	pos := sort.Search(len(entries), func(i int) bool { return entries[i].ts > start })
	if pos > 0 {
		pos--
	}
	startOffset := entries[pos].offset

	return scanFrom(m.DataPath, startOffset, start, end)
}

func loadBlocks(indexPath string, blocks []IndexBlock) ([]sparseEntry, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []sparseEntry
	buf := make([]byte, 16)
	for _, block := range blocks {
		if _, err := f.Seek(int64(block.FileOffset), io.SeekStart); err != nil {
			return nil, err
		}
		for i := uint32(0); i < block.EntryCount; i++ {
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, fmt.Errorf("read sparse entry: %w", err)
			}
			entries = append(entries, sparseEntry{
				ts:     binary.LittleEndian.Uint64(buf[0:8]),
				offset: binary.BigEndian.Uint64(buf[8:16]),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })
	return entries, nil
}

func scanFrom(dataPath string, startOffset, start, end uint64) ([]record.Event, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(startOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("segment: seek data file: %w", err)
	}

	var out []record.Event
	buf := make([]byte, record.Size)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("segment: read record: %w", err)
		}
		e, err := record.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("segment: decode record: %w", err)
		}
		if e.Timestamp > end {
			break
		}
		if e.Timestamp >= start {
			out = append(out, e)
		}
	}
	return out, nil
}
