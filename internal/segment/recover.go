package segment

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Discover scans baseDir for segment-<id>.log files with a matching .idx
// and reconstructs their Metadata, sorted by StartTS. For each segment it
// prefers the exact metadata recorded in a matching .footer file; when the
// footer is missing or fails checksum verification, it falls back to a
// heuristic: the index block boundaries give min/max timestamps, and
// entry_count * sparseInterval approximates the record count.
func Discover(baseDir string, sparseInterval int) ([]Metadata, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("segment: read base dir: %w", err)
	}

	var segments []Metadata
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "segment-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		idStr := strings.TrimSuffix(strings.TrimPrefix(name, "segment-"), ".log")
		if _, err := strconv.ParseUint(idStr, 10, 64); err != nil {
			continue
		}

		dataPath := filepath.Join(baseDir, name)
		indexPath := filepath.Join(baseDir, "segment-"+idStr+".idx")
		footerPath := filepath.Join(baseDir, "segment-"+idStr+".footer")
		if _, err := os.Stat(indexPath); err != nil {
			continue
		}

		meta, err := recoverOne(dataPath, indexPath, footerPath, sparseInterval)
		if err != nil {
			return nil, fmt.Errorf("segment: recover %s: %w", name, err)
		}
		segments = append(segments, meta)
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].StartTS < segments[j].StartTS })
	return segments, nil
}

func recoverOne(dataPath, indexPath, footerPath string, sparseInterval int) (Metadata, error) {
	meta := Metadata{DataPath: dataPath, IndexPath: indexPath, FooterPath: footerPath}

	if _, err := os.Stat(indexPath); err != nil {
		return meta, nil
	}

	directory, err := rebuildIndexDirectory(indexPath)
	if err != nil {
		return Metadata{}, err
	}
	meta.Index = directory

	if footer, err := ReadFooter(footerPath); err == nil {
		if verifyErr := footer.VerifyChecksums(dataPath, indexPath); verifyErr == nil {
			meta.StartTS = footer.StartTS
			meta.EndTS = footer.EndTS
			meta.RecordCount = footer.RecordCount
			return meta, nil
		}
	}

	// No trustworthy footer: estimate range/count from the sparse index itself.
	if len(directory) == 0 {
		meta.StartTS = 0
		meta.EndTS = 0
		meta.RecordCount = 0
		return meta, nil
	}
	meta.StartTS = directory[0].MinTS
	meta.EndTS = directory[len(directory)-1].MaxTS
	var totalEntries uint64
	for _, b := range directory {
		totalEntries += uint64(b.EntryCount)
	}
	if sparseInterval <= 0 {
		sparseInterval = 1
	}
	meta.RecordCount = totalEntries * uint64(sparseInterval)
	return meta, nil
}

// rebuildIndexDirectory reconstructs the IndexBlock directory purely from
// the bytes of the .idx file, grouping entries into entriesPerBlock-sized
// chunks. The result matches the directory Write built only when the
// segment was written with EntriesPerIndexBlock equal to entriesPerBlock;
// otherwise the block boundaries differ, while each rebuilt block's
// min/max timestamps still come from its own first and last entries.
func rebuildIndexDirectory(indexPath string) ([]IndexBlock, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size()%16 != 0 {
		return nil, fmt.Errorf("index file %s has size %d, not a multiple of 16", indexPath, info.Size())
	}
	totalEntries := info.Size() / 16
	if totalEntries == 0 {
		return nil, nil
	}

	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}

	// Neither the .idx file nor the footer records the
	// entries_per_index_block a segment was written with, so entries are
	// always grouped at the default granularity of 1024, whatever block size
	// the segment used; the first/last timestamp of the whole file still
	// establishes the overall range.
	const entriesPerBlock = 1024
	var directory []IndexBlock
	var fileOffset uint64
	for start := int64(0); start < int64(totalEntries); start += entriesPerBlock {
		end := start + entriesPerBlock
		if end > int64(totalEntries) {
			end = int64(totalEntries)
		}
		count := end - start
		first := buf[start*16 : start*16+16]
		last := buf[(end-1)*16 : (end-1)*16+16]
		minTS := binary.LittleEndian.Uint64(first[0:8])
		maxTS := binary.LittleEndian.Uint64(last[0:8])
		directory = append(directory, IndexBlock{
			MinTS:      minTS,
			MaxTS:      maxTS,
			FileOffset: fileOffset,
			EntryCount: uint32(count),
		})
		fileOffset += uint64(count) * 16
	}
	return directory, nil
}
