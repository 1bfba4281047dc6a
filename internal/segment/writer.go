package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"

	"janus/internal/record"
)

// WriteConfig controls the sparse index density of a flushed segment.
type WriteConfig struct {
	SparseInterval       int
	EntriesPerIndexBlock int
}

// Write drains events (already a snapshot from the buffer) into one
// immutable segment under baseDir, named with id. Events are sorted by
// timestamp (stable, so ties keep FIFO/insertion order) before being
// written. Write returns the published Metadata for the new segment.
//
// The data and index files are fsynced before the footer is written, so a
// published Metadata always describes durable data and index bytes on disk.
// The footer file itself is written without an fsync.
func Write(baseDir string, id uint64, events []record.Event, cfg WriteConfig) (Metadata, error) {
	if len(events) == 0 {
		return Metadata{}, fmt.Errorf("segment: cannot write an empty segment")
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	dataPath := filepath.Join(baseDir, fmt.Sprintf("segment-%d.log", id))
	indexPath := filepath.Join(baseDir, fmt.Sprintf("segment-%d.idx", id))
	footerPath := filepath.Join(baseDir, fmt.Sprintf("segment-%d.footer", id))

	dataFile, err := os.Create(dataPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("segment: create data file: %w", err)
	}
	defer dataFile.Close()

	indexFile, err := os.Create(indexPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("segment: create index file: %w", err)
	}
	defer indexFile.Close()

	dataHash := xxhash.New()
	indexHash := xxhash.New()
	dataW := bufio.NewWriter(io.MultiWriter(dataFile, dataHash))
	indexW := bufio.NewWriter(io.MultiWriter(indexFile, indexHash))

	var directory []IndexBlock
	var blockEntries [][2]uint64 // (ts, offset) pairs pending in the current block
	var blockMinTS uint64
	blockHasMin := false
	var blockMaxTS uint64
	var indexFileOffset uint64
	var totalIndexEntries uint64

	recordBuf := make([]byte, record.Size)
	var dataOffset uint64

	flushBlock := func() error {
		if len(blockEntries) == 0 {
			return nil
		}
		for _, pair := range blockEntries {
			var entry [16]byte
			binary.LittleEndian.PutUint64(entry[0:8], pair[0])
			binary.BigEndian.PutUint64(entry[8:16], pair[1])
			if _, err := indexW.Write(entry[:]); err != nil {
				return err
			}
		}
		directory = append(directory, IndexBlock{
			MinTS:      blockMinTS,
			MaxTS:      blockMaxTS,
			FileOffset: indexFileOffset,
			EntryCount: uint32(len(blockEntries)),
		})
		totalIndexEntries += uint64(len(blockEntries))
		indexFileOffset += uint64(len(blockEntries)) * 16
		blockEntries = blockEntries[:0]
		blockHasMin = false
		return nil
	}

	for i, e := range events {
		record.Encode(recordBuf, e)
		if _, err := dataW.Write(recordBuf); err != nil {
			return Metadata{}, fmt.Errorf("segment: write record: %w", err)
		}

		if cfg.SparseInterval > 0 && i%cfg.SparseInterval == 0 {
			if !blockHasMin {
				blockMinTS = e.Timestamp
				blockHasMin = true
			}
			blockMaxTS = e.Timestamp
			blockEntries = append(blockEntries, [2]uint64{e.Timestamp, dataOffset})

			if cfg.EntriesPerIndexBlock > 0 && len(blockEntries) >= cfg.EntriesPerIndexBlock {
				if err := flushBlock(); err != nil {
					return Metadata{}, fmt.Errorf("segment: flush index block: %w", err)
				}
			}
		}
		dataOffset += uint64(record.Size)
	}
	if err := flushBlock(); err != nil {
		return Metadata{}, fmt.Errorf("segment: flush tail index block: %w", err)
	}

	if err := dataW.Flush(); err != nil {
		return Metadata{}, fmt.Errorf("segment: flush data writer: %w", err)
	}
	if err := indexW.Flush(); err != nil {
		return Metadata{}, fmt.Errorf("segment: flush index writer: %w", err)
	}
	if err := dataFile.Sync(); err != nil {
		return Metadata{}, fmt.Errorf("segment: sync data file: %w", err)
	}
	if err := indexFile.Sync(); err != nil {
		return Metadata{}, fmt.Errorf("segment: sync index file: %w", err)
	}

	meta := Metadata{
		StartTS:     events[0].Timestamp,
		EndTS:       events[len(events)-1].Timestamp,
		DataPath:    dataPath,
		IndexPath:   indexPath,
		FooterPath:  footerPath,
		RecordCount: uint64(len(events)),
		Index:       directory,
	}

	footer := Footer{
		RecordCount:     meta.RecordCount,
		StartTS:         meta.StartTS,
		EndTS:           meta.EndTS,
		IndexEntryCount: totalIndexEntries,
		DataChecksum:    dataHash.Sum64(),
		IndexChecksum:   indexHash.Sum64(),
	}
	if err := WriteFooter(footerPath, footer); err != nil {
		return Metadata{}, fmt.Errorf("segment: write footer: %w", err)
	}

	return meta, nil
}
