// Package statestore persists point-in-time engine.Stat snapshots to disk,
// so a dashboard or monitoring script can read the last known state of a
// janus instance without querying it directly.
package statestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"janus/internal/engine"
)

// Snapshot is the on-disk representation of one engine.Stat observation.
type Snapshot struct {
	DictionaryTerms int       `json:"dictionaryTerms"`
	SegmentCount    int       `json:"segmentCount"`
	TotalRecords    uint64    `json:"totalRecords"`
	BufferedEvents  int       `json:"bufferedEvents"`
	EarliestTS      uint64    `json:"earliestTs"`
	LatestTS        uint64    `json:"latestTs"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store persists a Snapshot to a single JSON file, atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the last persisted snapshot, or a zero Snapshot if none has
// been written yet.
func (s *Store) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// Capture takes a live snapshot of e and persists it, writing to a temp
// file and renaming into place so readers never observe a partial write.
func (s *Store) Capture(e *engine.Engine) error {
	stat := engine.Snapshot(e)
	snap := Snapshot{
		DictionaryTerms: stat.DictionaryTerms,
		SegmentCount:    stat.SegmentCount,
		TotalRecords:    stat.TotalRecords,
		BufferedEvents:  stat.BufferedEvents,
		EarliestTS:      stat.EarliestTS,
		LatestTS:        stat.LatestTS,
		UpdatedAt:       time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
