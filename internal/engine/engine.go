// Package engine wires together the dictionary, buffer, segment registry,
// background flusher, and optional admission control and flush
// notification into the single storage engine a janus instance runs.
package engine

import (
	"fmt"
	"os"
	"sort"

	"janus/internal/buffer"
	"janus/internal/config"
	"janus/internal/dict"
	"janus/internal/flusher"
	"janus/internal/logger"
	"janus/internal/notify"
	"janus/internal/ratelimit"
	"janus/internal/record"
	"janus/internal/registry"
	"janus/internal/segment"
)

var log = logger.Named("engine")

// RDFEvent is the string-term view of a stored event: the Dictionary
// boundary that Write/Query cross so callers never have to think about
// integer ids.
type RDFEvent struct {
	Timestamp uint64
	Subject   string
	Predicate string
	Object    string
	Graph     string
}

// Engine is the façade a CLI or embedding program talks to.
type Engine struct {
	cfg      *config.Config
	dict     *dict.Dictionary
	buf      *buffer.Buffer
	reg      *registry.Registry
	flusher  *flusher.Flusher
	notifier *notify.Notifier
	admitter *ratelimit.Admitter
}

// New recovers existing segments and the dictionary from disk (if present)
// and assembles a ready-to-use Engine. It does not start background
// flushing; call StartBackgroundFlushing for that.
func New(cfg *config.Config) (*Engine, error) {
	if err := os.MkdirAll(cfg.SegmentBasePath, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create segment base dir: %w", err)
	}

	d, err := loadOrCreateDictionary(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("engine: load dictionary: %w", err)
	}

	segments, err := segment.Discover(cfg.SegmentBasePath, cfg.SparseInterval)
	if err != nil {
		return nil, fmt.Errorf("engine: discover segments: %w", err)
	}
	reg := registry.Load(segments)

	notifier, err := notify.New(cfg.NotifyRedisAddr, cfg.NotifyChannel)
	if err != nil {
		return nil, fmt.Errorf("engine: configure notifier: %w", err)
	}

	admitter := ratelimit.New(cfg.MaxBufferEventsHard)

	buf := buffer.New()
	thresholds := buffer.Thresholds{
		MaxEvents:     cfg.MaxBufferEvents,
		MaxBytes:      cfg.MaxBufferBytes,
		MaxAgeSeconds: cfg.MaxBufferAgeSeconds,
	}
	writeCfg := segment.WriteConfig{
		SparseInterval:       cfg.SparseInterval,
		EntriesPerIndexBlock: cfg.EntriesPerIndexBlock,
	}

	f := flusher.New(buf, reg, notifier, cfg.SegmentBasePath, thresholds, writeCfg, nextSegmentID(segments))

	return &Engine{
		cfg:      cfg,
		dict:     d,
		buf:      buf,
		reg:      reg,
		flusher:  f,
		notifier: notifier,
		admitter: admitter,
	}, nil
}

func loadOrCreateDictionary(path string) (*dict.Dictionary, error) {
	d, err := dict.Load(path)
	if err != nil {
		if isNotExist(err) {
			return dict.New(), nil
		}
		return nil, err
	}
	return d, nil
}

func nextSegmentID(segments []segment.Metadata) uint64 {
	var maxID uint64
	for _, m := range segments {
		id := segmentIDFromPath(m.DataPath)
		if id >= maxID {
			maxID = id + 1
		}
	}
	return maxID
}

// StartBackgroundFlushing launches the 100ms poll loop that drains the
// buffer into segments once a threshold trips.
func (e *Engine) StartBackgroundFlushing() {
	e.flusher.Start()
}

// Write stores an already-encoded event.
func (e *Engine) Write(ev record.Event) error {
	if err := e.admitter.Admit(e.buf.Len()); err != nil {
		return err
	}
	e.buf.Write(ev)
	return nil
}

// WriteRDF encodes the given RDF terms through the dictionary and stores
// the resulting event.
func (e *Engine) WriteRDF(ts uint64, subject, predicate, object, graph string) error {
	ev := record.Event{
		Timestamp: ts,
		Subject:   e.dict.Encode(subject),
		Predicate: e.dict.Encode(predicate),
		Object:    e.dict.Encode(object),
		Graph:     e.dict.Encode(graph),
	}
	return e.Write(ev)
}

// Query returns every stored event with ts in [start, end], merging the
// live buffer with every overlapping immutable segment.
func (e *Engine) Query(start, end uint64) ([]record.Event, error) {
	out := e.buf.Scan(start, end)

	for _, m := range e.reg.Overlapping(start, end) {
		events, err := segment.Query(m, start, end)
		if err != nil {
			return nil, fmt.Errorf("engine: query %s: %w", m.DataPath, err)
		}
		out = append(out, events...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// QueryRDF is Query decoded back through the dictionary into string terms.
func (e *Engine) QueryRDF(start, end uint64) ([]RDFEvent, error) {
	events, err := e.Query(start, end)
	if err != nil {
		return nil, err
	}
	out := make([]RDFEvent, len(events))
	for i, ev := range events {
		out[i] = RDFEvent{
			Timestamp: ev.Timestamp,
			Subject:   e.dict.Decode(ev.Subject),
			Predicate: e.dict.Decode(ev.Predicate),
			Object:    e.dict.Decode(ev.Object),
			Graph:     e.dict.Decode(ev.Graph),
		}
	}
	return out, nil
}

// GetDictionary returns the underlying term dictionary.
func (e *Engine) GetDictionary() *dict.Dictionary {
	return e.dict
}

// Registry returns the segment registry, primarily for stats reporting.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Shutdown stops background flushing (performing one final synchronous
// flush of any buffered events) and persists the dictionary. The
// dictionary is not auto-persisted during normal operation — only
// Shutdown writes it, so an unclean process exit loses any terms
// learned since the last clean shutdown.
func (e *Engine) Shutdown() error {
	e.flusher.Stop()
	if e.notifier != nil {
		if err := e.notifier.Close(); err != nil {
			log.Warn("closing notifier: %v", err)
		}
	}
	if err := e.dict.Save(e.cfg.DictionaryPath); err != nil {
		return fmt.Errorf("engine: save dictionary: %w", err)
	}
	return nil
}
