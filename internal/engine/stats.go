package engine

// Stat is a point-in-time summary of an engine's storage state, backing the
// "janus stats" CLI subcommand.
type Stat struct {
	DictionaryTerms int
	SegmentCount    int
	TotalRecords    uint64
	BufferedEvents  int
	EarliestTS      uint64
	LatestTS        uint64
}

// Snapshot summarizes e's current state without mutating anything.
func Snapshot(e *Engine) Stat {
	segments := e.reg.Segments()

	s := Stat{
		DictionaryTerms: e.dict.Len(),
		SegmentCount:    len(segments),
		BufferedEvents:  e.buf.Len(),
	}
	for i, m := range segments {
		s.TotalRecords += m.RecordCount
		if i == 0 || m.StartTS < s.EarliestTS {
			s.EarliestTS = m.StartTS
		}
		if i == 0 || m.EndTS > s.LatestTS {
			s.LatestTS = m.EndTS
		}
	}
	return s
}
