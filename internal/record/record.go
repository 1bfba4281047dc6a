// Package record implements the fixed-width on-disk record codec shared by
// the segment writer and the query path.
package record

import (
	"encoding/binary"
	"fmt"
)

// Size is the fixed length of an encoded record in bytes: five little-endian
// uint64 fields (timestamp, subject, predicate, object, graph). Only the low
// 32 bits of the four id fields are meaningful today; the extra width is
// kept for forward compatibility with a wider dictionary.
const Size = 40

// Event is a single dictionary-encoded RDF quad with its ingest timestamp.
type Event struct {
	Timestamp uint64
	Subject   uint32
	Predicate uint32
	Object    uint32
	Graph     uint32
}

// Encode writes e into buf, which must be exactly Size bytes long.
func Encode(buf []byte, e Event) {
	if len(buf) != Size {
		panic(fmt.Sprintf("record: buffer must be %d bytes, got %d", Size, len(buf)))
	}
	binary.LittleEndian.PutUint64(buf[0:8], e.Timestamp)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Subject))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.Predicate))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(e.Object))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(e.Graph))
}

// Decode parses buf, which must be exactly Size bytes long, into an Event.
// A length mismatch is treated as fatal on-disk corruption by the caller;
// Decode itself just reports it as an error rather than panicking, so a
// truncated tail record can be surfaced as an I/O-kind error instead of
// crashing the reader.
func Decode(buf []byte) (Event, error) {
	if len(buf) != Size {
		return Event{}, fmt.Errorf("record: invalid record length %d, want %d", len(buf), Size)
	}
	return Event{
		Timestamp: binary.LittleEndian.Uint64(buf[0:8]),
		Subject:   uint32(binary.LittleEndian.Uint64(buf[8:16])),
		Predicate: uint32(binary.LittleEndian.Uint64(buf[16:24])),
		Object:    uint32(binary.LittleEndian.Uint64(buf[24:32])),
		Graph:     uint32(binary.LittleEndian.Uint64(buf[32:40])),
	}, nil
}
