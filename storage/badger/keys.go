package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	documentPrefix = "doc:"
	outcomePrefix  = "out:"
)

// makeDocumentKey generates a key for a stored document.
// Format: prefix:key
func makeDocumentKey(key string) []byte {
	return append([]byte(documentPrefix), key...)
}

// makeOutcomePrefix generates the key prefix shared by all outcomes of a run.
// Format: prefix:runID:
func makeOutcomePrefix(runID string) []byte {
	buf := make([]byte, 0, len(outcomePrefix)+len(runID)+1)
	buf = append(buf, outcomePrefix...)
	buf = append(buf, runID...)
	return append(buf, ':')
}

// makeOutcomeKey generates a composite key for a batch outcome.
// Format: prefix:runID:seq
func makeOutcomeKey(runID string, seq int) []byte {
	prefix := makeOutcomePrefix(runID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows batch order
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}
