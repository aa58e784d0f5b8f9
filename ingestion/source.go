package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/poiesic/bulkseed/core"
)

// FromSlice returns a sequence over records in order.
func FromSlice(records []core.Record) iter.Seq[core.Record] {
	return slices.Values(records)
}

// maxLineSize bounds a single JSON document in a JSON Lines source.
const maxLineSize = 4 << 20

// JSONLinesSource reads one JSON object per line.
// Blank lines are skipped. Iteration stops at the first malformed line;
// check Err afterwards.
type JSONLinesSource struct {
	r        io.Reader
	keyField string
	line     int
	err      error
}

// NewJSONLinesSource creates a source reading from r.
// When keyField is set and present in a document, its value becomes the
// record key; otherwise a random UUID is generated.
func NewJSONLinesSource(r io.Reader, keyField string) *JSONLinesSource {
	return &JSONLinesSource{r: r, keyField: keyField}
}

// Records returns the sequence of records. It can be ranged over once.
func (s *JSONLinesSource) Records() iter.Seq[core.Record] {
	return func(yield func(core.Record) bool) {
		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

		for scanner.Scan() {
			s.line++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			record, err := s.parse(line)
			if err != nil {
				s.err = fmt.Errorf("line %d: %w", s.line, err)
				return
			}
			if !yield(record) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			s.err = fmt.Errorf("line %d: %w", s.line+1, err)
		}
	}
}

// Err returns the error that stopped iteration, if any.
func (s *JSONLinesSource) Err() error {
	return s.err
}

func (s *JSONLinesSource) parse(line []byte) (core.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return core.Record{}, fmt.Errorf("%w: %w", core.ErrInvalidPayload, err)
	}

	key := ""
	if s.keyField != "" {
		if raw, ok := fields[s.keyField]; ok {
			key = keyString(raw)
		}
	}
	if key == "" {
		key = uuid.NewString()
	}

	return core.NewRawRecord(key, line)
}

// keyString renders a JSON string or number as a record key.
func keyString(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if _, err := strconv.ParseFloat(num.String(), 64); err == nil {
			return num.String()
		}
	}
	return ""
}
