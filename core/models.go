package core

import (
	"encoding/binary"
	"encoding/json"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a content-derived identifier for batches.
type ID uint64

// Record is a single document to be ingested.
// It pairs a caller-supplied unique key with an opaque JSON payload.
// Records are immutable once created.
type Record struct {
	key     string
	payload []byte
}

// NewRecord encodes doc as JSON and wraps it in a Record identified by key.
func NewRecord(key string, doc any) (Record, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return Record{}, err
	}
	r := Record{key: key, payload: payload}
	if err := ValidateRecord(r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// NewRawRecord wraps an already encoded JSON payload. The payload is copied.
func NewRawRecord(key string, payload []byte) (Record, error) {
	r := Record{key: key, payload: slices.Clone(payload)}
	if err := ValidateRecord(r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Key returns the record's unique key.
func (r Record) Key() string {
	return r.key
}

// Payload returns a copy of the record's JSON payload.
func (r Record) Payload() []byte {
	return slices.Clone(r.payload)
}

// Decode unmarshals the payload into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.payload, v)
}

// Batch is an ordered, contiguous group of records submitted as one unit.
type Batch struct {
	Seq     int // 0-based position of the batch within its run
	ID      ID
	Records []Record
}

// NewBatch builds a batch and derives its ID from the record keys.
func NewBatch(seq int, records []Record) Batch {
	return Batch{
		Seq:     seq,
		ID:      BatchID(records),
		Records: records,
	}
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Records)
}

// BatchID hashes the ordered record keys of a batch.
func BatchID(records []Record) ID {
	h, _ := blake2b.New(8, nil)
	for _, r := range records {
		h.Write([]byte(r.key))
		h.Write([]byte{0})
	}
	return ID(binary.LittleEndian.Uint64(h.Sum(nil)))
}

// BatchStatus is the terminal outcome of a batch.
type BatchStatus int

const (
	// BatchStatusSucceeded means an attempt was accepted by the destination.
	BatchStatusSucceeded BatchStatus = iota + 1
	// BatchStatusExhausted means every allowed attempt failed.
	BatchStatusExhausted
)

func (s BatchStatus) String() string {
	switch s {
	case BatchStatusSucceeded:
		return "succeeded"
	case BatchStatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// BatchOutcome records the terminal state of one batch in a run.
type BatchOutcome struct {
	RunID      string
	BatchSeq   int
	BatchID    ID
	Records    int
	Attempts   int
	Status     BatchStatus
	LastError  string
	FinishedAt time.Time
}

// News is the sample document type indexed by the seeder.
type News struct {
	NewsID    uuid.UUID `json:"newsId"`
	NewsTitle string    `json:"newsTitle"`
	NewsURL   string    `json:"newsUrl"`
}

// NewNews creates a News item with a freshly generated ID.
func NewNews(title, url string) *News {
	return &News{
		NewsID:    uuid.New(),
		NewsTitle: title,
		NewsURL:   url,
	}
}

// Record converts the news item into an ingestible record keyed by its ID.
func (n *News) Record() (Record, error) {
	if err := ValidateNews(n); err != nil {
		return Record{}, err
	}
	return NewRecord(n.NewsID.String(), n)
}

// SearchHit is a single document returned by a search query.
type SearchHit struct {
	Key    string
	Score  float64
	Source json.RawMessage
}

// Decode unmarshals the hit's source document into v.
func (h *SearchHit) Decode(v any) error {
	return json.Unmarshal(h.Source, v)
}
