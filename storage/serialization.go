// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/bulkseed/core"
)

// Document is a record as persisted by a local destination.
type Document struct {
	Key      string
	Payload  []byte
	BatchID  core.ID
	StoredAt time.Time
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *Document) []byte {
	buf := make([]byte, documentMUS.Size(*doc))
	documentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*Document, error) {
	doc, _, err := documentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalOutcome serializes a BatchOutcome to bytes.
func MarshalOutcome(outcome *core.BatchOutcome) []byte {
	buf := make([]byte, outcomeMUS.Size(*outcome))
	outcomeMUS.Marshal(*outcome, buf)
	return buf
}

// UnmarshalOutcome deserializes a BatchOutcome from bytes.
func UnmarshalOutcome(data []byte) (*core.BatchOutcome, error) {
	outcome, _, err := outcomeMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &outcome, nil
}

// Timestamps are stored as Unix microseconds.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

var documentMUS = documentSer{}

type documentSer struct{}

func (documentSer) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += ord.String.Marshal(string(v.Payload), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.BatchID), bs[n:])
	n += varint.Int64.Marshal(timeToMicro(v.StoredAt), bs[n:])
	return
}

func (documentSer) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var (
		n1      int
		payload string
		id      uint64
		ts      int64
	)
	payload, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Payload = []byte(payload)
	id, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BatchID = core.ID(id)
	ts, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StoredAt = microToTime(ts)
	return
}

func (documentSer) Size(v Document) (size int) {
	size = ord.String.Size(v.Key)
	size += ord.String.Size(string(v.Payload))
	size += varint.Uint64.Size(uint64(v.BatchID))
	return size + varint.Int64.Size(timeToMicro(v.StoredAt))
}

var outcomeMUS = outcomeSer{}

type outcomeSer struct{}

func (outcomeSer) Marshal(v core.BatchOutcome, bs []byte) (n int) {
	n = ord.String.Marshal(v.RunID, bs)
	n += varint.Int.Marshal(v.BatchSeq, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.BatchID), bs[n:])
	n += varint.Int.Marshal(v.Records, bs[n:])
	n += varint.Int.Marshal(v.Attempts, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += ord.String.Marshal(v.LastError, bs[n:])
	n += varint.Int64.Marshal(timeToMicro(v.FinishedAt), bs[n:])
	return
}

func (outcomeSer) Unmarshal(bs []byte) (v core.BatchOutcome, n int, err error) {
	v.RunID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var (
		n1     int
		id     uint64
		status int
		ts     int64
	)
	v.BatchSeq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	id, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BatchID = core.ID(id)
	v.Records, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Attempts, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status = core.BatchStatus(status)
	v.LastError, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	ts, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FinishedAt = microToTime(ts)
	return
}

func (outcomeSer) Size(v core.BatchOutcome) (size int) {
	size = ord.String.Size(v.RunID)
	size += varint.Int.Size(v.BatchSeq)
	size += varint.Uint64.Size(uint64(v.BatchID))
	size += varint.Int.Size(v.Records)
	size += varint.Int.Size(v.Attempts)
	size += varint.Int.Size(int(v.Status))
	size += ord.String.Size(v.LastError)
	return size + varint.Int64.Size(timeToMicro(v.FinishedAt))
}
