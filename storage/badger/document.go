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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
)

// DocumentStore is a storage.Destination backed by BadgerDB.
// Each batch is written in a single transaction, so a failed attempt
// leaves no partial batch behind.
type DocumentStore struct {
	backend *Backend
}

var (
	_ storage.Destination = (*DocumentStore)(nil)
	_ storage.Refresher   = (*DocumentStore)(nil)
)

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(backend *Backend) *DocumentStore {
	return &DocumentStore{
		backend: backend,
	}
}

// Ping reports whether the underlying database is still open.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// SubmitBatch stores every record of the batch, replacing documents with the same key.
func (s *DocumentStore) SubmitBatch(ctx context.Context, batch core.Batch) error {
	if batch.Len() == 0 {
		return storage.ErrEmptyBatch
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range batch.Records {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc := &storage.Document{
				Key:      record.Key(),
				Payload:  record.Payload(),
				BatchID:  batch.ID,
				StoredAt: now,
			}
			if err := tx.Set(makeDocumentKey(doc.Key), storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Refresh flushes pending writes to disk.
func (s *DocumentStore) Refresh(_ context.Context) error {
	return s.backend.Sync()
}

// Get retrieves a stored document by key.
// Returns storage.ErrNotFound if no document has that key.
func (s *DocumentStore) Get(ctx context.Context, key string) (*storage.Document, error) {
	var doc *storage.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Records returns every stored document as a record, in key order.
func (s *DocumentStore) Records(ctx context.Context) ([]core.Record, error) {
	records := []core.Record{}
	err := s.backend.scanPrefix([]byte(documentPrefix), func(val []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := storage.UnmarshalDocument(val)
		if err != nil {
			return err
		}
		record, err := core.NewRawRecord(doc.Key, doc.Payload)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
