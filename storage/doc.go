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



// Package storage provides the destination abstraction for bulkseed.
//
// The ingestion pipeline only depends on the Destination interface defined
// here. Concrete destinations live in subpackages:
//
//   - elasticsearch: an index-bound destination that writes batches through
//     the cluster's _bulk API
//   - badger: an embedded destination that writes each batch in a single
//     BadgerDB transaction, plus a ledger of batch outcomes
//
// # Usage
//
// Seed a cluster index:
//
//	client := elasticsearch.NewClient(elasticsearch.DefaultConfig())
//	dest := elasticsearch.NewDestination(client, "news-deneme")
//
// Seed a local store in tests:
//
//	backend, _ := badger.OpenBackend("", true)
//	dest := badger.NewDocumentStore(backend)
//
// # Thread Safety
//
// All Destination implementations must be safe for concurrent use. The
// pipeline submits up to MaxParallelism batches at the same time.
//
// # Serialization
//
// Locally persisted documents and batch outcomes are encoded with mus-go
// serializers defined in serialization.go.
package storage
