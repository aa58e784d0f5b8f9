// Package elasticsearch is a thin HTTP client for the parts of the
// Elasticsearch REST API used by bulkseed: ping, index administration,
// _bulk indexing, refresh and search.
//
// The client does not model the query DSL. Queries and index definitions
// are plain maps that are sent to the cluster as JSON; MatchQuery,
// NewsIndex and AutocompleteIndex build the ones the seeder needs.
//
// Destination adapts a Client and an index name to storage.Destination so
// the ingestion pipeline can seed the index.
package elasticsearch
