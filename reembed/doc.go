// Package reembed recomputes the vector field of documents already held in a
// local document store, for example after switching embedding models.
//
// Stored documents are fed back through an ingestion pipeline whose
// destination is the same store wrapped in an embedding decorator, so the
// usual batching, bounded parallelism and retry rules apply.
package reembed
