// Package ingestion provides the bulk ingestion pipeline.
//
// A Pipeline takes a finite sequence of records, partitions it into
// fixed-size batches and submits them to a storage.Destination:
//   - At most MaxParallelism batches are in flight at any instant
//   - A failing batch is retried MaxRetries times with a fixed back-off
//   - An exhausted batch never aborts its siblings or the run
//
// Ingest returns a Run whose Done channel is closed exactly once, after
// every batch has reached a terminal outcome. Progress is reported through
// a single tagged-event Observer interface.
//
// Per-batch failures are never returned as errors. Callers inspect the
// Run's Summary or observe BatchFailed events. Only an unreachable
// destination fails Ingest itself.
package ingestion
