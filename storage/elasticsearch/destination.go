package elasticsearch

import (
	"context"

	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
)

// Destination binds a Client to one index so it can be used as the
// target of an ingestion pipeline.
type Destination struct {
	client *Client
	index  string
}

var (
	_ storage.Destination = (*Destination)(nil)
	_ storage.Refresher   = (*Destination)(nil)
)

// NewDestination creates a destination writing into index.
func NewDestination(client *Client, index string) *Destination {
	return &Destination{
		client: client,
		index:  index,
	}
}

// Index returns the name of the target index.
func (d *Destination) Index() string {
	return d.index
}

// Ping checks that the cluster is reachable.
func (d *Destination) Ping(ctx context.Context) error {
	return d.client.Ping(ctx)
}

// SubmitBatch bulk-indexes the batch.
func (d *Destination) SubmitBatch(ctx context.Context, batch core.Batch) error {
	if batch.Len() == 0 {
		return storage.ErrEmptyBatch
	}
	return d.client.Bulk(ctx, d.index, batch.Records)
}

// Refresh makes the indexed batches visible to search.
func (d *Destination) Refresh(ctx context.Context) error {
	return d.client.Refresh(ctx, d.index)
}
