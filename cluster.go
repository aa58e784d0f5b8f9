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

package bulkseed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/bulkseed/ai"
	"github.com/poiesic/bulkseed/ai/openai"
	"github.com/poiesic/bulkseed/ingestion"
	"github.com/poiesic/bulkseed/search"
	"github.com/poiesic/bulkseed/storage"
	"github.com/poiesic/bulkseed/storage/badger"
	"github.com/poiesic/bulkseed/storage/elasticsearch"
)

// Cluster wires an Elasticsearch client with the optional embedding and
// ledger services used by ingestion.
type Cluster struct {
	client   *elasticsearch.Client
	embedder ai.Embedder
	aiConfig *ai.Config
	backend  *badger.Backend
	ledger   storage.LedgerRepository
	logger   *slog.Logger
}

// ClusterOption configures a Cluster.
type ClusterOption func(*clusterOptions)

type clusterOptions struct {
	aiConfig   *ai.Config
	embedder   ai.Embedder
	ledgerPath string
	logger     *slog.Logger
}

// WithEmbeddings enriches ingested documents with embeddings from an
// OpenAI-compatible service.
func WithEmbeddings(config *ai.Config) ClusterOption {
	return func(o *clusterOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder enriches ingested documents using embedder. Field names are
// taken from config, or ai.DefaultConfig() when config is nil.
func WithEmbedder(embedder ai.Embedder, config *ai.Config) ClusterOption {
	return func(o *clusterOptions) {
		o.embedder = embedder
		o.aiConfig = config
	}
}

// WithLedger records batch outcomes in a badger database at path.
func WithLedger(path string) ClusterOption {
	return func(o *clusterOptions) {
		o.ledgerPath = path
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ClusterOption {
	return func(o *clusterOptions) {
		o.logger = logger
	}
}

// NewCluster connects to the cluster described by config.
// No request is sent until the cluster is used.
func NewCluster(config *elasticsearch.Config, opts ...ClusterOption) (*Cluster, error) {
	options := &clusterOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	client, err := elasticsearch.NewClient(config, elasticsearch.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		client: client,
		logger: options.logger,
	}

	if options.embedder != nil || options.aiConfig != nil {
		c.aiConfig = options.aiConfig
		if c.aiConfig == nil {
			c.aiConfig = ai.DefaultConfig()
		}
		if err := c.aiConfig.Validate(); err != nil {
			return nil, err
		}
		c.embedder = options.embedder
		if c.embedder == nil {
			c.embedder, err = openai.NewEmbedder(c.aiConfig)
			if err != nil {
				return nil, err
			}
		}
	}

	if options.ledgerPath != "" {
		backend, err := badger.OpenBackend(options.ledgerPath, false)
		if err != nil {
			return nil, err
		}
		c.backend = backend
		c.ledger = badger.NewLedgerRepository(backend)
	}

	return c, nil
}

// Close releases the ledger database, if any.
func (c *Cluster) Close() error {
	if c.ledger == nil {
		return nil
	}
	if err := c.ledger.Close(); err != nil {
		c.logger.Error("error closing ledger repository", "err", err)
		return err
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing ledger storage", "err", err)
		return err
	}
	return nil
}

// Client returns the underlying Elasticsearch client.
func (c *Cluster) Client() *elasticsearch.Client {
	return c.client
}

// Ledger returns the outcome ledger, or nil when none was configured.
func (c *Cluster) Ledger() storage.LedgerRepository {
	return c.ledger
}

// CreateIndex creates the news index. With autocomplete set, the index also
// carries the edge n-gram auto-complete analyzer.
// Returns elasticsearch.ErrIndexExists if the index is already present.
func (c *Cluster) CreateIndex(ctx context.Context, index string, autocomplete bool) error {
	definition := elasticsearch.NewsIndex()
	if autocomplete {
		definition = elasticsearch.AutocompleteIndex()
	}
	return c.client.CreateIndex(ctx, index, definition)
}

// EnsureIndex creates the news index unless it already exists.
func (c *Cluster) EnsureIndex(ctx context.Context, index string) error {
	err := c.CreateIndex(ctx, index, false)
	if errors.Is(err, elasticsearch.ErrIndexExists) {
		return nil
	}
	return err
}

// NewIngestionPipeline creates a pipeline writing into index. Documents are
// enriched with embeddings and outcomes recorded in the ledger when the
// cluster was configured to do so.
func (c *Cluster) NewIngestionPipeline(index string, config *ingestion.Config, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	var destination storage.Destination = elasticsearch.NewDestination(c.client, index)

	if c.embedder != nil {
		embedding, err := ingestion.NewEmbeddingDestination(destination, c.embedder,
			c.aiConfig.TextField, c.aiConfig.VectorField, c.logger)
		if err != nil {
			return nil, err
		}
		destination = embedding
	}

	defaults := []ingestion.Option{ingestion.WithLogger(c.logger)}
	if c.ledger != nil {
		defaults = append(defaults, ingestion.WithLedger(c.ledger))
	}

	return ingestion.NewPipeline(destination, config, append(defaults, opts...)...)
}

// NewSearcher creates a searcher over index.
func (c *Cluster) NewSearcher(index string, opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(c.client, index, append([]search.Option{search.WithLogger(c.logger)}, opts...)...)
}
