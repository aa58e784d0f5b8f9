package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage/elasticsearch"
)

// DefaultSize is the number of hits returned when size is not positive.
const DefaultSize = 10

// Client is the subset of the Elasticsearch client used for searching.
type Client interface {
	Search(ctx context.Context, index string, query map[string]any, size int) (*elasticsearch.SearchResponse, error)
}

// Searcher runs match queries against one index.
type Searcher struct {
	client Client
	index  string
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over index.
func NewSearcher(client Client, index string, opts ...Option) (*Searcher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if index == "" {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		client: client,
		index:  index,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Match returns up to size documents whose field matches text.
func (s *Searcher) Match(ctx context.Context, field, text string, size int) ([]*core.SearchHit, error) {
	return s.MatchWithMonitor(ctx, field, text, size, nil)
}

// MatchWithMonitor is Match with callbacks at each stage of the search.
func (s *Searcher) MatchWithMonitor(ctx context.Context, field, text string, size int, monitor SearchMonitor) ([]*core.SearchHit, error) {
	if field == "" || text == "" {
		return nil, ErrEmptyQuery
	}
	if size <= 0 {
		size = DefaultSize
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(s.index, field, text)

	resp, err := s.client.Search(ctx, s.index, elasticsearch.MatchQuery(field, text), size)
	if err != nil {
		s.logger.Error("error executing match query", "index", s.index, "field", field, "err", err)
		return nil, err
	}
	monitor.AfterQuery(resp.Hits.Total.Value, time.Duration(resp.Took)*time.Millisecond)

	results := make([]*core.SearchHit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hit := &core.SearchHit{
			Key:    h.ID,
			Score:  h.Score,
			Source: h.Source,
		}
		monitor.Hit(hit)
		results = append(results, hit)
	}

	s.logger.Debug("match query completed", "index", s.index, "field", field,
		"total", resp.Hits.Total.Value, "returned", len(results))
	monitor.Finish(results)

	return results, nil
}
