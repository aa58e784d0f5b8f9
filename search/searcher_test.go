package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a canned response and records the request.
type stubClient struct {
	resp  *elasticsearch.SearchResponse
	err   error
	index string
	query map[string]any
	size  int
}

func (c *stubClient) Search(_ context.Context, index string, query map[string]any, size int) (*elasticsearch.SearchResponse, error) {
	c.index, c.query, c.size = index, query, size
	return c.resp, c.err
}

// recordingMonitor tracks which hooks fired.
type recordingMonitor struct {
	started  bool
	total    int64
	took     time.Duration
	hits     int
	finished []*core.SearchHit
}

func (m *recordingMonitor) Start(_, _, _ string)                       { m.started = true }
func (m *recordingMonitor) AfterQuery(total int64, took time.Duration) { m.total, m.took = total, took }
func (m *recordingMonitor) Hit(_ *core.SearchHit)                      { m.hits++ }
func (m *recordingMonitor) Finish(results []*core.SearchHit)           { m.finished = results }

func newsResponse(t *testing.T) *elasticsearch.SearchResponse {
	t.Helper()
	var resp elasticsearch.SearchResponse
	err := json.Unmarshal([]byte(`{"took":4,"hits":{"total":{"value":2},"hits":[
		{"_id":"1","_score":2.5,"_source":{"newsTitle":"istanbulda hava durumu","newsUrl":"http://istanbul.com.tr"}},
		{"_id":"2","_score":0.7,"_source":{"newsTitle":"hava durumu yarın","newsUrl":"http://deneme.com.tr"}}
	]}}`), &resp)
	require.NoError(t, err)
	return &resp
}

func TestNewSearcher(t *testing.T) {
	client := &stubClient{}

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(client, "news-deneme")
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(client, "news-deneme", WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil client", func(t *testing.T) {
		_, err := NewSearcher(nil, "news-deneme")
		assert.Equal(t, ErrClientRequired, err)
	})

	t.Run("empty index", func(t *testing.T) {
		_, err := NewSearcher(client, "")
		assert.Equal(t, ErrIndexRequired, err)
	})
}

func TestMatch(t *testing.T) {
	client := &stubClient{resp: newsResponse(t)}
	searcher, err := NewSearcher(client, "news-deneme", WithLogger(slog.Default()))
	require.NoError(t, err)

	hits, err := searcher.Match(context.Background(), "newsTitle", "hava", 5)
	require.NoError(t, err)

	assert.Equal(t, "news-deneme", client.index)
	assert.Equal(t, 5, client.size)
	assert.Equal(t, elasticsearch.MatchQuery("newsTitle", "hava"), client.query)

	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].Key)
	assert.InDelta(t, 2.5, hits[0].Score, 1e-9)

	var news core.News
	require.NoError(t, hits[0].Decode(&news))
	assert.Equal(t, "istanbulda hava durumu", news.NewsTitle)
	assert.Equal(t, "http://istanbul.com.tr", news.NewsURL)
}

func TestMatch_PreservesClusterOrder(t *testing.T) {
	resp := newsResponse(t)
	resp.Hits.Hits[0].Score, resp.Hits.Hits[1].Score = 0.1, 9.9
	searcher, err := NewSearcher(&stubClient{resp: resp}, "news-deneme")
	require.NoError(t, err)

	hits, err := searcher.Match(context.Background(), "newsTitle", "hava", 5)
	require.NoError(t, err)
	assert.Equal(t, "1", hits[0].Key, "ranking is left to the cluster")
}

func TestMatch_DefaultSize(t *testing.T) {
	client := &stubClient{resp: &elasticsearch.SearchResponse{}}
	searcher, err := NewSearcher(client, "news-deneme")
	require.NoError(t, err)

	hits, err := searcher.Match(context.Background(), "newsTitle", "hava", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)
	assert.Equal(t, DefaultSize, client.size)
}

func TestMatch_EmptyQuery(t *testing.T) {
	searcher, err := NewSearcher(&stubClient{}, "news-deneme")
	require.NoError(t, err)

	_, err = searcher.Match(context.Background(), "", "hava", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = searcher.Match(context.Background(), "newsTitle", "", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestMatch_ClientError(t *testing.T) {
	boom := errors.New("boom")
	searcher, err := NewSearcher(&stubClient{err: boom}, "news-deneme")
	require.NoError(t, err)

	_, err = searcher.Match(context.Background(), "newsTitle", "hava", 5)
	assert.ErrorIs(t, err, boom)
}

func TestMatchWithMonitor(t *testing.T) {
	searcher, err := NewSearcher(&stubClient{resp: newsResponse(t)}, "news-deneme")
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	hits, err := searcher.MatchWithMonitor(context.Background(), "newsTitle", "hava", 5, monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.EqualValues(t, 2, monitor.total)
	assert.Equal(t, 4*time.Millisecond, monitor.took)
	assert.Equal(t, 2, monitor.hits)
	assert.Equal(t, hits, monitor.finished)
}

func TestMatch_AgainstHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news-deneme/_search" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"took":1,"hits":{"total":{"value":1},"hits":[{"_id":"x","_score":1.0,"_source":{"newsTitle":"istanbulda hava durumu"}}]}}`)
	}))
	defer server.Close()

	client, err := elasticsearch.NewClient(&elasticsearch.Config{URL: server.URL})
	require.NoError(t, err)
	searcher, err := NewSearcher(client, "news-deneme")
	require.NoError(t, err)

	hits, err := searcher.Match(context.Background(), "newsTitle", "hava", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x", hits[0].Key)
}
