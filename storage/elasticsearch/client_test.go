package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCluster records requests and serves canned responses.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Auth        string
	Body        string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Auth:        r.Header.Get("Authorization"),
		Body:        string(body),
	})
	f.mu.Unlock()
	if f.handler != nil {
		f.handler(w, r, body)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{}`)
}

func (f *fakeCluster) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeCluster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func setupClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) (*Client, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{handler: handler}
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.URL = server.URL + "/"
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client, cluster
}

func newsRecords(t *testing.T, titles ...string) []core.Record {
	t.Helper()
	records := make([]core.Record, len(titles))
	for i, title := range titles {
		r, err := core.NewNews(title, "http://example.com").Record()
		require.NoError(t, err)
		records[i] = r
	}
	return records
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"https", Config{URL: "https://es.internal:9200"}, false},
		{"empty url", Config{}, true},
		{"bad scheme", Config{URL: "ftp://host"}, true},
		{"negative timeout", Config{URL: "http://host", Timeout: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClient_NilConfigUsesDefault(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9200", client.baseURL)
}

func TestPing(t *testing.T) {
	client, cluster := setupClient(t, nil)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, http.MethodGet, cluster.last().Method)
	assert.Equal(t, "/", cluster.last().Path)
}

func TestPing_ServerError(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestPing_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client, err := NewClient(&Config{URL: addr})
	require.NoError(t, err)

	assert.ErrorIs(t, client.Ping(context.Background()), ErrUnreachable)
}

func TestBasicAuth(t *testing.T) {
	cluster := &fakeCluster{}
	server := httptest.NewServer(cluster)
	defer server.Close()

	client, err := NewClient(&Config{URL: server.URL, Username: "elastic", Password: "changeme"})
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))

	assert.Equal(t, "Basic ZWxhc3RpYzpjaGFuZ2VtZQ==", cluster.last().Auth)
}

func TestIndexExists(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		if r.URL.Path == "/news-deneme" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ctx := context.Background()
	exists, err := client.IndexExists(ctx, "news-deneme")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.IndexExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateIndex(t *testing.T) {
	client, cluster := setupClient(t, nil)

	require.NoError(t, client.CreateIndex(context.Background(), "news-deneme", NewsIndex()))

	req := cluster.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/news-deneme", req.Path)
	assert.Equal(t, "application/json", req.ContentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	settings := body["settings"].(map[string]any)
	assert.EqualValues(t, 1, settings["number_of_shards"])
	assert.EqualValues(t, 1, settings["number_of_replicas"])
	assert.Contains(t, req.Body, `"html_strip"`)
	assert.Contains(t, req.Body, `"word_delimiter"`)
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"resource_already_exists_exception","reason":"index [news-deneme] already exists"},"status":400}`)
	})

	err := client.CreateIndex(context.Background(), "news-deneme", NewsIndex())
	assert.ErrorIs(t, err, ErrIndexExists)
}

func TestCreateIndex_OtherError(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"illegal_argument_exception","reason":"unknown filter"},"status":400}`)
	})

	err := client.CreateIndex(context.Background(), "news-deneme", NewsIndex())
	require.Error(t, err)

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "illegal_argument_exception", respErr.Type)
	assert.False(t, respErr.Temporary())
}

func TestEnsureIndex_SkipsExisting(t *testing.T) {
	client, cluster := setupClient(t, nil)

	require.NoError(t, client.EnsureIndex(context.Background(), "news-deneme", NewsIndex()))
	assert.Equal(t, 1, cluster.count(), "only the HEAD request should be sent")
	assert.Equal(t, http.MethodHead, cluster.last().Method)
}

func TestEnsureIndex_CreatesMissing(t *testing.T) {
	client, cluster := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"acknowledged":true}`)
	})

	require.NoError(t, client.EnsureIndex(context.Background(), "news-deneme", NewsIndex()))
	assert.Equal(t, http.MethodPut, cluster.last().Method)
}

func TestDeleteIndex(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, client.DeleteIndex(context.Background(), "gone"))
}

func TestBulk(t *testing.T) {
	client, cluster := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		io.WriteString(w, `{"took":3,"errors":false,"items":[]}`)
	})

	records := newsRecords(t, "istanbulda hava durumu", "galatasaray da transfer")
	require.NoError(t, client.Bulk(context.Background(), "news-deneme", records))

	req := cluster.last()
	assert.Equal(t, "/_bulk", req.Path)
	assert.Equal(t, "application/x-ndjson", req.ContentType)

	lines := []string{}
	scanner := bufio.NewScanner(strings.NewReader(req.Body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 4, "one action line and one source line per record")
	assert.JSONEq(t, `{"index":{"_index":"news-deneme","_id":"`+records[0].Key()+`"}}`, lines[0])
	assert.JSONEq(t, string(records[0].Payload()), lines[1])
	assert.True(t, strings.HasSuffix(req.Body, "\n"), "bulk body must end with a newline")
}

func TestBulk_Empty(t *testing.T) {
	client, cluster := setupClient(t, nil)
	require.NoError(t, client.Bulk(context.Background(), "news-deneme", nil))
	assert.Zero(t, cluster.count())
}

func TestBulk_ItemErrors(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		io.WriteString(w, `{"took":3,"errors":true,"items":[
			{"index":{"_id":"a","status":201}},
			{"index":{"_id":"b","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}
		]}`)
	})

	err := client.Bulk(context.Background(), "news-deneme", newsRecords(t, "a", "b"))
	require.Error(t, err)

	var bulkErr *BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, 2, bulkErr.Total)
	require.Len(t, bulkErr.Failed, 1)
	assert.Equal(t, "b", bulkErr.Failed[0].ID)
	assert.Equal(t, 400, bulkErr.Failed[0].Status)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestBulk_TooManyRequests(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"type":"es_rejected_execution_exception","reason":"queue full"},"status":429}`)
	})

	err := client.Bulk(context.Background(), "news-deneme", newsRecords(t, "a"))
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.True(t, respErr.Temporary())
}

func TestSearch(t *testing.T) {
	client, cluster := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		io.WriteString(w, `{"took":1,"hits":{"total":{"value":1},"hits":[
			{"_id":"x","_score":1.5,"_source":{"newsTitle":"istanbulda hava durumu"}}
		]}}`)
	})

	resp, err := client.Search(context.Background(), "news-deneme", MatchQuery("newsTitle", "hava"), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Hits.Total.Value)
	require.Len(t, resp.Hits.Hits, 1)
	assert.Equal(t, "x", resp.Hits.Hits[0].ID)
	assert.InDelta(t, 1.5, resp.Hits.Hits[0].Score, 0.0001)

	req := cluster.last()
	assert.Equal(t, "/news-deneme/_search", req.Path)
	assert.JSONEq(t, `{"size":10,"query":{"match":{"newsTitle":{"query":"hava"}}}}`, req.Body)
}

func TestRefresh(t *testing.T) {
	client, cluster := setupClient(t, nil)
	require.NoError(t, client.Refresh(context.Background(), "news-deneme"))
	assert.Equal(t, http.MethodPost, cluster.last().Method)
	assert.Equal(t, "/news-deneme/_refresh", cluster.last().Path)
}

func TestDestination(t *testing.T) {
	client, cluster := setupClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		io.WriteString(w, `{"errors":false,"items":[]}`)
	})
	dest := NewDestination(client, "news-deneme")
	ctx := context.Background()

	assert.Equal(t, "news-deneme", dest.Index())
	require.NoError(t, dest.Ping(ctx))
	require.NoError(t, dest.SubmitBatch(ctx, core.NewBatch(0, newsRecords(t, "a"))))
	assert.Equal(t, "/_bulk", cluster.last().Path)
	require.NoError(t, dest.Refresh(ctx))
	assert.Equal(t, "/news-deneme/_refresh", cluster.last().Path)

	assert.ErrorIs(t, dest.SubmitBatch(ctx, core.NewBatch(1, nil)), storage.ErrEmptyBatch)
}

func TestAutocompleteIndex(t *testing.T) {
	body, err := json.Marshal(AutocompleteIndex())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"edge_ngram"`)
	assert.Contains(t, string(body), `"min_gram":3`)
	assert.Contains(t, string(body), `"max_gram":8`)
	assert.Contains(t, string(body), `"auto-complete"`)
}
