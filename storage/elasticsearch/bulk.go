package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poiesic/bulkseed/core"
)

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Took   int64                        `json:"took"`
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemResult `json:"items"`
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// encodeBulkBody renders records as an NDJSON _bulk body of index actions.
func encodeBulkBody(index string, records []core.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, record := range records {
		if err := enc.Encode(bulkAction{Index: bulkMeta{Index: index, ID: record.Key()}}); err != nil {
			return nil, err
		}
		// Compact keeps each document on a single line as NDJSON requires
		if err := json.Compact(&buf, record.Payload()); err != nil {
			return nil, fmt.Errorf("record %s: %w", record.Key(), err)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Bulk indexes records into index with a single _bulk request.
// Documents are keyed by record key, so resubmitting a batch overwrites
// rather than duplicates. Item-level rejections are returned as *BulkError.
func (c *Client) Bulk(ctx context.Context, index string, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	body, err := encodeBulkBody(index, records)
	if err != nil {
		return fmt.Errorf("encode bulk body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/_bulk", bytes.NewReader(body), "application/x-ndjson")
	if err != nil {
		return fmt.Errorf("execute bulk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readError(resp)
	}

	var result bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !result.Errors {
		c.logger.Debug("bulk indexed", "index", index, "count", len(records), "took", result.Took)
		return nil
	}

	bulkErr := &BulkError{Total: len(records)}
	for _, item := range result.Items {
		for _, res := range item {
			if res.Error == nil {
				continue
			}
			bulkErr.Failed = append(bulkErr.Failed, BulkItemError{
				ID:     res.ID,
				Status: res.Status,
				Type:   res.Error.Type,
				Reason: res.Error.Reason,
			})
		}
	}
	return bulkErr
}
