package elasticsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrInvalidConfig is returned when the client configuration is unusable.
	ErrInvalidConfig = errors.New("invalid elasticsearch config")

	// ErrUnreachable is returned when the cluster does not answer a ping.
	ErrUnreachable = errors.New("elasticsearch unreachable")

	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("index already exists")
)

// ResponseError is an error reply from the cluster.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("elasticsearch error: %d %s: %s", e.StatusCode, e.Type, e.Reason)
	}
	return fmt.Sprintf("elasticsearch error: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Temporary reports whether retrying the request may succeed.
func (e *ResponseError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// readError converts an error response into a *ResponseError.
func readError(resp *http.Response) *ResponseError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	respErr := &ResponseError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	var envelope struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		respErr.Type = envelope.Error.Type
		respErr.Reason = envelope.Error.Reason
	}
	return respErr
}

// BulkItemError describes one document rejected by a bulk request.
type BulkItemError struct {
	ID     string
	Status int
	Type   string
	Reason string
}

// BulkError is returned when some items of a bulk request failed.
type BulkError struct {
	Total  int
	Failed []BulkItemError
}

func (e *BulkError) Error() string {
	if len(e.Failed) == 0 {
		return fmt.Sprintf("bulk request reported errors for 0/%d items", e.Total)
	}
	first := e.Failed[0]
	return fmt.Sprintf("bulk request failed for %d/%d items (first: %s %s: %s)",
		len(e.Failed), e.Total, first.ID, first.Type, first.Reason)
}
