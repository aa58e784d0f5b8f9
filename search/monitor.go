package search

import (
	"time"

	"github.com/poiesic/bulkseed/core"
)

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(index, field, text string)
	AfterQuery(total int64, took time.Duration)
	Hit(hit *core.SearchHit)
	Finish(results []*core.SearchHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _, _ string)                {}
func (n *noopMonitor) AfterQuery(_ int64, _ time.Duration) {}
func (n *noopMonitor) Hit(_ *core.SearchHit)               {}
func (n *noopMonitor) Finish(_ []*core.SearchHit)          {}
