package searcher

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SearchMetric summarizes one Solve call.
type SearchMetric struct {
	ID        uuid.UUID
	Workers   int
	Depth     int
	Duration  time.Duration
	Nodes     int64
	TableHits int64
	Cutoffs   int64
	Stopped   bool
}

// Collector gathers counters from concurrent search workers.
type Collector interface {
	Start(id uuid.UUID, workers, depth int)
	AddNode()
	AddTableHit()
	AddCutoff()
	SetStopped(value bool)
	Complete() SearchMetric
}

type collector struct {
	id        uuid.UUID
	workers   int
	depth     int
	startTime time.Time
	nodes     atomic.Int64
	tableHits atomic.Int64
	cutoffs   atomic.Int64
	stopped   atomic.Bool
}

// NewCollector returns a collector backed by atomic counters.
func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start(id uuid.UUID, workers, depth int) {
	c.id = id
	c.workers = workers
	c.depth = depth
	c.startTime = time.Now()
	c.nodes.Store(0)
	c.tableHits.Store(0)
	c.cutoffs.Store(0)
	c.stopped.Store(false)
}

func (c *collector) AddNode() {
	c.nodes.Add(1)
}

func (c *collector) AddTableHit() {
	c.tableHits.Add(1)
}

func (c *collector) AddCutoff() {
	c.cutoffs.Add(1)
}

func (c *collector) SetStopped(value bool) {
	c.stopped.Store(value)
}

func (c *collector) Complete() SearchMetric {
	return SearchMetric{
		ID:        c.id,
		Workers:   c.workers,
		Depth:     c.depth,
		Duration:  time.Since(c.startTime),
		Nodes:     c.nodes.Load(),
		TableHits: c.tableHits.Load(),
		Cutoffs:   c.cutoffs.Load(),
		Stopped:   c.stopped.Load(),
	}
}

type dummyCollector struct{}

// NewDummyCollector returns a no-op collector for searches that do not
// record metrics.
func NewDummyCollector() Collector {
	return dummyCollector{}
}

func (dummyCollector) Start(uuid.UUID, int, int) {}
func (dummyCollector) AddNode()                  {}
func (dummyCollector) AddTableHit()              {}
func (dummyCollector) AddCutoff()                {}
func (dummyCollector) SetStopped(bool)           {}
func (dummyCollector) Complete() SearchMetric    { return SearchMetric{} }
