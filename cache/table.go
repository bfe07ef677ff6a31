package cache

import (
	"sync"
	"sync/atomic"

	"gamesolver/game"
)

// Bound describes whether a Record's value is the true negamax value or only
// a pruning-induced bound on it.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower
	BoundUpper
)

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundLower:
		return "lower"
	case BoundUpper:
		return "upper"
	}
	return "unknown"
}

// Record is the result of a (sub-)search: a score, the bound type required
// to reuse it safely, and the remaining depth it was searched to.
type Record struct {
	Value int
	Depth int
	Bound Bound
}

const shardCount = 64 // power of two

// evictSample bounds the work done per insert when over budget: evict the
// oldest of a small sample rather than scanning the whole shard.
const evictSample = 8

type entry struct {
	rec Record
	gen atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[game.PositionKey]*entry
}

// Table is a concurrent transposition table shared by all search workers.
// It guarantees per-key atomicity (a record is replaced wholesale, never
// mutated in place) but no ordering across keys: two workers may both solve
// the same position and the deeper result wins.
type Table struct {
	shards  [shardCount]shard
	budget  atomic.Int64
	size    atomic.Int64
	clock   atomic.Uint64
	cursor  atomic.Uint64
	probes  atomic.Uint64
	hits    atomic.Uint64
	monitor *Monitor
}

// Stats is a snapshot of table activity.
type Stats struct {
	Probes  uint64
	Hits    uint64
	Entries int64
}

// Option configures a Table.
type Option func(*Table)

// WithBudget sets the initial entry budget. A budget of zero or less
// disables caching entirely.
func WithBudget(entries int64) Option {
	return func(t *Table) {
		t.budget.Store(entries)
	}
}

// WithMonitor attaches a memory monitor that owns the budget from then on.
// The table manages the monitor's lifecycle through Start and Stop.
func WithMonitor(m *Monitor) Option {
	return func(t *Table) {
		t.monitor = m
	}
}

// DefaultBudget is the fixed entry budget used when no memory monitor is
// attached or while it has not sampled yet.
const DefaultBudget = 1 << 20

// NewTable creates an empty table with the default budget.
func NewTable(options ...Option) *Table {
	t := &Table{}
	t.budget.Store(DefaultBudget)
	for i := range t.shards {
		t.shards[i].entries = make(map[game.PositionKey]*entry)
	}
	for _, option := range options {
		option(t)
	}
	if t.monitor != nil {
		t.monitor.attach(t)
	}
	return t
}

// Start begins background budget maintenance, if a monitor is attached.
func (t *Table) Start() {
	if t.monitor != nil {
		t.monitor.Start()
	}
}

// Stop halts background budget maintenance.
func (t *Table) Stop() {
	if t.monitor != nil {
		t.monitor.Stop()
	}
}

func (t *Table) shardFor(key game.PositionKey) *shard {
	return &t.shards[uint64(key)&(shardCount-1)]
}

// Get returns the stored record for a key, if any, and marks it
// recently used.
func (t *Table) Get(key game.PositionKey) (Record, bool) {
	if t.budget.Load() <= 0 {
		return Record{}, false
	}
	t.probes.Add(1)
	s := t.shardFor(key)
	s.mu.RLock()
	e := s.entries[key]
	s.mu.RUnlock()
	if e == nil {
		return Record{}, false
	}
	e.gen.Store(t.clock.Add(1))
	t.hits.Add(1)
	return e.rec, true
}

// Insert stores a record for a key. An existing deeper record is never
// replaced by a shallower one, so the stored value for any key is always at
// least as trustworthy as any concurrently computed alternative.
func (t *Table) Insert(key game.PositionKey, rec Record) {
	if t.budget.Load() <= 0 {
		return
	}
	s := t.shardFor(key)
	s.mu.Lock()
	if old := s.entries[key]; old != nil {
		if old.rec.Depth > rec.Depth {
			s.mu.Unlock()
			return
		}
	} else {
		t.size.Add(1)
	}
	e := &entry{rec: rec}
	e.gen.Store(t.clock.Add(1))
	s.entries[key] = e
	s.mu.Unlock()
	t.evict(key)
}

// maxEvictPerInsert caps eviction work piggybacked on one insert. After a
// large budget shrink the surplus drains over many inserts instead of
// stalling a single worker.
const maxEvictPerInsert = 32

// evict trims the table while over budget, walking shards behind a rotating
// cursor so the surplus drains wherever it lives, not just in the inserting
// shard. The fresh key is exempt so an insert never undoes itself.
func (t *Table) evict(keep game.PositionKey) {
	budget := t.budget.Load()
	evicted := 0
	for scanned := 0; scanned < shardCount; scanned++ {
		if t.size.Load() <= budget || evicted >= maxEvictPerInsert {
			return
		}
		s := &t.shards[t.cursor.Add(1)&(shardCount-1)]
		s.mu.Lock()
		for evicted < maxEvictPerInsert && t.size.Load() > budget {
			victim, ok := s.victimLocked(keep)
			if !ok {
				break
			}
			delete(s.entries, victim)
			t.size.Add(-1)
			evicted++
		}
		s.mu.Unlock()
	}
}

// victimLocked samples a handful of entries and picks the least recently
// used, skipping keep.
func (s *shard) victimLocked(keep game.PositionKey) (game.PositionKey, bool) {
	var victim game.PositionKey
	oldest := ^uint64(0)
	found := false
	sampled := 0
	for key, e := range s.entries {
		if key == keep {
			continue
		}
		if g := e.gen.Load(); g <= oldest {
			oldest = g
			victim = key
			found = true
		}
		sampled++
		if sampled >= evictSample {
			break
		}
	}
	return victim, found
}

// SetBudget replaces the entry budget. Shrinking is advisory: existing
// entries are evicted lazily by later inserts, except a non-positive budget
// which disables caching and drops everything immediately.
func (t *Table) SetBudget(entries int64) {
	t.budget.Store(entries)
	if entries <= 0 {
		t.purge()
	}
}

func (t *Table) purge() {
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		t.size.Add(-int64(len(s.entries)))
		s.entries = make(map[game.PositionKey]*entry)
		s.mu.Unlock()
	}
}

// Capacity returns the current entry budget.
func (t *Table) Capacity() int64 {
	return t.budget.Load()
}

// Len returns the number of live entries.
func (t *Table) Len() int64 {
	return t.size.Load()
}

// Stats returns a snapshot of probe and hit counters.
func (t *Table) Stats() Stats {
	return Stats{
		Probes:  t.probes.Load(),
		Hits:    t.hits.Load(),
		Entries: t.size.Load(),
	}
}
