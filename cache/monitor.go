package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// entryBytes approximates the resident cost of one table entry: the record,
// its entry wrapper, the map bucket slot, and allocator overhead.
const entryBytes = 96

// DefaultSafetyFraction is the share of available host memory the table may
// claim when the caller does not configure one.
const DefaultSafetyFraction = 0.25

// DefaultSampleInterval is how often the monitor re-reads host memory.
const DefaultSampleInterval = 5 * time.Second

type budgetSink interface {
	SetBudget(entries int64)
}

// Monitor samples host available memory out-of-band and pushes updated entry
// budgets to its table. It is advisory only: if sampling fails or the
// monitor never runs, the table keeps its last (or default) budget, so the
// search stays correct and merely loses adaptivity.
type Monitor struct {
	interval time.Duration
	fraction float64
	sink     budgetSink

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithSampleInterval sets how often host memory is sampled.
func WithSampleInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithSafetyFraction sets the fraction of available memory the table may
// use. Values outside (0, 1] are ignored.
func WithSafetyFraction(fraction float64) MonitorOption {
	return func(m *Monitor) {
		if fraction > 0 && fraction <= 1 {
			m.fraction = fraction
		}
	}
}

// NewMonitor creates a monitor. It does nothing until attached to a table
// (via cache.WithMonitor) and started.
func NewMonitor(options ...MonitorOption) *Monitor {
	m := &Monitor{
		interval: DefaultSampleInterval,
		fraction: DefaultSafetyFraction,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *Monitor) attach(sink budgetSink) {
	m.sink = sink
}

// Start launches the sampling loop. Starting an already running monitor is
// a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil || m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
}

// Stop halts the sampling loop and waits for it to exit. The table keeps
// the last pushed budget.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	m.sample()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("memory sample failed, keeping previous budget")
		return
	}
	budget := int64(float64(vm.Available)*m.fraction) / entryBytes
	m.sink.SetBudget(budget)
	log.Debug().
		Uint64("available", vm.Available).
		Int64("budget", budget).
		Msg("table budget updated")
}
