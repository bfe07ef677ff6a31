package searcher

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gamesolver/cache"
	"gamesolver/game"
)

// Option configures a Solver.
type Option func(*Solver)

// Solver computes game-theoretic values by fanning root moves out across a
// bounded worker pool, each branch running a single-threaded negamax search
// against the shared transposition table. A Solver is reusable but runs one
// Solve at a time.
type Solver struct {
	workers  int
	maxDepth int
	budget   time.Duration
	table    *cache.Table
	evaluate game.Evaluate
	metrics  Collector
	stop     atomic.Bool
}

// WithTable attaches a shared transposition table. Without one the solver
// still returns correct values, just without result reuse.
func WithTable(table *cache.Table) Option {
	return func(s *Solver) {
		s.table = table
	}
}

// WithMaxDepth caps the search depth. Positions beyond the horizon are
// scored by the heuristic instead of solved exactly.
func WithMaxDepth(depth int) Option {
	return func(s *Solver) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithTimeBudget sets a wall-clock cutoff. When it expires, in-flight
// searches return their best bound so far instead of an exact value.
func WithTimeBudget(budget time.Duration) Option {
	return func(s *Solver) {
		if budget > 0 {
			s.budget = budget
		}
	}
}

// WithEvaluationFn sets the heuristic used at the depth horizon.
func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(s *Solver) {
		if evaluate != nil {
			s.evaluate = evaluate
		}
	}
}

// WithMetrics enables per-search metrics collection.
func WithMetrics() Option {
	return func(s *Solver) {
		s.metrics = NewCollector()
	}
}

// New creates a solver with the given worker pool size.
func New(workers int, options ...Option) *Solver {
	if workers <= 0 {
		panic("need at least one worker")
	}
	s := &Solver{ // Default values
		workers:  workers,
		maxDepth: unlimitedDepth,
		evaluate: func(game.State) int { return 0 },
		metrics:  NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Result is the outcome of a Solve call: the best root move, its record
// (Exact unless the search was cancelled or hit the depth horizon), and the
// metrics of the search that produced it.
type Result struct {
	Move   game.Move
	Record cache.Record
	Metric SearchMetric
}

// MoveScore pairs one root move with its root-perspective record.
type MoveScore struct {
	Move   game.Move
	Record cache.Record
}

// Solve returns the best move from root and its value under optimal play.
// Ties break toward the first-enumerated move, so results are deterministic
// for deterministic games. Root must not be terminal.
func (s *Solver) Solve(root game.State) (Result, error) {
	id := uuid.New()
	s.metrics.Start(id, s.workers, s.maxDepth)

	scores, stopped, err := s.scoreRoots(root)
	if err != nil {
		return Result{}, err
	}

	// Rank moves by what their records prove. An upper bound proves
	// nothing about how good a move is, so a cancelled, barely-explored
	// branch never outranks a proven one.
	best := scores[0]
	for _, ms := range scores[1:] {
		if provenValue(ms.Record) > provenValue(best.Record) {
			best = ms
		}
	}

	// An Exact best record proves the root value only when every sibling
	// was fully explored. After a cancellation an unexplored branch may
	// still hide a better move, so the value is only a lower bound.
	if stopped && best.Record.Bound == cache.BoundExact {
		for _, ms := range scores {
			if ms.Record.Bound != cache.BoundExact {
				best.Record.Bound = cache.BoundLower
				break
			}
		}
	}

	s.metrics.SetStopped(stopped)
	metric := s.metrics.Complete()
	evt := log.Debug().
		Str("search", id.String()).
		Stringer("move", best.Move).
		Int("value", best.Record.Value).
		Stringer("bound", best.Record.Bound).
		Int64("nodes", metric.Nodes).
		Int64("cutoffs", metric.Cutoffs).
		Dur("elapsed", metric.Duration)
	if s.table != nil {
		stats := s.table.Stats()
		evt = evt.Uint64("probes", stats.Probes).Uint64("hits", stats.Hits)
	}
	evt.Msg("solve complete")

	return Result{Move: best.Move, Record: best.Record, Metric: metric}, nil
}

// MoveScores evaluates every root move and returns the full scored list in
// enumeration order, the way a front end ranks candidate moves.
func (s *Solver) MoveScores(root game.State) ([]MoveScore, error) {
	s.metrics.Start(uuid.New(), s.workers, s.maxDepth)
	scores, stopped, err := s.scoreRoots(root)
	if err != nil {
		return nil, err
	}
	s.metrics.SetStopped(stopped)
	s.metrics.Complete()
	return scores, nil
}

// Stop cancels the in-flight Solve, which returns a non-Exact record.
// Called with no search running, it arms the next one: that search bails
// out immediately with a trivial bound. Each search consumes the signal.
func (s *Solver) Stop() {
	s.stop.Store(true)
}

func (s *Solver) scoreRoots(root game.State) ([]MoveScore, bool, error) {
	moves := root.LegalMoves()
	if len(moves) == 0 {
		return nil, false, fmt.Errorf("solve root: %w", game.ErrNoLegalMoves)
	}

	if s.budget > 0 {
		timer := time.AfterFunc(s.budget, func() { s.stop.Store(true) })
		defer timer.Stop()
	}

	scores := make([]MoveScore, len(moves))
	var group errgroup.Group
	group.SetLimit(s.workers)
	for i, mv := range moves {
		i, mv := i, mv
		group.Go(func() error {
			child, err := root.Apply(mv)
			if err != nil {
				s.stop.Store(true) // structural error, drain other workers fast
				return fmt.Errorf("apply root move %s: %w", mv, err)
			}
			rec, err := s.search(child, s.maxDepth-1, -Infinity, Infinity)
			if err != nil {
				s.stop.Store(true)
				return err
			}
			scores[i] = MoveScore{Move: mv, Record: negated(rec)}
			return nil
		})
	}
	err := group.Wait()
	stopped := s.stop.Load()
	s.stop.Store(false)
	if err != nil {
		return nil, stopped, err
	}
	return scores, stopped, nil
}
