package searcher

import (
	"fmt"

	"gamesolver/cache"
	"gamesolver/game"
)

// Infinity bounds every score a game may produce. The initial search window
// is (-Infinity, Infinity).
const Infinity = 1 << 20

// unlimitedDepth stands in for "no depth budget" so the remaining-depth
// arithmetic needs no special case. No finite game recurses this deep.
const unlimitedDepth = 1 << 20

// search is the negamax recursion: the value of a state is the negation of
// the best successor value from the opponent's perspective. It consults the
// transposition table before recursing and stores its classified result
// after, pruning with the (alpha, beta) window.
func (s *Solver) search(st game.State, depth, alpha, beta int) (cache.Record, error) {
	s.metrics.AddNode()

	if s.stop.Load() {
		// Best-effort placeholder: trivially true, never Exact, never cached.
		return cache.Record{Value: -Infinity, Depth: 0, Bound: cache.BoundLower}, nil
	}
	if st.Terminal() {
		return cache.Record{Value: st.Outcome(), Depth: depth, Bound: cache.BoundExact}, nil
	}
	if depth <= 0 {
		// Budget exhausted before a terminal state: fall back to the
		// heuristic. Exact only at its own horizon; deeper probes skip it
		// because reuse requires stored depth >= requested depth.
		return cache.Record{Value: s.evaluate(st), Depth: 0, Bound: cache.BoundExact}, nil
	}

	origAlpha, origBeta := alpha, beta
	key := st.Key()
	if s.table != nil {
		if rec, ok := s.table.Get(key); ok && rec.Depth >= depth {
			s.metrics.AddTableHit()
			switch rec.Bound {
			case cache.BoundExact:
				return rec, nil
			case cache.BoundLower:
				if rec.Value >= beta {
					return rec, nil
				}
				if rec.Value > alpha {
					alpha = rec.Value
				}
			case cache.BoundUpper:
				if rec.Value <= alpha {
					return rec, nil
				}
				if rec.Value < beta {
					beta = rec.Value
				}
			}
		}
	}

	moves := st.LegalMoves()
	if len(moves) == 0 {
		return cache.Record{}, fmt.Errorf("non-terminal state %#x: %w", uint64(key), game.ErrNoLegalMoves)
	}

	value := -Infinity
	searched := 0
	stopped := false
	for _, mv := range moves {
		child, err := st.Apply(mv)
		if err != nil {
			return cache.Record{}, fmt.Errorf("apply %s: %w", mv, err)
		}
		childRec, err := s.search(child, depth-1, -beta, -alpha)
		if err != nil {
			return cache.Record{}, err
		}
		if s.stop.Load() {
			// The child result may be partial; discard it.
			stopped = true
			break
		}
		searched++
		if v := -childRec.Value; v > value {
			value = v
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			s.metrics.AddCutoff()
			break
		}
	}

	if stopped {
		if searched > 0 && value > origAlpha {
			// Fully searched children inside the window prove this much.
			return cache.Record{Value: value, Depth: 0, Bound: cache.BoundLower}, nil
		}
		return cache.Record{Value: -Infinity, Depth: 0, Bound: cache.BoundLower}, nil
	}

	rec := cache.Record{Value: value, Depth: depth}
	switch {
	case value <= origAlpha:
		rec.Bound = cache.BoundUpper
	case value >= origBeta:
		rec.Bound = cache.BoundLower
	default:
		rec.Bound = cache.BoundExact
	}
	if s.table != nil {
		s.table.Insert(key, rec)
	}
	return rec, nil
}

// provenValue is the value a record guarantees from its own perspective:
// exact values and lower bounds prove themselves, upper bounds prove
// nothing.
func provenValue(rec cache.Record) int {
	if rec.Bound == cache.BoundUpper {
		return -Infinity
	}
	return rec.Value
}

// negated converts a successor-perspective record to the parent's
// perspective: the value flips sign and lower/upper bounds swap roles.
func negated(rec cache.Record) cache.Record {
	out := cache.Record{Value: -rec.Value, Depth: rec.Depth, Bound: rec.Bound}
	switch rec.Bound {
	case cache.BoundLower:
		out.Bound = cache.BoundUpper
	case cache.BoundUpper:
		out.Bound = cache.BoundLower
	}
	return out
}
