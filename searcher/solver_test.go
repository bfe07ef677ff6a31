package searcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gamesolver/cache"
	"gamesolver/game"
	"gamesolver/nim"
	"gamesolver/tictactoe"
)

type mockMove struct {
	id int
}

func (m mockMove) String() string { return fmt.Sprintf("m%d", m.id) }

// mockState is a hand-built game tree: terminal leaves carry an outcome,
// inner nodes list their children in enumeration order.
type mockState struct {
	key      game.PositionKey
	outcome  int
	children []game.State
	// brokenMoves advertises moves Apply then rejects, to simulate a game
	// whose LegalMoves and Apply disagree.
	brokenMoves int
}

func (s *mockState) LegalMoves() []game.Move {
	n := len(s.children) + s.brokenMoves
	moves := make([]game.Move, n)
	for i := range moves {
		moves[i] = mockMove{id: i}
	}
	return moves
}

func (s *mockState) Apply(mv game.Move) (game.State, error) {
	m := mv.(mockMove)
	if m.id >= len(s.children) {
		return nil, fmt.Errorf("mock rejects %s: %w", m, game.ErrInvalidMove)
	}
	return s.children[m.id], nil
}

func (s *mockState) Terminal() bool        { return len(s.children) == 0 && s.brokenMoves == 0 }
func (s *mockState) Outcome() int          { return s.outcome }
func (s *mockState) Key() game.PositionKey { return s.key }

// stopOnExpand raises the solver's stop flag the moment the search expands
// it, mimicking a deadline that fires mid-branch.
type stopOnExpand struct {
	*mockState
	stop func()
}

func (s *stopOnExpand) LegalMoves() []game.Move {
	s.stop()
	return s.mockState.LegalMoves()
}

// countingCollector records lifecycle calls so tests can assert every
// started metric run gets closed out.
type countingCollector struct {
	dummyCollector
	started   int
	completed int
}

func (c *countingCollector) Start(uuid.UUID, int, int) { c.started++ }
func (c *countingCollector) Complete() SearchMetric    { c.completed++; return SearchMetric{} }

// wonPosition plays to a board where X owns a1 and b1 and wins at c1:
//
//	XX.
//	OO.
//	...
func wonPosition(t *testing.T) game.State {
	t.Helper()
	var state game.State = tictactoe.New()
	for _, m := range []tictactoe.Move{
		{Row: 0, Col: 0}, {Row: 1, Col: 0},
		{Row: 0, Col: 1}, {Row: 1, Col: 1},
	} {
		next, err := state.Apply(m)
		require.NoError(t, err)
		state = next
	}
	return state
}

func TestSolveTicTacToe(t *testing.T) {
	t.Run("empty board is a draw under optimal play", func(t *testing.T) {
		solver := New(4, WithTable(cache.NewTable()))

		result, err := solver.Solve(tictactoe.New())

		require.NoError(t, err)
		require.Equal(t, cache.BoundExact, result.Record.Bound, "exhaustive search should prove its value")
		require.Equal(t, 0, result.Record.Value, "optimal play from the empty board is a draw")
	})

	t.Run("single move to win is found with an exact win value", func(t *testing.T) {
		solver := New(2, WithTable(cache.NewTable()))

		result, err := solver.Solve(wonPosition(t))

		require.NoError(t, err)
		require.Equal(t, tictactoe.Move{Row: 0, Col: 2}, result.Move, "completing the top row wins immediately")
		require.Equal(t, cache.BoundExact, result.Record.Bound)
		require.Positive(t, result.Record.Value)
	})

	t.Run("single move to win needs only one ply of search", func(t *testing.T) {
		solver := New(2, WithMaxDepth(1))

		result, err := solver.Solve(wonPosition(t))

		require.NoError(t, err)
		require.Equal(t, tictactoe.Move{Row: 0, Col: 2}, result.Move)
		require.Positive(t, result.Record.Value, "winning child is terminal, so depth 1 sees the true outcome")
	})

	t.Run("repeated solves return the same move and value", func(t *testing.T) {
		first, err := New(4, WithTable(cache.NewTable())).Solve(tictactoe.New())
		require.NoError(t, err)
		second, err := New(4, WithTable(cache.NewTable())).Solve(tictactoe.New())
		require.NoError(t, err)

		require.Equal(t, first.Move, second.Move)
		require.Equal(t, first.Record.Value, second.Record.Value)
		require.Equal(t, first.Record.Bound, second.Record.Bound)
	})

	t.Run("disabling the table changes time but never the value", func(t *testing.T) {
		cached, err := New(4, WithTable(cache.NewTable())).Solve(tictactoe.New())
		require.NoError(t, err)
		uncached, err := New(4).Solve(tictactoe.New())
		require.NoError(t, err)

		require.Equal(t, cached.Record.Value, uncached.Record.Value)
		require.Equal(t, cached.Move, uncached.Move)
	})

	t.Run("zero table budget degrades to no caching, not failure", func(t *testing.T) {
		table := cache.NewTable(cache.WithBudget(0))
		solver := New(4, WithTable(table))

		result, err := solver.Solve(tictactoe.New())

		require.NoError(t, err)
		require.Equal(t, cache.BoundExact, result.Record.Bound)
		require.Equal(t, 0, result.Record.Value)
		require.Zero(t, table.Len(), "a zero budget must keep the table empty")
	})
}

func TestSolveNim(t *testing.T) {
	t.Run("zero nim-sum positions are lost for the mover", func(t *testing.T) {
		solver := New(4, WithTable(cache.NewTable()))

		result, err := solver.Solve(nim.New(1, 2, 3))

		require.NoError(t, err)
		require.Equal(t, cache.BoundExact, result.Record.Bound)
		require.Equal(t, -1, result.Record.Value)
	})

	t.Run("non-zero nim-sum positions are won for the mover", func(t *testing.T) {
		solver := New(4, WithTable(cache.NewTable()))

		result, err := solver.Solve(nim.New(1, 3))

		require.NoError(t, err)
		require.Equal(t, cache.BoundExact, result.Record.Bound)
		require.Equal(t, 1, result.Record.Value)
		require.Equal(t, nim.Move{Heap: 1, Take: 2}, result.Move, "the winning reply levels the heaps")
	})
}

func TestSolveErrors(t *testing.T) {
	t.Run("terminal root surfaces NoLegalMoves", func(t *testing.T) {
		solver := New(2)

		_, err := solver.Solve(nim.New(0))

		require.ErrorIs(t, err, game.ErrNoLegalMoves)
	})

	t.Run("inconsistent game surfaces InvalidMove at the root", func(t *testing.T) {
		root := &mockState{key: 1, brokenMoves: 1}
		solver := New(2)

		_, err := solver.Solve(root)

		require.ErrorIs(t, err, game.ErrInvalidMove)
	})

	t.Run("inconsistent game surfaces InvalidMove from deep in the tree", func(t *testing.T) {
		broken := &mockState{key: 3, brokenMoves: 1}
		root := &mockState{key: 1, children: []game.State{
			&mockState{key: 2, children: []game.State{broken}},
		}}
		solver := New(2)

		_, err := solver.Solve(root)

		require.ErrorIs(t, err, game.ErrInvalidMove)
	})
}

func TestSolveCancellation(t *testing.T) {
	t.Run("expired budget returns a provisional bound quickly", func(t *testing.T) {
		// Large enough that no root branch can possibly finish without the
		// table's help before the budget expires.
		root := nim.New(7, 8, 9, 10)
		solver := New(4, WithTimeBudget(time.Millisecond), WithMetrics())

		started := time.Now()
		result, err := solver.Solve(root)

		require.NoError(t, err)
		require.Less(t, time.Since(started), 5*time.Second, "cancellation must take effect promptly")
		require.NotEqual(t, cache.BoundExact, result.Record.Bound, "a cancelled search only proves a bound")
		require.True(t, result.Metric.Stopped)
	})

	t.Run("stop during the search cancels in-flight work", func(t *testing.T) {
		solver := New(2)
		go func() {
			time.Sleep(10 * time.Millisecond)
			solver.Stop()
		}()

		result, err := solver.Solve(nim.New(7, 8, 9, 10))

		require.NoError(t, err)
		require.NotEqual(t, cache.BoundExact, result.Record.Bound)
	})

	t.Run("stop before the search bounds the next solve", func(t *testing.T) {
		solver := New(2, WithMetrics())
		solver.Stop()

		started := time.Now()
		result, err := solver.Solve(tictactoe.New())

		require.NoError(t, err)
		require.Less(t, time.Since(started), time.Second, "an armed stop must cut the search short")
		require.NotEqual(t, cache.BoundExact, result.Record.Bound)
		require.True(t, result.Metric.Stopped)

		// The signal is consumed, so the solver stays reusable.
		result, err = solver.Solve(wonPosition(t))
		require.NoError(t, err)
		require.Equal(t, cache.BoundExact, result.Record.Bound)
	})

	t.Run("a finished branch is not reported exact while siblings are unexplored", func(t *testing.T) {
		solver := New(1)
		losing := &mockState{key: 2, outcome: 5} // opponent wins down this branch
		unexplored := &stopOnExpand{
			mockState: &mockState{key: 3, children: []game.State{
				&mockState{key: 4, outcome: -9}, // mover would win here
			}},
			stop: solver.Stop,
		}
		root := &mockState{key: 1, children: []game.State{losing, unexplored}}

		result, err := solver.Solve(root)

		require.NoError(t, err)
		require.Equal(t, mockMove{id: 0}, result.Move)
		require.Equal(t, -5, result.Record.Value)
		require.NotEqual(t, cache.BoundExact, result.Record.Bound,
			"the cancelled branch may still hide a better move")
	})
}

func TestMoveScores(t *testing.T) {
	t.Run("scores every root move in enumeration order", func(t *testing.T) {
		state := wonPosition(t)
		solver := New(2, WithTable(cache.NewTable()))

		scores, err := solver.MoveScores(state)

		require.NoError(t, err)
		require.Len(t, scores, len(state.LegalMoves()))
		for i, mv := range state.LegalMoves() {
			require.Equal(t, mv, scores[i].Move, "scores must follow enumeration order")
		}
		require.Equal(t, tictactoe.Move{Row: 0, Col: 2}, scores[0].Move)
		require.Positive(t, scores[0].Record.Value, "the winning move must score positive")
	})

	t.Run("completes its metric run", func(t *testing.T) {
		collector := &countingCollector{}
		solver := New(2)
		solver.metrics = collector

		_, err := solver.MoveScores(wonPosition(t))

		require.NoError(t, err)
		require.Equal(t, 1, collector.started)
		require.Equal(t, 1, collector.completed, "a started run must not dangle")
	})
}

func TestNegated(t *testing.T) {
	require.Equal(t,
		cache.Record{Value: -3, Depth: 5, Bound: cache.BoundUpper},
		negated(cache.Record{Value: 3, Depth: 5, Bound: cache.BoundLower}),
		"lower bounds become upper bounds from the parent's perspective")
	require.Equal(t,
		cache.Record{Value: 2, Depth: 1, Bound: cache.BoundLower},
		negated(cache.Record{Value: -2, Depth: 1, Bound: cache.BoundUpper}))
	require.Equal(t,
		cache.Record{Value: -7, Depth: 0, Bound: cache.BoundExact},
		negated(cache.Record{Value: 7, Depth: 0, Bound: cache.BoundExact}))
}
