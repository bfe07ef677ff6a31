package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gamesolver/cache"
	"gamesolver/searcher"
	"gamesolver/tictactoe"
)

func TestLocalSelfPlay(t *testing.T) {
	t.Run("two optimal players draw tic-tac-toe", func(t *testing.T) {
		table := cache.NewTable()
		agents := []Agent{
			SolverAgent{Solver: searcher.New(4, searcher.WithTable(table))},
			SolverAgent{Solver: searcher.New(4, searcher.WithTable(table))},
		}
		eng := Local(tictactoe.New(), agents)

		final, err := eng.Run()

		require.NoError(t, err)
		require.True(t, final.Terminal())
		require.Equal(t, 0, final.Outcome(), "optimal play on both sides ends in a draw")
	})

	t.Run("fewer than two agents is a programming error", func(t *testing.T) {
		require.Panics(t, func() {
			Local(tictactoe.New(), []Agent{SolverAgent{}})
		})
	})
}
