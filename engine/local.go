package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"gamesolver/game"
	"gamesolver/searcher"
)

// Agent picks a move for the player whose turn it is.
type Agent interface {
	FindMove(state game.State) (game.Move, error)
}

// SolverAgent plays the move a solver proves best.
type SolverAgent struct {
	Solver *searcher.Solver
}

func (a SolverAgent) FindMove(state game.State) (game.Move, error) {
	result, err := a.Solver.Solve(state)
	if err != nil {
		return nil, err
	}
	return result.Move, nil
}

const maxTurns = 500

// Engine runs a local game loop between agents, one per player, in turn
// order.
type Engine struct {
	State  game.State
	Agents []Agent
}

// Local creates an engine over a starting state and its players' agents.
func Local(state game.State, agents []Agent) *Engine {
	if len(agents) < 2 {
		panic("need at least two agents")
	}
	return &Engine{State: state, Agents: agents}
}

// Run executes the game loop until a terminal state and returns it.
func (e *Engine) Run() (game.State, error) {
	turn := 0
	for !e.State.Terminal() {
		if turn >= maxTurns {
			return e.State, fmt.Errorf("no terminal state after %d turns", maxTurns)
		}
		agent := e.Agents[turn%len(e.Agents)]
		move, err := agent.FindMove(e.State)
		if err != nil {
			return e.State, fmt.Errorf("turn %d: %w", turn, err)
		}
		next, err := e.State.Apply(move)
		if err != nil {
			return e.State, fmt.Errorf("turn %d apply %s: %w", turn, move, err)
		}
		log.Info().Int("turn", turn).Stringer("move", move).Msg("played")
		e.State = next
		turn++
	}
	return e.State, nil
}
