package game

import "errors"

// PositionKey is a fixed-width hash of a State, used to index transposition
// lookups. Two distinct states may collide; the solver accepts that risk in
// exchange for O(1) comparable keys.
type PositionKey uint64

var (
	// ErrInvalidMove signals that a Game implementation is inconsistent
	// between LegalMoves and Apply. It is fatal to the search.
	ErrInvalidMove = errors.New("invalid move")

	// ErrNoLegalMoves signals a solve call on a state with no moves.
	// Callers must check Terminal before solving.
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Move is an opaque, game-defined action. Games must enumerate moves in a
// deterministic order; that order is the tie-break for equal-valued moves.
type Move interface {
	String() string
}

// State should be immutable - operations on State always return a new copy,
// never mutate a value another searcher may hold.
type State interface {
	// LegalMoves returns the legal moves in deterministic order. An empty
	// slice is only valid on a terminal state.
	LegalMoves() []Move
	// Apply plays a move and returns the successor state. Returns an error
	// wrapping ErrInvalidMove if the move is not legal here.
	Apply(Move) (State, error)
	// Terminal reports whether the game is over in this state.
	Terminal() bool
	// Outcome is the terminal score from the perspective of the player to
	// move: negative if they lost, zero for a draw. Only defined when
	// Terminal is true. Encoding remaining-move distance in the magnitude
	// makes the solver prefer faster wins.
	Outcome() int
	// Key is a pure function of the game-relevant state.
	Key() PositionKey
}

// Evaluate scores a non-terminal state from the current player's
// perspective: positive favors the player to move. Used only when a search
// runs out of depth budget before reaching a terminal state.
type Evaluate func(State) int
