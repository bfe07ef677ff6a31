// Package tictactoe implements the 3x3 game as a solver game definition.
package tictactoe

import (
	"fmt"
	"strings"

	"gamesolver/game"
)

type Cell int8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	}
	return "."
}

const size = 3
const cellCount = size * size

// Fixed seed keeps position keys stable across processes.
var zobrist = game.NewZobrist(cellCount, 2, 2, 0x9E3779B97F4A7C15)

// Move places the current player's mark at a cell.
type Move struct {
	Row, Col int
}

func (m Move) String() string {
	return fmt.Sprintf("%c%d", 'a'+m.Col, m.Row+1)
}

// State is an immutable board plus the player to move.
type State struct {
	board [cellCount]Cell
	turn  Cell
	key   game.PositionKey
}

// New returns the empty board with X to move.
func New() State {
	return State{turn: X, key: game.PositionKey(zobrist.Side(0))}
}

func index(row, col int) int { return row*size + col }

func pieceState(c Cell) int {
	if c == X {
		return 0
	}
	return 1
}

func sideIndex(c Cell) int {
	if c == X {
		return 0
	}
	return 1
}

// At returns the mark at a cell.
func (s State) At(row, col int) Cell {
	return s.board[index(row, col)]
}

// Turn returns the player to move.
func (s State) Turn() Cell {
	return s.turn
}

func (s State) LegalMoves() []game.Move {
	if s.Terminal() {
		return nil
	}
	var moves []game.Move
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if s.board[index(row, col)] == Empty {
				moves = append(moves, Move{Row: row, Col: col})
			}
		}
	}
	return moves
}

func (s State) Apply(mv game.Move) (game.State, error) {
	m, ok := mv.(Move)
	if !ok {
		return nil, fmt.Errorf("move %v is not a tictactoe move: %w", mv, game.ErrInvalidMove)
	}
	if m.Row < 0 || m.Row >= size || m.Col < 0 || m.Col >= size {
		return nil, fmt.Errorf("move %s out of bounds: %w", m, game.ErrInvalidMove)
	}
	if s.board[index(m.Row, m.Col)] != Empty || s.Terminal() {
		return nil, fmt.Errorf("cell %s not playable: %w", m, game.ErrInvalidMove)
	}
	next := s
	next.board[index(m.Row, m.Col)] = s.turn
	if s.turn == X {
		next.turn = O
	} else {
		next.turn = X
	}
	next.key ^= game.PositionKey(zobrist.Cell(index(m.Row, m.Col), pieceState(s.turn)))
	next.key ^= game.PositionKey(zobrist.Side(sideIndex(s.turn)))
	next.key ^= game.PositionKey(zobrist.Side(sideIndex(next.turn)))
	return next, nil
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

func (s State) winner() Cell {
	for _, line := range lines {
		c := s.board[line[0]]
		if c != Empty && c == s.board[line[1]] && c == s.board[line[2]] {
			return c
		}
	}
	return Empty
}

func (s State) empties() int {
	n := 0
	for _, c := range s.board {
		if c == Empty {
			n++
		}
	}
	return n
}

func (s State) Terminal() bool {
	return s.winner() != Empty || s.empties() == 0
}

// Outcome scores a terminal state for the player to move. Only the previous
// mover can have completed a line, so a decided game is always a loss here;
// the magnitude grows with the moves left on the board, making earlier wins
// worth more.
func (s State) Outcome() int {
	if s.winner() == Empty {
		return 0
	}
	return -(s.empties() + 1)
}

func (s State) Key() game.PositionKey {
	return s.key
}

func (s State) String() string {
	var b strings.Builder
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			b.WriteString(s.board[index(row, col)].String())
		}
		if row < size-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
