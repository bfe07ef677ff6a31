// Package nim implements normal-play nim: players alternate removing
// stones from one heap, and whoever takes the last stone wins.
package nim

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"gamesolver/game"
)

// Move removes Take stones from heap Heap.
type Move struct {
	Heap, Take int
}

func (m Move) String() string {
	return fmt.Sprintf("take %d from heap %d", m.Take, m.Heap)
}

// State is an immutable heap vector. Nim is impartial, so the position key
// does not include whose turn it is.
type State struct {
	heaps []int
	key   game.PositionKey
}

// New returns a state with the given heap sizes.
func New(heaps ...int) State {
	owned := make([]int, len(heaps))
	copy(owned, heaps)
	return State{heaps: owned, key: hashHeaps(owned)}
}

func hashHeaps(heaps []int) game.PositionKey {
	buf := make([]byte, 8*len(heaps))
	for i, h := range heaps {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(h))
	}
	return game.PositionKey(xxhash.Sum64(buf))
}

// Heaps returns a copy of the heap sizes.
func (s State) Heaps() []int {
	out := make([]int, len(s.heaps))
	copy(out, s.heaps)
	return out
}

func (s State) LegalMoves() []game.Move {
	var moves []game.Move
	for i, h := range s.heaps {
		for take := 1; take <= h; take++ {
			moves = append(moves, Move{Heap: i, Take: take})
		}
	}
	return moves
}

func (s State) Apply(mv game.Move) (game.State, error) {
	m, ok := mv.(Move)
	if !ok {
		return nil, fmt.Errorf("move %v is not a nim move: %w", mv, game.ErrInvalidMove)
	}
	if m.Heap < 0 || m.Heap >= len(s.heaps) {
		return nil, fmt.Errorf("no heap %d: %w", m.Heap, game.ErrInvalidMove)
	}
	if m.Take < 1 || m.Take > s.heaps[m.Heap] {
		return nil, fmt.Errorf("cannot take %d from heap of %d: %w", m.Take, s.heaps[m.Heap], game.ErrInvalidMove)
	}
	heaps := make([]int, len(s.heaps))
	copy(heaps, s.heaps)
	heaps[m.Heap] -= m.Take
	return State{heaps: heaps, key: hashHeaps(heaps)}, nil
}

func (s State) Terminal() bool {
	for _, h := range s.heaps {
		if h > 0 {
			return false
		}
	}
	return true
}

// Outcome: under normal play the previous mover took the last stone, so the
// player to move has lost.
func (s State) Outcome() int {
	return -1
}

func (s State) Key() game.PositionKey {
	return s.key
}
