package game

import "golang.org/x/exp/rand"

// Zobrist holds pre-generated random keys for incremental position hashing.
// A board hash is the XOR of one cell key per occupied cell plus the
// side-to-move key. Games embed one of these and XOR deltas on each move.
type Zobrist struct {
	cells [][]uint64
	sides []uint64
}

// NewZobrist generates keys for a board of the given cell count, number of
// per-cell piece states, and player count. The same seed always produces the
// same keys, so position keys are stable across runs.
func NewZobrist(cells, states, players int, seed uint64) *Zobrist {
	rng := rand.New(rand.NewSource(seed))
	z := &Zobrist{
		cells: make([][]uint64, cells),
		sides: make([]uint64, players),
	}
	for c := range z.cells {
		z.cells[c] = make([]uint64, states)
		for s := range z.cells[c] {
			z.cells[c][s] = rng.Uint64()
		}
	}
	for p := range z.sides {
		z.sides[p] = rng.Uint64()
	}
	return z
}

// Cell returns the key for a piece state occupying a cell.
func (z *Zobrist) Cell(cell, state int) uint64 {
	return z.cells[cell][state]
}

// Side returns the side-to-move key for a player.
func (z *Zobrist) Side(player int) uint64 {
	return z.sides[player]
}
