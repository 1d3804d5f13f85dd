package engine

import (
	"sort"

	"github.com/hailam/chessai/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore = 10000000 // TT move gets highest priority
)

// scoredPosition pairs a successor with its ordering key.
type scoredPosition struct {
	pos   *board.Position
	score int
}

// OrderPositions sorts successors in place for searching: the position
// reached by preferred (if any) first, the rest by their static evaluation
// from side's perspective, best first. Equal keys keep generation order, so
// the result is deterministic.
func OrderPositions(children []*board.Position, preferred board.Move, side board.Color) []*board.Position {
	scored := make([]scoredPosition, len(children))
	for i, c := range children {
		s := c.Evaluate(side)
		if preferred != board.NoMove && c.LastMove() == preferred {
			s = TTMoveScore
		}
		scored[i] = scoredPosition{pos: c, score: s}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	for i := range scored {
		children[i] = scored[i].pos
	}
	return children
}
