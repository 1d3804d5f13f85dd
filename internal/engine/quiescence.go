package engine

import (
	"github.com/hailam/chessai/internal/board"
)

// quiescence resolves captures below the horizon in negamax form, scoring
// from color's point of view. The static evaluation stands in when no
// capture improves on it.
func (s *Searcher) quiescence(pos *board.Position, color board.Color, alpha, beta, depth int) int {
	if s.checkStop() {
		return 0
	}
	s.nodes++

	standPat := pos.Evaluate(color)
	if depth <= 0 {
		return standPat
	}
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	captures := pos.PossibleNewPositions(nil, true)
	captures = OrderPositions(captures, board.NoMove, color)

	for _, child := range captures {
		if s.checkStop() {
			return 0
		}
		v := -s.quiescence(child, color.Other(), -beta, -alpha, depth-1)
		if s.aborted {
			return 0
		}
		if v >= beta {
			return beta
		}
		if v > alpha {
			alpha = v
		}
	}

	return alpha
}
