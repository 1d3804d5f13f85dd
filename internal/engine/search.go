package engine

import (
	"github.com/hailam/chessai/internal/board"
)

// Search constants
const (
	Infinity = 1000000

	// A side with no legal move while in check scores
	// MateBase + depth*MateSlope for the winner, so nearer mates (found with
	// more depth left) score higher.
	MateBase  = 100000
	MateSlope = 1000

	// NullMoveReduction is subtracted from the remaining depth when the
	// null-move probe shows the opponent cannot exploit a free move.
	NullMoveReduction = 3

	// QuiescenceDepth bounds the capture-only search at the horizon.
	QuiescenceDepth = 4

	// DefaultMaxDepth is used when a search is started without a depth.
	DefaultMaxDepth = 6
)

// mateScore is the score of a mate found with depth plies still to search.
func mateScore(depth int) int {
	return MateBase + depth*MateSlope
}

// IsMateScore reports whether score stands for a forced mate either way.
func IsMateScore(score int) bool {
	return score >= MateBase || score <= -MateBase
}

// Searcher runs the minimax recursion for one root task. Scores are always
// from the root color's point of view: the maximizing side is the root
// color. Searchers share the transposition table and the time manager but
// nothing else, so each goroutine owns one.
type Searcher struct {
	tt    *TranspositionTable
	tm    *TimeManager
	nodes uint64

	// nullMove enables null-move reduction; nullCuts counts the reductions.
	nullMove bool
	nullCuts uint64

	// aborted is set once the time manager reports a stop; every value
	// computed afterwards is meaningless.
	aborted bool
}

// NewSearcher creates a searcher over a shared table and time manager.
func NewSearcher(tt *TranspositionTable, tm *TimeManager) *Searcher {
	return &Searcher{tt: tt, tm: tm, nullMove: true}
}

// Nodes returns the number of positions visited.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Aborted reports whether the last search was cut short.
func (s *Searcher) Aborted() bool {
	return s.aborted
}

func (s *Searcher) checkStop() bool {
	if s.aborted {
		return true
	}
	if s.tm.Stopped() {
		s.aborted = true
	}
	return s.aborted
}

// Search returns the minimax value of pos searched depth plies deep inside
// the window [alpha, beta]. maximizing is true when rootColor is to move.
// An aborted search returns 0 and must be discarded by the caller.
func (s *Searcher) Search(pos *board.Position, depth int, maximizing bool, rootColor board.Color, alpha, beta int) int {
	return s.search(pos, depth, maximizing, rootColor, alpha, beta)
}

func (s *Searcher) search(pos *board.Position, depth int, maximizing bool, root board.Color, alpha, beta int) int {
	if s.checkStop() {
		return 0
	}
	s.nodes++

	origAlpha, origBeta := alpha, beta
	hash := pos.Hash()

	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(hash, root); ok {
		ttMove = entry.BestMove
		if entry.Depth >= depth {
			switch entry.Flag {
			case TTExact:
				return entry.Score
			case TTLowerBound:
				alpha = max(alpha, entry.Score)
			case TTUpperBound:
				beta = min(beta, entry.Score)
			}
			if alpha >= beta {
				return entry.Score
			}
		}
	}

	if depth <= 0 {
		return s.horizon(pos, maximizing, root, alpha, beta)
	}

	children := pos.PossibleNewPositions(nil, false)
	inCheck := pos.InCheck()
	if len(children) == 0 {
		if !inCheck {
			return 0
		}
		if maximizing {
			return -mateScore(depth)
		}
		return mateScore(depth)
	}

	// Null-move reduction: if passing still fails high (or low for the
	// minimizer), the position is searched with less depth.
	if s.nullMove && !inCheck && depth > NullMoveReduction {
		null := pos.Copy()
		null.ApplyNullMove()
		var v int
		var reduce bool
		if maximizing {
			v = s.search(null, depth-1-NullMoveReduction, false, root, beta-1, beta)
			reduce = v >= beta
		} else {
			v = s.search(null, depth-1-NullMoveReduction, true, root, alpha, alpha+1)
			reduce = v <= alpha
		}
		if s.aborted {
			return 0
		}
		if reduce {
			s.nullCuts++
			depth -= NullMoveReduction
			if depth <= 0 {
				return s.horizon(pos, maximizing, root, alpha, beta)
			}
		}
	}

	children = OrderPositions(children, ttMove, pos.SideToMove())

	best := Infinity
	if maximizing {
		best = -Infinity
	}
	bestMove := board.NoMove

	for i, child := range children {
		if s.checkStop() {
			return 0
		}

		var v int
		switch {
		case i == 0:
			v = s.search(child, depth-1, !maximizing, root, alpha, beta)
		case maximizing:
			// Prove the move cannot beat alpha with a null window first.
			v = s.search(child, depth-1, false, root, alpha, alpha+1)
			if v > alpha && v < beta && !s.aborted {
				v = s.search(child, depth-1, false, root, alpha, beta)
			}
		default:
			v = s.search(child, depth-1, true, root, beta-1, beta)
			if v < beta && v > alpha && !s.aborted {
				v = s.search(child, depth-1, true, root, alpha, beta)
			}
		}
		if s.aborted {
			return 0
		}

		if maximizing {
			if v > best {
				best, bestMove = v, child.LastMove()
			}
			alpha = max(alpha, v)
		} else {
			if v < best {
				best, bestMove = v, child.LastMove()
			}
			beta = min(beta, v)
		}
		if alpha >= beta {
			break
		}
	}

	flag := TTExact
	switch {
	case best <= origAlpha:
		flag = TTUpperBound
	case best >= origBeta:
		flag = TTLowerBound
	}
	s.tt.Store(hash, depth, best, flag, bestMove, root)

	return best
}

// horizon hands a leaf to quiescence, which scores from the side to move,
// and converts the result back to the root color's point of view.
func (s *Searcher) horizon(pos *board.Position, maximizing bool, root board.Color, alpha, beta int) int {
	if maximizing {
		return s.quiescence(pos, root, alpha, beta, QuiescenceDepth)
	}
	return -s.quiescence(pos, root.Other(), -beta, -alpha, QuiescenceDepth)
}
