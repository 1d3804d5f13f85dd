package board

// Direction vectors as (file, rank) steps.
var (
	orthogonalDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightSteps    = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps      = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

// IsCheck reports whether the king of color c is attacked.
func (p *Position) IsCheck(c Color) bool {
	ksq := p.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsCheck(p.side)
}

// IsSquareAttacked reports whether any piece of color by attacks sq. It
// probes outward from sq instead of scanning every piece.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	// A pawn of color by attacks sq from one rank behind it.
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.Offset(df, -by.forward()); ok {
			if pc := p.squares[from]; pc != nil && pc.Color == by && pc.Type == Pawn {
				return true
			}
		}
	}
	for _, st := range knightSteps {
		if from, ok := sq.Offset(st[0], st[1]); ok {
			if pc := p.squares[from]; pc != nil && pc.Color == by && pc.Type == Knight {
				return true
			}
		}
	}
	for _, st := range kingSteps {
		if from, ok := sq.Offset(st[0], st[1]); ok {
			if pc := p.squares[from]; pc != nil && pc.Color == by && pc.Type == King {
				return true
			}
		}
	}
	if p.rayAttacker(sq, by, orthogonalDirs, Rook) || p.rayAttacker(sq, by, diagonalDirs, Bishop) {
		return true
	}
	return false
}

// rayAttacker walks each ray from sq to the first piece and reports whether
// it is a slider of color by (of type slider, or a queen).
func (p *Position) rayAttacker(sq Square, by Color, dirs [4][2]int, slider PieceType) bool {
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.Offset(d[0], d[1])
			if !ok {
				break
			}
			cur = next
			pc := p.squares[cur]
			if pc == nil {
				continue
			}
			if pc.Color == by && (pc.Type == slider || pc.Type == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// Attackers returns the squares of all pieces of color by that threaten sq,
// asking each piece in turn.
func (p *Position) Attackers(sq Square, by Color) []Square {
	var out []Square
	for from, pc := range p.squares {
		if pc != nil && pc.Color == by && pc.Threatens(p, Square(from), sq) {
			out = append(out, Square(from))
		}
	}
	return out
}

var threatTests = [6]func(p *Position, pc *Piece, from, target Square) bool{
	Pawn:   pawnThreatens,
	Knight: knightThreatens,
	Bishop: bishopThreatens,
	Rook:   rookThreatens,
	Queen:  queenThreatens,
	King:   kingThreatens,
}

func pawnThreatens(_ *Position, pc *Piece, from, target Square) bool {
	return target.Rank()-from.Rank() == pc.Color.forward() && abs(target.File()-from.File()) == 1
}

func knightThreatens(_ *Position, _ *Piece, from, target Square) bool {
	df, dr := abs(target.File()-from.File()), abs(target.Rank()-from.Rank())
	return df*dr == 2
}

func kingThreatens(_ *Position, _ *Piece, from, target Square) bool {
	df, dr := abs(target.File()-from.File()), abs(target.Rank()-from.Rank())
	return df <= 1 && dr <= 1
}

func bishopThreatens(p *Position, _ *Piece, from, target Square) bool {
	df, dr := target.File()-from.File(), target.Rank()-from.Rank()
	return abs(df) == abs(dr) && p.clearBetween(from, target)
}

func rookThreatens(p *Position, _ *Piece, from, target Square) bool {
	df, dr := target.File()-from.File(), target.Rank()-from.Rank()
	return (df == 0 || dr == 0) && p.clearBetween(from, target)
}

func queenThreatens(p *Position, pc *Piece, from, target Square) bool {
	return bishopThreatens(p, pc, from, target) || rookThreatens(p, pc, from, target)
}

// clearBetween reports whether every square strictly between two aligned
// squares is empty.
func (p *Position) clearBetween(from, to Square) bool {
	sf, sr := sign(to.File()-from.File()), sign(to.Rank()-from.Rank())
	cur := from
	for {
		next, ok := cur.Offset(sf, sr)
		if !ok || next == to {
			return ok
		}
		if p.squares[next] != nil {
			return false
		}
		cur = next
	}
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
