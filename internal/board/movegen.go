package board

var moveGenerators = [6]func(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool){
	Pawn:   genPawnMoves,
	Knight: genKnightMoves,
	Bishop: genBishopMoves,
	Rook:   genRookMoves,
	Queen:  genQueenMoves,
	King:   genKingMoves,
}

// GeneratePseudoLegal appends the pseudo-legal moves of the side to move.
// Moves may still leave the mover's king attacked.
func (p *Position) GeneratePseudoLegal(ml *MoveList, captureOnly bool) {
	for sq, pc := range p.squares {
		if pc != nil && pc.Color == p.side {
			pc.Moves(p, Square(sq), ml, captureOnly)
		}
	}
}

// PossibleNewPositions appends to out one successor for every legal move of
// the side to move and returns the extended slice. With captureOnly set only
// captures (en passant included) are considered. Each successor records the
// move that produced it in LastMove.
func (p *Position) PossibleNewPositions(out []*Position, captureOnly bool) []*Position {
	var ml MoveList
	p.GeneratePseudoLegal(&ml, captureOnly)
	us := p.side
	for _, m := range ml.Slice() {
		child := p.Copy()
		child.ApplyMove(m)
		if child.IsCheck(us) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// LegalMoves returns the legal moves of the side to move.
func (p *Position) LegalMoves() []Move {
	children := p.PossibleNewPositions(nil, false)
	moves := make([]Move, len(children))
	for i, c := range children {
		moves[i] = c.LastMove()
	}
	return moves
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && len(p.PossibleNewPositions(nil, false)) == 0
}

// IsStalemate reports whether the side to move has no legal move and is not
// in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && len(p.PossibleNewPositions(nil, false)) == 0
}

func genPawnMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	us := pc.Color
	fwd := us.forward()

	addPawnMove := func(to Square) {
		if to.RelativeRank(us) == 7 {
			for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
				ml.Add(NewPromotion(from, to, promo))
			}
			return
		}
		ml.Add(NewMove(from, to))
	}

	if !captureOnly {
		if one, ok := from.Offset(0, fwd); ok && p.squares[one] == nil {
			addPawnMove(one)
			if from.RelativeRank(us) == 1 {
				if two, ok := from.Offset(0, 2*fwd); ok && p.squares[two] == nil {
					ml.Add(NewMove(from, two))
				}
			}
		}
	}

	epFile := int(p.epFile[us.Other()])
	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, fwd)
		if !ok {
			continue
		}
		if target := p.squares[to]; target != nil {
			if target.Color != us {
				addPawnMove(to)
			}
			continue
		}
		if to.File() == epFile && from.RelativeRank(us) == 4 {
			ml.Add(NewMove(from, to))
		}
	}
}

func genKnightMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	genSteps(p, pc, from, knightSteps[:], ml, captureOnly)
}

func genKingMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	genSteps(p, pc, from, kingSteps[:], ml, captureOnly)
	if !captureOnly {
		genCastling(p, pc, from, ml)
	}
}

func genBishopMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	genSlides(p, pc, from, diagonalDirs, ml, captureOnly)
}

func genRookMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	genSlides(p, pc, from, orthogonalDirs, ml, captureOnly)
}

// The queen moves as a bishop and a rook together.
func genQueenMoves(p *Position, pc *Piece, from Square, ml *MoveList, captureOnly bool) {
	genBishopMoves(p, pc, from, ml, captureOnly)
	genRookMoves(p, pc, from, ml, captureOnly)
}

func genSteps(p *Position, pc *Piece, from Square, steps [][2]int, ml *MoveList, captureOnly bool) {
	for _, st := range steps {
		to, ok := from.Offset(st[0], st[1])
		if !ok {
			continue
		}
		target := p.squares[to]
		if target == nil {
			if !captureOnly {
				ml.Add(NewMove(from, to))
			}
		} else if target.Color != pc.Color {
			ml.Add(NewMove(from, to))
		}
	}
}

func genSlides(p *Position, pc *Piece, from Square, dirs [4][2]int, ml *MoveList, captureOnly bool) {
	for _, d := range dirs {
		cur := from
		for {
			to, ok := cur.Offset(d[0], d[1])
			if !ok {
				break
			}
			cur = to
			target := p.squares[to]
			if target == nil {
				if !captureOnly {
					ml.Add(NewMove(from, to))
				}
				continue
			}
			if target.Color != pc.Color {
				ml.Add(NewMove(from, to))
			}
			break
		}
	}
}

// genCastling adds castling moves for a king on its home square. The king
// may not castle out of or through check; landing in check is left to the
// legality filter.
func genCastling(p *Position, pc *Piece, from Square, ml *MoveList) {
	us := pc.Color
	home := E1
	if us == Black {
		home = E8
	}
	if from != home || p.castling&(castlingRight(us, true)|castlingRight(us, false)) == 0 {
		return
	}
	them := us.Other()
	if p.IsSquareAttacked(from, them) {
		return
	}
	rank := from.Rank()
	rook := p.tables.Piece(Rook, us)

	if p.castling.CanCastle(us, true) &&
		p.squares[NewSquare(7, rank)] == rook &&
		p.squares[NewSquare(5, rank)] == nil && p.squares[NewSquare(6, rank)] == nil &&
		!p.IsSquareAttacked(NewSquare(5, rank), them) {
		ml.Add(NewMove(from, NewSquare(6, rank)))
	}
	if p.castling.CanCastle(us, false) &&
		p.squares[NewSquare(0, rank)] == rook &&
		p.squares[NewSquare(1, rank)] == nil && p.squares[NewSquare(2, rank)] == nil && p.squares[NewSquare(3, rank)] == nil &&
		!p.IsSquareAttacked(NewSquare(3, rank), them) {
		ml.Add(NewMove(from, NewSquare(2, rank)))
	}
}
