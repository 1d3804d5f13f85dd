package board

// ApplyMove plays m on the position in place. The move is assumed to be
// pseudo-legal; callers that take moves from outside must match them
// against the generated legal moves first. A move from an empty square is
// ignored.
//
// Castling is recognised as a two-file king move and en passant as a
// diagonal pawn move onto the square the opponent's pawn just passed over.
// A pawn reaching its last rank without a recorded promotion becomes a
// queen.
func (p *Position) ApplyMove(m Move) {
	from, to := m.From(), m.To()
	mover := p.squares[from]
	if mover == nil {
		return
	}
	keys := p.tables.keys
	us, them := mover.Color, mover.Color.Other()

	// An occupied destination is a capture.
	p.remove(to)
	p.remove(from)

	placed := mover
	if mover.Type == Pawn && to.RelativeRank(us) == 7 {
		promo := m.Promotion()
		if promo == NoPieceType {
			promo = Queen
		}
		placed = p.tables.Piece(promo, us)
	}
	p.put(placed, to)

	if mover.Type == Pawn && from.File() != to.File() && int(p.epFile[them]) == to.File() && to.RelativeRank(us) == 5 {
		p.remove(NewSquare(to.File(), from.Rank()))
	}

	if mover.Type == King && abs(to.File()-from.File()) == 2 {
		kingSide := to.File() > from.File()
		if p.castling.CanCastle(us, kingSide) {
			rookFrom, rookTo := NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
			if kingSide {
				rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
			}
			if rook := p.remove(rookFrom); rook != nil {
				p.put(rook, rookTo)
			}
		}
	}

	p.side = them
	p.hash ^= keys.SideToMove

	for c := White; c <= Black; c++ {
		if f := p.epFile[c]; f >= 0 {
			p.hash ^= keys.EnPassant[c][f]
			p.epFile[c] = -1
		}
	}
	if mover.Type == Pawn && from.File() == to.File() && from.RelativeRank(us) == 1 && to.RelativeRank(us) == 3 {
		p.epFile[us] = int8(from.File())
		p.hash ^= keys.EnPassant[us][from.File()]
	}

	for i, squares := range castlingSquares {
		r := CastlingRights(1 << i)
		if p.castling&r == 0 {
			continue
		}
		for _, sq := range squares {
			if sq == from || sq == to {
				p.castling &^= r
				p.hash ^= keys.Castling[i]
				break
			}
		}
	}

	p.lastMove = m
}

// ApplyNullMove passes the turn. Only the side to move and its hash bit
// change.
func (p *Position) ApplyNullMove() {
	p.side = p.side.Other()
	p.hash ^= p.tables.keys.SideToMove
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
