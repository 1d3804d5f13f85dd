package board

// Tables is the shared, read-only context every Position is built against:
// the piece catalog and the Zobrist keys. Positions from different Tables
// must not be mixed.
type Tables struct {
	pieces [2][6]Piece
	keys   *ZobristKeys
}

// NewTables builds a catalog around the given key set. A nil key set selects
// the reproducible keys for DefaultSeed.
func NewTables(keys *ZobristKeys) *Tables {
	if keys == nil {
		keys = NewZobristKeys(DefaultSeed)
	}
	t := &Tables{keys: keys}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			t.pieces[c][pt] = newPiece(pt, c)
		}
	}
	return t
}

// NewRandomTables builds a catalog with freshly drawn keys.
func NewRandomTables() *Tables {
	return NewTables(NewRandomZobristKeys())
}

// Piece returns the catalog descriptor for the given type and color.
func (t *Tables) Piece(pt PieceType, c Color) *Piece {
	if pt >= NoPieceType || c >= NoColor {
		return nil
	}
	return &t.pieces[c][pt]
}
