package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// forward is the rank direction pawns of this color advance in.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

// sign is +1 for White and -1 for Black; scores are kept from White's side.
func (c Color) sign() int {
	if c == White {
		return 1
	}
	return -1
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnbrqk"[pt]
}

// PieceValue returns the material value of the piece type in centipawns.
// Kings are never captured, so they carry no material.
var PieceValue = [7]int{100, 320, 330, 500, 900, 0, 0}

// PhaseWeight is the contribution of each piece type to the game-phase
// counter. A full set of minor and major pieces sums to MaxPhase.
var PhaseWeight = [7]int{0, 1, 1, 2, 4, 0, 0}

// MaxPhase is the phase counter of the starting material.
const MaxPhase = 24

// Piece is an immutable descriptor shared by every position built from the
// same Tables. Positions hold pointers into the catalog, so two pieces are
// the same kind exactly when the pointers are equal.
type Piece struct {
	Type  PieceType
	Color Color

	// mg and eg are the signed (White-positive) middlegame and endgame
	// scores of this piece on each square, material included.
	mg [64]int32
	eg [64]int32
}

func newPiece(pt PieceType, c Color) Piece {
	p := Piece{Type: pt, Color: c}
	mgTable, egTable := &pstMidgame[pt], &pstEndgame[pt]
	for sq := A1; sq <= H8; sq++ {
		// Tables are written from White's side with rank 8 on top.
		idx := sq.Mirror()
		if c == Black {
			idx = sq
		}
		s := int32(c.sign())
		p.mg[sq] = s * int32(PieceValue[pt]+mgTable[idx])
		p.eg[sq] = s * int32(PieceValue[pt]+egTable[idx])
	}
	return p
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p *Piece) String() string {
	if p == nil {
		return " "
	}
	ch := p.Type.Char()
	if p.Color == White {
		ch -= 'a' - 'A'
	}
	return string(ch)
}

// Phase returns the piece's contribution to the game-phase counter.
func (p *Piece) Phase() int {
	return PhaseWeight[p.Type]
}

// Score returns the tapered positional score of the piece standing on sq,
// from White's perspective, for the given phase counter.
func (p *Piece) Score(sq Square, phase int) int {
	return taper(int(p.mg[sq]), int(p.eg[sq]), phase)
}

// Moves appends the pseudo-legal moves of the piece standing on from.
func (p *Piece) Moves(pos *Position, from Square, ml *MoveList, captureOnly bool) {
	moveGenerators[p.Type](pos, p, from, ml, captureOnly)
}

// Threatens reports whether the piece standing on from attacks target.
func (p *Piece) Threatens(pos *Position, from, target Square) bool {
	if from == target {
		return false
	}
	return threatTests[p.Type](pos, p, from, target)
}

func taper(mg, eg, phase int) int {
	if phase > MaxPhase {
		phase = MaxPhase
	}
	return (mg*phase + eg*(MaxPhase-phase)) / MaxPhase
}

// pieceFromChar maps a FEN character to its type and color.
func pieceFromChar(c byte) (PieceType, Color, bool) {
	switch c {
	case 'P':
		return Pawn, White, true
	case 'N':
		return Knight, White, true
	case 'B':
		return Bishop, White, true
	case 'R':
		return Rook, White, true
	case 'Q':
		return Queen, White, true
	case 'K':
		return King, White, true
	case 'p':
		return Pawn, Black, true
	case 'n':
		return Knight, Black, true
	case 'b':
		return Bishop, Black, true
	case 'r':
		return Rook, Black, true
	case 'q':
		return Queen, Black, true
	case 'k':
		return King, Black, true
	default:
		return NoPieceType, NoColor, false
	}
}
