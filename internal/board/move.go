package board

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: promotion code (0=none, 1=Knight, 2=Bishop, 3=Rook, 4=Queen)
//
// Castling and en passant carry no flag; ApplyMove infers them from the
// position.
type Move uint16

// NoMove represents an invalid or null move. It shares its encoding with
// a1a1, which is never a legal move.
const NoMove Move = 0

// NewMove creates a move without promotion.
func NewMove(from, to Square) Move {
	return Move(from&0x3F) | Move(to&0x3F)<<6
}

// NewPromotion creates a promotion move. Types that cannot be promoted to
// are recorded as a queen promotion.
func NewPromotion(from, to Square, promo PieceType) Move {
	if promo < Knight || promo > Queen {
		promo = Queen
	}
	return NewMove(from, to) | Move(promo)<<12
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Promotion returns the requested promotion type, or NoPieceType.
func (m Move) Promotion() PieceType {
	code := PieceType(m >> 12)
	if code < Knight || code > Queen {
		return NoPieceType
	}
	return code
}

// IsPromotion returns true if a promotion type is recorded.
func (m Move) IsPromotion() bool {
	return m.Promotion() != NoPieceType
}

// String returns the coordinate form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	s := m.From().String() + m.To().String()
	if pt := m.Promotion(); pt != NoPieceType {
		s += string(pt.Char())
	}
	return s
}

// ParseMove reads coordinate notation without ever failing. Text that is not
// four or five characters long becomes a1a1, each unreadable coordinate
// becomes 0, and a fifth character other than n, b or r promotes to a queen.
// The result still has to be checked against the legal moves.
func ParseMove(s string) Move {
	if len(s) != 4 && len(s) != 5 {
		return NewMove(A1, A1)
	}
	from := NewSquare(fileIndex(s[0]), rankIndex(s[1]))
	to := NewSquare(fileIndex(s[2]), rankIndex(s[3]))
	if len(s) == 4 {
		return NewMove(from, to)
	}
	switch s[4] {
	case 'n', 'N':
		return NewPromotion(from, to, Knight)
	case 'b', 'B':
		return NewPromotion(from, to, Bishop)
	case 'r', 'R':
		return NewPromotion(from, to, Rook)
	default:
		return NewPromotion(from, to, Queen)
	}
}

func fileIndex(c byte) int {
	if c < 'a' || c > 'h' {
		return 0
	}
	return int(c - 'a')
}

func rankIndex(c byte) int {
	if c < '1' || c > '8' {
		return 0
	}
	return int(c - '1')
}

// MoveList is a fixed-size buffer the generators append to.
type MoveList struct {
	moves [256]Move
	count int
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
