package board

import (
	"errors"
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castlingRight(c, kingSide) != 0
}

func castlingRight(c Color, kingSide bool) CastlingRights {
	r := WhiteKingSideCastle
	if !kingSide {
		r = WhiteQueenSideCastle
	}
	if c == Black {
		r <<= 2
	}
	return r
}

// castlingSquares lists, per right (in bit order), the king and rook home
// squares whose disturbance forfeits the right.
var castlingSquares = [4][2]Square{
	{E1, H1},
	{E1, A1},
	{E8, H8},
	{E8, A8},
}

// Position is a mailbox board with its derived state maintained
// incrementally: the Zobrist hash, the middlegame and endgame score sums and
// the phase counter always equal what a full recomputation would give.
//
// Positions are values that are copied and then mutated; search never undoes
// a move.
type Position struct {
	tables  *Tables
	squares [64]*Piece

	side     Color
	castling CastlingRights
	// epFile is indexed by the color of the pawn that just double-stepped.
	epFile [2]int8

	hash   uint64
	mg, eg int32
	phase  int

	kings    [2]Square
	lastMove Move
}

// NewPosition creates an empty board with White to move.
func NewPosition(t *Tables) *Position {
	p := &Position{tables: t}
	p.epFile = [2]int8{-1, -1}
	p.kings = [2]Square{NoSquare, NoSquare}
	return p
}

// StartPosition creates the standard initial position.
func StartPosition(t *Tables) *Position {
	pos, err := ParseFEN(t, StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// Tables returns the catalog this position is built against.
func (p *Position) Tables() *Tables {
	return p.tables
}

// At returns the piece on sq, or nil if empty.
func (p *Position) At(sq Square) *Piece {
	return p.squares[sq]
}

// PieceAt returns the piece on file x and rank y, both 0-based, with (0, 0)
// being a1. Coordinates off the board yield nil.
func (p *Position) PieceAt(x, y int) *Piece {
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return nil
	}
	return p.squares[NewSquare(x, y)]
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	return p.side
}

// IsWhiteSideToMove reports whether White is to move.
func (p *Position) IsWhiteSideToMove() bool {
	return p.side == White
}

// CastlingRights returns the remaining castling rights.
func (p *Position) CastlingRights() CastlingRights {
	return p.castling
}

// EnPassantFile returns the file on which a pawn of color c just made a
// double step, or -1.
func (p *Position) EnPassantFile(c Color) int {
	return int(p.epFile[c])
}

// EnPassantSquare returns the square a capturing pawn of the side to move
// would land on, or NoSquare.
func (p *Position) EnPassantSquare() Square {
	them := p.side.Other()
	f := p.epFile[them]
	if f < 0 {
		return NoSquare
	}
	// The square the double-stepping pawn passed over.
	rank := 2
	if them == Black {
		rank = 5
	}
	return NewSquare(int(f), rank)
}

// Hash returns the Zobrist hash.
func (p *Position) Hash() uint64 {
	return p.hash
}

// LastMove returns the move that produced this position, or NoMove.
func (p *Position) LastMove() Move {
	return p.lastMove
}

// KingSquare returns the square of the king of color c, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	return p.kings[c]
}

// Phase returns the game-phase counter (24 with all pieces on the board).
func (p *Position) Phase() int {
	return p.phase
}

// Evaluation returns the static evaluation from White's perspective.
func (p *Position) Evaluation() int {
	return taper(int(p.mg), int(p.eg), p.phase)
}

// Evaluate returns the static evaluation from c's perspective.
func (p *Position) Evaluate(c Color) int {
	return c.sign() * p.Evaluation()
}

// put places pc on an empty square and folds it into the derived state.
func (p *Position) put(pc *Piece, sq Square) {
	p.squares[sq] = pc
	p.hash ^= p.tables.keys.Piece[pc.Color][pc.Type][sq]
	p.mg += pc.mg[sq]
	p.eg += pc.eg[sq]
	p.phase += pc.Phase()
	if pc.Type == King {
		p.kings[pc.Color] = sq
	}
}

// remove lifts the piece off sq and returns it, or nil if sq was empty.
func (p *Position) remove(sq Square) *Piece {
	pc := p.squares[sq]
	if pc == nil {
		return nil
	}
	p.squares[sq] = nil
	p.hash ^= p.tables.keys.Piece[pc.Color][pc.Type][sq]
	p.mg -= pc.mg[sq]
	p.eg -= pc.eg[sq]
	p.phase -= pc.Phase()
	if pc.Type == King && p.kings[pc.Color] == sq {
		p.kings[pc.Color] = NoSquare
	}
	return pc
}

// ComputeHash recomputes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	keys := p.tables.keys
	var h uint64
	for sq, pc := range p.squares {
		if pc != nil {
			h ^= keys.Piece[pc.Color][pc.Type][sq]
		}
	}
	if p.side == Black {
		h ^= keys.SideToMove
	}
	for i := range keys.Castling {
		if p.castling&(1<<i) != 0 {
			h ^= keys.Castling[i]
		}
	}
	for c := White; c <= Black; c++ {
		if f := p.epFile[c]; f >= 0 {
			h ^= keys.EnPassant[c][f]
		}
	}
	return h
}

// ComputeEvaluation recomputes the White-perspective evaluation and the
// phase counter from scratch.
func (p *Position) ComputeEvaluation() (eval, phase int) {
	var mg, eg int
	for sq, pc := range p.squares {
		if pc == nil {
			continue
		}
		mg += int(pc.mg[sq])
		eg += int(pc.eg[sq])
		phase += pc.Phase()
	}
	return taper(mg, eg, phase), phase
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			if pc := p.PieceAt(file, rank); pc != nil {
				sb.WriteString(pc.String() + " ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.side)
	fmt.Fprintf(&sb, "Castling: %s\n", p.castling)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassantSquare())
	fmt.Fprintf(&sb, "Eval: %d (phase %d)\n", p.Evaluation(), p.phase)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.hash)
	return sb.String()
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	var kings [2]int
	for sq, pc := range p.squares {
		if pc == nil {
			continue
		}
		if pc.Type == King {
			kings[pc.Color]++
		}
		if pc.Type == Pawn && (Square(sq).Rank() == 0 || Square(sq).Rank() == 7) {
			return errors.New("pawns cannot be on rank 1 or 8")
		}
	}
	if kings[White] != 1 {
		return errors.New("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return errors.New("black must have exactly one king")
	}
	if p.IsCheck(p.side.Other()) {
		return fmt.Errorf("%s is in check but not to move", p.side.Other())
	}
	return nil
}
