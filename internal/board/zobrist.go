package board

import (
	"math"

	"lukechampine.com/frand"
)

// DefaultSeed seeds the reproducible key set.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// ZobristKeys holds one random 64-bit key per hashed feature of a position.
type ZobristKeys struct {
	Piece      [2][6][64]uint64 // [Color][PieceType][Square]
	SideToMove uint64           // XOR when black to move
	Castling   [4]uint64        // one per right, in CastlingRights bit order
	EnPassant  [2][8]uint64     // [color that double-stepped][file]
}

// Simple PRNG for reproducible keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// NewZobristKeys derives a key set from seed. Equal seeds give equal keys,
// so hashes are comparable across runs.
func NewZobristKeys(seed uint64) *ZobristKeys {
	return fillKeys(newPRNG(seed).next)
}

// NewRandomZobristKeys draws a key set from a cryptographic source.
func NewRandomZobristKeys() *ZobristKeys {
	return fillKeys(func() uint64 { return frand.Uint64n(math.MaxUint64) })
}

func fillKeys(next func() uint64) *ZobristKeys {
	k := &ZobristKeys{}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				k.Piece[c][pt][sq] = next()
			}
		}
	}
	for c := White; c <= Black; c++ {
		for file := 0; file < 8; file++ {
			k.EnPassant[c][file] = next()
		}
	}
	for i := range k.Castling {
		k.Castling[i] = next()
	}
	k.SideToMove = next()
	return k
}
