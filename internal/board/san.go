package board

import (
	"fmt"
	"strings"
)

// ToSAN converts a legal move to Standard Algebraic Notation. Moves that are
// not legal in pos fall back to coordinate notation.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	children := pos.PossibleNewPositions(nil, false)
	var after *Position
	for _, c := range children {
		if c.LastMove() == m {
			after = c
			break
		}
	}
	if after == nil {
		return m.String()
	}

	from, to := m.From(), m.To()
	pc := pos.At(from)
	var sb strings.Builder

	switch {
	case pc.Type == King && abs(to.File()-from.File()) == 2:
		if to.File() > from.File() {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	default:
		capture := pos.At(to) != nil || (pc.Type == Pawn && from.File() != to.File())
		if pc.Type != Pawn {
			sb.WriteByte("PNBRQK"[pc.Type])
			sb.WriteString(disambiguation(pos, children, m))
		} else if capture {
			sb.WriteByte('a' + byte(from.File()))
		}
		if capture {
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if promo := after.At(to); pc.Type == Pawn && promo.Type != Pawn {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[promo.Type])
		}
	}

	if after.InCheck() {
		if after.IsCheckmate() {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('+')
		}
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece type to the same square.
func disambiguation(pos *Position, children []*Position, m Move) string {
	from, to := m.From(), m.To()
	pt := pos.At(from).Type

	var sameFile, sameRank, ambiguous bool
	for _, c := range children {
		other := c.LastMove()
		if other.To() != to || other.From() == from || pos.At(other.From()).Type != pt {
			continue
		}
		ambiguous = true
		if other.From().File() == from.File() {
			sameFile = true
		}
		if other.From().Rank() == from.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string('a' + byte(from.File()))
	case !sameRank:
		return string('1' + byte(from.Rank()))
	}
	return from.String()
}

// ParseSAN finds the legal move in pos described by s.
func ParseSAN(s string, pos *Position) (Move, error) {
	want := strings.TrimRight(strings.TrimSpace(s), "+#!?")
	want = strings.ReplaceAll(want, "0", "O")
	if want == "" {
		return NoMove, fmt.Errorf("empty move")
	}
	for _, m := range pos.LegalMoves() {
		got := strings.TrimRight(m.ToSAN(pos), "+#")
		if got == want {
			return m, nil
		}
		// Accept a missing "=" before the promotion piece.
		if strings.Contains(got, "=") && strings.ReplaceAll(got, "=", "") == want {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("no legal move matches %q", s)
}

// MovesToSAN converts a sequence of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.ApplyMove(m)
	}

	return result
}
