// Package game tracks a single game: the moves played, undo and redo, and
// the computer's replies.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chessai/internal/board"
	"github.com/hailam/chessai/internal/engine"
)

// Status is the state of the game from the side to move's point of view.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game is over")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

type ply struct {
	before *board.Position
	move   board.Move
}

// Session is one game in progress.
type Session struct {
	ID uuid.UUID

	tables   *board.Tables
	position *board.Position
	played   []ply
	undone   []ply
	log      zerolog.Logger
}

// NewSession starts a game from the standard starting position.
func NewSession(t *board.Tables, log zerolog.Logger) *Session {
	return newSession(board.StartPosition(t), log)
}

// NewSessionFromFEN starts a game from fen.
func NewSessionFromFEN(t *board.Tables, fen string, log zerolog.Logger) (*Session, error) {
	pos, err := board.ParseFEN(t, fen)
	if err != nil {
		return nil, err
	}
	return newSession(pos, log), nil
}

func newSession(pos *board.Position, log zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		tables:   pos.Tables(),
		position: pos,
		log:      log.With().Str("game", id.String()).Logger(),
	}
}

// Position returns a copy of the current position.
func (s *Session) Position() *board.Position {
	return s.position.Copy()
}

// LegalMoves returns the moves available to the side to move.
func (s *Session) LegalMoves() []board.Move {
	return s.position.LegalMoves()
}

// Status reports whether the game has ended.
func (s *Session) Status() Status {
	switch {
	case s.position.IsCheckmate():
		return Checkmate
	case s.position.IsStalemate():
		return Stalemate
	default:
		return Ongoing
	}
}

// Play plays a move given in coordinate notation ("e2e4", "e7e8n") or SAN
// ("Nf3", "O-O"). A promotion without a valid piece letter promotes to a
// queen.
func (s *Session) Play(text string) (board.Move, error) {
	text = strings.TrimSpace(text)
	legal := s.position.LegalMoves()

	if m := board.ParseMove(strings.ToLower(text)); isCoordinate(m, text) {
		if len(text) == 4 && !lo.Contains(legal, m) {
			m = board.NewPromotion(m.From(), m.To(), board.Queen)
		}
		if lo.Contains(legal, m) {
			return m, s.PlayMove(m)
		}
	}

	m, err := board.ParseSAN(text, s.position)
	if err != nil {
		return board.NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	return m, s.PlayMove(m)
}

// isCoordinate reports whether text is m written in coordinate notation. The
// promotion letter is not compared since ParseMove maps unknown letters to a
// queen.
func isCoordinate(m board.Move, text string) bool {
	text = strings.ToLower(text)
	switch len(text) {
	case 4:
		return m.String() == text
	case 5:
		return m.IsPromotion() && m.String()[:4] == text[:4]
	}
	return false
}

// PlayMove plays m if it is legal. Playing a move discards the redo stack.
func (s *Session) PlayMove(m board.Move) error {
	if s.Status() != Ongoing {
		return ErrGameOver
	}
	if !lo.Contains(s.position.LegalMoves(), m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	p := ply{before: s.position, move: m}
	san := m.ToSAN(s.position)
	s.position = s.position.Copy()
	s.position.ApplyMove(m)
	s.played = append(s.played, p)
	s.undone = s.undone[:0]

	s.log.Debug().
		Str("move", m.String()).
		Str("san", san).
		Str("fen", s.position.ToFEN()).
		Msg("move-played")
	return nil
}

// Undo takes back the last move.
func (s *Session) Undo() error {
	if len(s.played) == 0 {
		return ErrNothingToUndo
	}
	last := s.played[len(s.played)-1]
	s.played = s.played[:len(s.played)-1]
	s.undone = append(s.undone, last)
	s.position = last.before
	return nil
}

// Redo replays the last undone move.
func (s *Session) Redo() error {
	if len(s.undone) == 0 {
		return ErrNothingToRedo
	}
	next := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]

	s.position = next.before.Copy()
	s.position.ApplyMove(next.move)
	s.played = append(s.played, next)
	return nil
}

// Moves returns the moves played so far.
func (s *Session) Moves() []board.Move {
	return lo.Map(s.played, func(p ply, _ int) board.Move { return p.move })
}

// History returns the moves played so far in SAN.
func (s *Session) History() []string {
	if len(s.played) == 0 {
		return nil
	}
	return board.MovesToSAN(s.played[0].before, s.Moves())
}

// EngineMove asks eng for a move in the current position and plays it.
func (s *Session) EngineMove(ctx context.Context, eng *engine.Engine, limits engine.SearchLimits) (engine.Result, error) {
	if s.Status() != Ongoing {
		return engine.Result{}, ErrGameOver
	}
	res := eng.Analyze(ctx, s.position.Copy(), limits)
	if res.Move == board.NoMove {
		return res, ErrGameOver
	}
	return res, s.PlayMove(res.Move)
}
