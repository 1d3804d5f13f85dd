package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chessai/internal/board"
	"github.com/hailam/chessai/internal/engine"
)

var testTables = board.NewTables(nil)

func TestPlayAcceptsBothNotations(t *testing.T) {
	s := NewSession(testTables, zerolog.Nop())

	for _, text := range []string{"e2e4", "e5", "Nf3", "b8c6", "Bb5"} {
		if _, err := s.Play(text); err != nil {
			t.Fatalf("Play(%q): %v", text, err)
		}
	}

	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	got := s.History()
	if len(got) != len(want) {
		t.Fatalf("History() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("History() = %v, want %v", got, want)
			break
		}
	}
	if s.Position().SideToMove() != board.Black {
		t.Error("expected Black to move after five plies")
	}
}

func TestPlayRejectsIllegalMoves(t *testing.T) {
	s := NewSession(testTables, zerolog.Nop())
	for _, text := range []string{"e2e5", "Ke2", "", "zz", "e7e5"} {
		if _, err := s.Play(text); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("Play(%q) error = %v, want ErrIllegalMove", text, err)
		}
	}
	if len(s.Moves()) != 0 {
		t.Errorf("illegal moves were recorded: %v", s.Moves())
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	s, err := NewSessionFromFEN(testTables, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.Play("e7e8")
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if m.Promotion() != board.Queen {
		t.Errorf("promoted to %v, want queen", m.Promotion())
	}

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if m, err = s.Play("e7e8n"); err != nil || m.Promotion() != board.Knight {
		t.Errorf("Play(e7e8n) = %s, %v", m, err)
	}

	// An unknown promotion letter falls back to a queen.
	for _, text := range []string{"e7e8x", "E7E8Z"} {
		if err := s.Undo(); err != nil {
			t.Fatal(err)
		}
		if m, err = s.Play(text); err != nil || m != board.NewPromotion(board.E7, board.E8, board.Queen) {
			t.Errorf("Play(%s) = %s, %v; want e7e8q", text, m, err)
		}
	}
	if h := s.History(); len(h) != 1 || h[0] != "e8=Q" {
		t.Errorf("History() = %v, want [e8=Q]", h)
	}
}

func TestUndoRedo(t *testing.T) {
	s := NewSession(testTables, zerolog.Nop())
	start := s.Position().Hash()

	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo on empty game = %v", err)
	}

	s.Play("e4")
	s.Play("e5")
	afterTwo := s.Position().Hash()

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Position().Hash() != start || len(s.History()) != 0 {
		t.Error("undoing every move did not restore the start")
	}

	if err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if s.Position().Hash() != afterTwo {
		t.Error("redo did not reach the same position")
	}
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo past the end = %v", err)
	}

	// A new move clears the redo stack.
	s.Undo()
	s.Play("c5")
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("redo after a new move = %v", err)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{"start", board.StartFEN, Ongoing},
		{"checkmate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", Checkmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSessionFromFEN(testTables, tc.fen, zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Status(); got != tc.want {
				t.Errorf("Status() = %v, want %v", got, tc.want)
			}
			if tc.want != Ongoing {
				if err := s.PlayMove(board.NewMove(board.H8, board.G8)); !errors.Is(err, ErrGameOver) {
					t.Errorf("move after the end = %v", err)
				}
			}
		})
	}
}

func TestFoolsMateSession(t *testing.T) {
	s := NewSession(testTables, zerolog.Nop())
	for _, text := range []string{"f3", "e5", "g4", "Qh4#"} {
		if _, err := s.Play(text); err != nil {
			t.Fatalf("Play(%q): %v", text, err)
		}
	}
	if s.Status() != Checkmate {
		t.Errorf("Status() = %v, want checkmate", s.Status())
	}
	if h := s.History(); h[3] != "Qh4#" {
		t.Errorf("last move recorded as %q", h[3])
	}
}

func TestEngineMove(t *testing.T) {
	s, err := NewSessionFromFEN(testTables, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	opts := engine.DefaultOptions()
	opts.HashMB = 8
	eng := engine.NewEngine(opts)

	res, err := s.EngineMove(context.Background(), eng, engine.SearchLimits{Depth: 2})
	if err != nil {
		t.Fatalf("EngineMove: %v", err)
	}
	if res.Move != board.NewMove(board.D1, board.D8) {
		t.Errorf("engine played %s, want d1d8", res.Move)
	}
	if s.Status() != Checkmate {
		t.Error("engine move should have mated")
	}
	if _, err := s.EngineMove(context.Background(), eng, engine.SearchLimits{Depth: 2}); !errors.Is(err, ErrGameOver) {
		t.Errorf("EngineMove after mate = %v", err)
	}
}

func TestConsole(t *testing.T) {
	s, err := NewSessionFromFEN(testTables, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 b - - 0 1", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	opts := engine.DefaultOptions()
	opts.HashMB = 8

	var out strings.Builder
	c := &Console{
		Session: s,
		Engine:  engine.NewEngine(opts),
		Limits:  engine.SearchLimits{Depth: 2},
		Human:   board.Black,
		In:      strings.NewReader("Kh1\nmoves\nKh8\n"),
		Out:     &out,
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "illegal move: Kh1") {
		t.Errorf("illegal input not reported:\n%s", text)
	}
	if !strings.Contains(text, "Kf8") {
		t.Errorf("moves listing missing Kf8:\n%s", text)
	}
	if s.Status() != Checkmate || !strings.Contains(text, "engine plays Rd8#") {
		t.Errorf("engine should mate after Kh8:\n%s", text)
	}
	if !strings.Contains(text, "checkmate: Kh8 Rd8#") {
		t.Errorf("final summary missing:\n%s", text)
	}
}
