package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hailam/chessai/internal/board"
)

var testTables = board.NewTables(nil)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(testTables, fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN %q: %v", fen, err)
	}
	return pos
}

func newTestEngine() *Engine {
	opts := DefaultOptions()
	opts.HashMB = 16
	return NewEngine(opts)
}

func isLegal(pos *board.Position, m board.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal == m {
			return true
		}
	}
	return false
}

func TestSearchBasic(t *testing.T) {
	pos := board.StartPosition(testTables)
	eng := newTestEngine()

	move := eng.Search(pos, Easy)
	if move == board.NoMove {
		t.Fatal("Search returned NoMove for starting position")
	}
	if !isLegal(pos, move) {
		t.Errorf("Search returned illegal move %s", move)
	}
	t.Logf("Best move: %s", move.String())
}

func TestMateInOne(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"back rank", "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1"},
		{"black queen", "8/8/3q4/8/8/8/5k2/7K b - - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := newTestEngine()
			pos := mustFEN(t, tc.fen)

			res := eng.Analyze(context.Background(), pos, SearchLimits{Depth: 4})
			after := pos.Copy()
			after.ApplyMove(res.Move)
			if !isLegal(pos, res.Move) || !after.IsCheckmate() {
				t.Errorf("best move %s does not mate", res.Move)
			}
			if !IsMateScore(res.Score) || res.Score < 0 {
				t.Errorf("score = %d, want a winning mate score", res.Score)
			}
			if res.Depth != 1 || res.Score != mateScore(0) {
				t.Errorf("mate should end the search at depth 1, got depth %d score %d", res.Depth, res.Score)
			}
		})
	}

	for depth := 1; depth <= 2; depth++ {
		eng := newTestEngine()
		if m := eng.FindBestMove(mustFEN(t, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1"), depth, 0); m != board.NewMove(board.D1, board.D8) {
			t.Errorf("back rank mate at depth %d: got %s, want d1d8", depth, m)
		}
	}
}

func TestNoLegalMoves(t *testing.T) {
	eng := newTestEngine()
	for _, fen := range []string{
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", // stalemate
		"R6k/6pp/8/8/8/8/8/K7 b - - 0 1", // checkmate
	} {
		if m := eng.FindBestMove(mustFEN(t, fen), 3, 0); m != board.NoMove {
			t.Errorf("%s: FindBestMove = %s, want NoMove", fen, m)
		}
	}
}

func TestTerminalScores(t *testing.T) {
	stalemate := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	mated := mustFEN(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")

	for depth := 1; depth <= 3; depth++ {
		s := NewSearcher(NewTranspositionTable(1), NewTimeManager())
		if v := s.Search(stalemate, depth, true, board.Black, -Infinity, Infinity); v != 0 {
			t.Errorf("stalemate at depth %d scored %d, want 0", depth, v)
		}
		if v := s.Search(stalemate, depth, false, board.White, -Infinity, Infinity); v != 0 {
			t.Errorf("stalemate for the minimizer at depth %d scored %d, want 0", depth, v)
		}
		if v := s.Search(mated, depth, true, board.Black, -Infinity, Infinity); v != -mateScore(depth) {
			t.Errorf("mated maximizer at depth %d scored %d, want %d", depth, v, -mateScore(depth))
		}
		if v := s.Search(mated, depth, false, board.White, -Infinity, Infinity); v != mateScore(depth) {
			t.Errorf("mated minimizer at depth %d scored %d, want %d", depth, v, mateScore(depth))
		}
	}
}

func TestTimeLimit(t *testing.T) {
	pos := board.StartPosition(testTables)
	eng := newTestEngine()

	start := time.Now()
	move := eng.FindBestMove(pos, 30, time.Millisecond)
	elapsed := time.Since(start)

	if move == board.NoMove || !isLegal(pos, move) {
		t.Errorf("FindBestMove with 1ms returned %s, want a legal move", move)
	}
	if elapsed > 2*time.Second {
		t.Errorf("1ms search took %v", elapsed)
	}
}

func TestContextCancel(t *testing.T) {
	pos := board.StartPosition(testTables)
	eng := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan board.Move)
	go func() {
		done <- eng.FindBestMoveContext(ctx, pos, 30, 0)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case m := <-done:
		if !isLegal(pos, m) {
			t.Errorf("cancelled search returned %s", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop after cancel")
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	pos := board.StartPosition(testTables)
	eng := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Result)
	go func() {
		done <- eng.Analyze(ctx, pos, SearchLimits{Depth: 30})
	}()
	select {
	case res := <-done:
		if !isLegal(pos, res.Move) {
			t.Errorf("cancelled search returned %s", res.Move)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("a context cancelled before the search was ignored")
	}

	// The next search starts with a clean stop flag.
	if res := eng.Analyze(context.Background(), pos, SearchLimits{Depth: 2}); res.Depth != 2 {
		t.Errorf("search after a cancelled one reached depth %d", res.Depth)
	}
}

func TestThreadCapGivesSameAnswer(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")

	opts := DefaultOptions()
	opts.HashMB = 8
	opts.Threads = 1
	serial := NewEngine(opts).Analyze(context.Background(), pos, SearchLimits{Depth: 2})

	opts.Threads = 0
	parallel := NewEngine(opts).Analyze(context.Background(), pos, SearchLimits{Depth: 2})

	if serial.Move != parallel.Move || serial.Score != parallel.Score {
		t.Errorf("serial %s (%d) != parallel %s (%d)", serial.Move, serial.Score, parallel.Move, parallel.Score)
	}
}

func TestOnInfo(t *testing.T) {
	eng := newTestEngine()
	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if info.Move == board.NoMove {
			t.Errorf("depth %d reported NoMove", info.Depth)
		}
	}
	eng.FindBestMove(board.StartPosition(testTables), 3, 0)

	want := []int{1, 2, 3}
	if len(depths) != len(want) {
		t.Fatalf("reported depths %v, want %v", depths, want)
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Errorf("reported depths %v, want %v", depths, want)
		}
	}
}

func TestDepthSchedule(t *testing.T) {
	tests := []struct {
		max  int
		want []int
	}{
		{1, []int{1}},
		{2, []int{1, 2}},
		{5, []int{1, 2, 4, 5}},
		{6, []int{1, 2, 4, 6}},
		{0, []int{1, 2, 4, 6}},
	}
	for _, tc := range tests {
		got := depthSchedule(tc.max)
		if len(got) != len(tc.want) {
			t.Errorf("depthSchedule(%d) = %v, want %v", tc.max, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("depthSchedule(%d) = %v, want %v", tc.max, got, tc.want)
				break
			}
		}
	}
}

func TestPerft(t *testing.T) {
	eng := newTestEngine()
	pos := board.StartPosition(testTables)
	if n := eng.Perft(pos, 3); n != 8902 {
		t.Errorf("Perft(3) = %d, want 8902", n)
	}
	var sum uint64
	for _, n := range eng.Divide(pos, 2) {
		sum += n
	}
	if sum != 400 {
		t.Errorf("Divide(2) sums to %d, want 400", sum)
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{105, "1.05"},
		{-250, "-2.50"},
		{mateScore(2), "Mate"},
		{-mateScore(1), "Mated"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
