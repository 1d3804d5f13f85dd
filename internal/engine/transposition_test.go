package engine

import (
	"sync"
	"testing"

	"github.com/hailam/chessai/internal/board"
)

func TestTTStoreAndLookup(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0xDEADBEEFCAFEBABE)
	move := board.NewMove(board.E2, board.E4)

	if _, ok := tt.Lookup(hash, 0, board.White); ok {
		t.Fatal("Expected cache miss on first probe")
	}

	tt.Store(hash, 5, -1234, TTLowerBound, move, board.White)

	for i := 0; i < 2; i++ {
		e, ok := tt.Lookup(hash, 5, board.White)
		if !ok {
			t.Fatalf("lookup %d missed", i)
		}
		if e.Score != -1234 || e.Depth != 5 || e.Flag != TTLowerBound || e.BestMove != move {
			t.Errorf("lookup %d = %+v", i, e)
		}
	}

	if _, ok := tt.Lookup(hash, 6, board.White); ok {
		t.Error("entry served for a deeper request")
	}
	if _, ok := tt.Lookup(hash, 3, board.Black); ok {
		t.Error("entry served to the other perspective")
	}
	if _, ok := tt.Lookup(hash+tt.Size(), 0, board.White); ok {
		t.Error("colliding hash in the same slot was accepted")
	}
}

func TestTTDepthPreferred(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(42)

	tt.Store(hash, 6, 100, TTExact, board.NoMove, board.White)
	tt.Store(hash, 3, 200, TTExact, board.NoMove, board.White)
	if e, _ := tt.Probe(hash, board.White); e.Score != 100 {
		t.Errorf("shallower store replaced deeper entry: %+v", e)
	}

	tt.Store(hash, 6, 300, TTUpperBound, board.NoMove, board.White)
	if e, _ := tt.Probe(hash, board.White); e.Score != 300 || e.Flag != TTUpperBound {
		t.Errorf("equal-depth store not applied: %+v", e)
	}

	// A different position mapping to the same slot obeys the same rule.
	other := hash + tt.Size()
	tt.Store(other, 2, 7, TTExact, board.NoMove, board.White)
	if _, ok := tt.Probe(other, board.White); ok {
		t.Error("shallow entry evicted a deeper one")
	}
	tt.Store(other, 9, 7, TTExact, board.NoMove, board.Black)
	if _, ok := tt.Probe(hash, board.White); ok {
		t.Error("evicted entry still served")
	}
	if e, ok := tt.Probe(other, board.Black); !ok || e.Depth != 9 {
		t.Errorf("deeper entry not stored: %+v %v", e, ok)
	}
}

func TestTTExtremeValues(t *testing.T) {
	tt := NewTranspositionTable(1)
	promo := board.NewPromotion(board.A7, board.A8, board.Knight)
	for i, score := range []int{Infinity, -Infinity, mateScore(7), -mateScore(7), 0} {
		hash := uint64(1000 + i)
		tt.Store(hash, 300, score, TTExact, promo, board.Black)
		e, ok := tt.Probe(hash, board.Black)
		if !ok || e.Score != score || e.BestMove != promo || e.Depth != ttMaxDepth {
			t.Errorf("round trip of %d = %+v %v", score, e, ok)
		}
	}
}

func TestTTClearAndStats(t *testing.T) {
	tt := NewTranspositionTable(1)
	for i := uint64(0); i < 500; i++ {
		tt.Store(i, 1, int(i), TTExact, board.NoMove, board.White)
	}
	if hf := tt.HashFull(); hf != 500 {
		t.Errorf("HashFull() = %d, want 500", hf)
	}
	tt.Probe(1, board.White)
	tt.Probe(100000, board.White)
	if hr := tt.HitRate(); hr != 50 {
		t.Errorf("HitRate() = %v, want 50", hr)
	}

	tt.Clear()
	if hf := tt.HashFull(); hf != 0 {
		t.Errorf("HashFull() after Clear = %d", hf)
	}
	if _, ok := tt.Probe(1, board.White); ok {
		t.Error("entry survived Clear")
	}
}

func TestTTConcurrentAccess(t *testing.T) {
	tt := NewTranspositionTable(1)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				// Every goroutine writes the same score for a hash, so any
				// hit must return exactly that score.
				hash := uint64(i%64) * 0x9E3779B97F4A7C15
				tt.Store(hash, g%4+1, i%64, TTExact, board.NoMove, board.White)
				if e, ok := tt.Probe(hash, board.White); ok && e.Score != i%64 {
					t.Errorf("torn read: hash %x score %d", hash, e.Score)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRoundDownToPowerOf2(t *testing.T) {
	tests := []struct{ in, want uint64 }{
		{1, 1}, {2, 2}, {3, 2}, {65536, 65536}, {65537, 65536}, {100000, 65536},
	}
	for _, tc := range tests {
		if got := roundDownToPowerOf2(tc.in); got != tc.want {
			t.Errorf("roundDownToPowerOf2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
