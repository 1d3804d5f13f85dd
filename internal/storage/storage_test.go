package storage

import (
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTestStorage(t)

	t.Run("DefaultsWhenMissing", func(t *testing.T) {
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if prefs.MaxDepth != 6 || prefs.HashMB != 64 || prefs.LogLevel != "info" {
			t.Errorf("unexpected defaults: %+v", prefs)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := &Preferences{
			MaxDepth:   4,
			MoveTime:   1500 * time.Millisecond,
			HashMB:     32,
			Threads:    2,
			RandomKeys: true,
			LogLevel:   "debug",
		}
		if err := s.SavePreferences(want); err != nil {
			t.Fatalf("SavePreferences: %v", err)
		}
		got, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if got.MaxDepth != 4 || got.MoveTime != want.MoveTime || got.HashMB != 32 ||
			got.Threads != 2 || !got.RandomKeys || got.LogLevel != "debug" {
			t.Errorf("LoadPreferences() = %+v, want %+v", got, want)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt not set on save")
		}
	})
}

func TestAnalysisCache(t *testing.T) {
	s := openTestStorage(t)
	const fen = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

	if _, ok, err := s.LookupAnalysis(fen, 0); err != nil || ok {
		t.Fatalf("empty cache lookup = %v, %v", ok, err)
	}

	if err := s.SaveAnalysis(Analysis{FEN: fen, Move: "e7e5", Score: -20, Depth: 4}); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	tests := []struct {
		name     string
		minDepth int
		wantOK   bool
	}{
		{"shallower request", 2, true},
		{"same depth", 4, true},
		{"deeper request", 5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, ok, err := s.LookupAnalysis(fen, tc.minDepth)
			if err != nil {
				t.Fatalf("LookupAnalysis: %v", err)
			}
			if ok != tc.wantOK {
				t.Fatalf("found = %v, want %v", ok, tc.wantOK)
			}
			if ok && (a.Move != "e7e5" || a.Score != -20 || a.Depth != 4) {
				t.Errorf("LookupAnalysis() = %+v", a)
			}
		})
	}

	t.Run("ShallowerDoesNotReplace", func(t *testing.T) {
		if err := s.SaveAnalysis(Analysis{FEN: fen, Move: "c7c5", Depth: 2}); err != nil {
			t.Fatal(err)
		}
		a, _, _ := s.LookupAnalysis(fen, 0)
		if a.Move != "e7e5" {
			t.Errorf("shallower analysis replaced deeper one: %+v", a)
		}
	})

	t.Run("DeeperReplaces", func(t *testing.T) {
		if err := s.SaveAnalysis(Analysis{FEN: fen, Move: "c7c5", Score: 5, Depth: 6}); err != nil {
			t.Fatal(err)
		}
		a, ok, _ := s.LookupAnalysis(fen, 6)
		if !ok || a.Move != "c7c5" {
			t.Errorf("deeper analysis not stored: %+v", a)
		}
	})

	if err := s.SaveAnalysis(Analysis{FEN: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", Move: "e1e2", Depth: 1}); err != nil {
		t.Fatal(err)
	}
	if n, err := s.CountAnalyses(); err != nil || n != 2 {
		t.Errorf("CountAnalyses() = %d, %v, want 2", n, err)
	}
}

func TestInMemory(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	if err := s.SavePreferences(&Preferences{MaxDepth: 3}); err != nil {
		t.Fatal(err)
	}
	prefs, err := s.LoadPreferences()
	if err != nil || prefs.MaxDepth != 3 {
		t.Errorf("LoadPreferences() = %+v, %v", prefs, err)
	}
}
