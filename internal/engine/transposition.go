package engine

import (
	"sync/atomic"

	"github.com/hailam/chessai/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	}
	return "unknown"
}

// TTEntry is a decoded table entry.
type TTEntry struct {
	BestMove board.Move
	Score    int
	Depth    int
	Flag     TTFlag
	// Perspective is the color the score was computed for.
	Perspective board.Color
}

// Packed entry layout in one 64-bit word:
// bits 0-31:  score (int32)
// bits 32-39: depth
// bits 40-41: flag
// bit  42:    perspective (1 = Black)
// bits 43-58: best move
// bit  63:    occupied
const (
	ttDepthShift = 32
	ttFlagShift  = 40
	ttColorShift = 42
	ttMoveShift  = 43
	ttUsed       = uint64(1) << 63
	ttMaxDepth   = 0xFF
)

func packEntry(e TTEntry) uint64 {
	depth := e.Depth
	if depth < 0 {
		depth = 0
	}
	if depth > ttMaxDepth {
		depth = ttMaxDepth
	}
	data := uint64(uint32(int32(e.Score)))
	data |= uint64(depth) << ttDepthShift
	data |= uint64(e.Flag&3) << ttFlagShift
	data |= uint64(e.Perspective&1) << ttColorShift
	data |= uint64(e.BestMove) << ttMoveShift
	return data | ttUsed
}

func unpackEntry(data uint64) TTEntry {
	return TTEntry{
		Score:       int(int32(uint32(data))),
		Depth:       int((data >> ttDepthShift) & 0xFF),
		Flag:        TTFlag((data >> ttFlagShift) & 3),
		Perspective: board.Color((data >> ttColorShift) & 1),
		BestMove:    board.Move(data >> ttMoveShift),
	}
}

// ttSlot keeps the packed entry next to its XOR with the full hash. A reader
// that sees a half-written slot recomputes a different hash and misses, so
// no lock is needed.
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// TranspositionTable is a fixed-size, lock-free hash table shared by all
// search goroutines.
type TranspositionTable struct {
	slots []ttSlot
	size  uint64
	mask  uint64

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	slotSize := uint64(16)
	numSlots := roundDownToPowerOf2((uint64(sizeMB) * 1024 * 1024) / slotSize)

	return &TranspositionTable{
		slots: make([]ttSlot, numSlots),
		size:  numSlots,
		mask:  numSlots - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the entry stored for hash, whatever its depth, if it was
// computed from perspective.
func (tt *TranspositionTable) Probe(hash uint64, perspective board.Color) (TTEntry, bool) {
	tt.probes.Add(1)

	slot := &tt.slots[hash&tt.mask]
	data := slot.data.Load()
	check := slot.check.Load()
	if data&ttUsed == 0 || check^data != hash {
		return TTEntry{}, false
	}
	entry := unpackEntry(data)
	if entry.Perspective != perspective {
		return TTEntry{}, false
	}

	tt.hits.Add(1)
	return entry, true
}

// Lookup is Probe restricted to entries searched at least minDepth deep.
func (tt *TranspositionTable) Lookup(hash uint64, minDepth int, perspective board.Color) (TTEntry, bool) {
	entry, ok := tt.Probe(hash, perspective)
	if !ok || entry.Depth < minDepth {
		return TTEntry{}, false
	}
	return entry, true
}

// Store saves a search result. An occupied slot is only overwritten by a
// result of equal or greater depth.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, perspective board.Color) {
	slot := &tt.slots[hash&tt.mask]

	if old := slot.data.Load(); old&ttUsed != 0 && unpackEntry(old).Depth > depth {
		return
	}

	data := packEntry(TTEntry{
		BestMove:    bestMove,
		Score:       score,
		Depth:       depth,
		Flag:        flag,
		Perspective: perspective,
	})
	slot.data.Store(data)
	slot.check.Store(hash ^ data)
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].data.Store(0)
		tt.slots[i].check.Store(0)
	}
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.slots[i].data.Load()&ttUsed != 0 {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}
