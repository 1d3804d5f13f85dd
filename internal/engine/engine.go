package engine

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessai/internal/board"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Move     board.Move
	Nodes    uint64
	Time     time.Duration
	HashFull int // Permille of hash table used
}

// Result is the outcome of a completed search.
type Result struct {
	Move  board.Move
	Score int // from the searching side's perspective
	Depth int // deepest fully completed iteration, 0 if none
	Nodes uint64
	Time  time.Duration
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = DefaultMaxDepth)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 500ms
	Medium                   // 4 ply, 2s
	Hard                     // 6 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 4, MoveTime: 2 * time.Second},
	Hard:   {Depth: 6, MoveTime: 5 * time.Second},
}

// Options configures an Engine.
type Options struct {
	// HashMB is the transposition table size in megabytes.
	HashMB int
	// Threads caps the number of root moves searched at once. Zero runs
	// every root move in its own goroutine.
	Threads int
	Logger  zerolog.Logger
}

// DefaultOptions returns options with a 64 MB table, no thread cap and a
// silent logger.
func DefaultOptions() Options {
	return Options{HashMB: 64, Logger: zerolog.Nop()}
}

// Engine is the chess AI engine. One search runs at a time; the
// transposition table persists between searches until Clear.
type Engine struct {
	tt      *TranspositionTable
	tm      *TimeManager
	threads int
	log     zerolog.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		tt:      NewTranspositionTable(opts.HashMB),
		tm:      NewTimeManager(),
		threads: opts.Threads,
		log:     opts.Logger,
	}
}

// FindBestMove searches pos by iterative deepening up to maxDepth plies or
// until timeLimit passes, whichever comes first, and returns the move to
// play. It returns board.NoMove only when the side to move has no legal
// move.
func (e *Engine) FindBestMove(pos *board.Position, maxDepth int, timeLimit time.Duration) board.Move {
	return e.Analyze(context.Background(), pos, SearchLimits{Depth: maxDepth, MoveTime: timeLimit}).Move
}

// FindBestMoveContext is FindBestMove that also stops when ctx is done.
func (e *Engine) FindBestMoveContext(ctx context.Context, pos *board.Position, maxDepth int, timeLimit time.Duration) board.Move {
	return e.Analyze(ctx, pos, SearchLimits{Depth: maxDepth, MoveTime: timeLimit}).Move
}

// Search finds the best move with the settings of a difficulty level.
func (e *Engine) Search(pos *board.Position, d Difficulty) board.Move {
	return e.Analyze(context.Background(), pos, DifficultySettings[d]).Move
}

// Analyze runs the root driver. Every root move is searched in its own
// task with a full window; the results of a depth are only used when the
// whole depth finished in time. Cancelling ctx is the only way to stop a
// search early, and a ctx cancelled before the call is honored.
func (e *Engine) Analyze(ctx context.Context, pos *board.Position, limits SearchLimits) Result {
	e.tm.Init(limits.MoveTime)
	stop := context.AfterFunc(ctx, e.tm.Stop)
	defer stop()

	root := pos.SideToMove()
	children := pos.PossibleNewPositions(nil, false)
	if len(children) == 0 {
		e.log.Debug().Str("fen", pos.ToFEN()).Msg("no-legal-moves")
		return Result{Move: board.NoMove}
	}
	children = OrderPositions(children, board.NoMove, root)

	// Fall back to the best-looking move if not even depth 1 completes.
	result := Result{Move: children[0].LastMove()}
	var nodes atomic.Uint64

	for _, depth := range depthSchedule(limits.Depth) {
		if e.tm.Stopped() {
			break
		}

		var mu sync.Mutex
		var aborted atomic.Bool
		bestScore, bestIndex := -Infinity-1, -1

		var g errgroup.Group
		if e.threads > 0 {
			g.SetLimit(e.threads)
		}
		for i, child := range children {
			g.Go(func() error {
				s := NewSearcher(e.tt, e.tm)
				v := searchRootChild(s, child.Copy(), depth, root)
				nodes.Add(s.Nodes())
				if s.Aborted() {
					aborted.Store(true)
					return nil
				}
				mu.Lock()
				if v > bestScore || (v == bestScore && i < bestIndex) {
					bestScore, bestIndex = v, i
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if aborted.Load() || bestIndex < 0 {
			e.log.Debug().Int("depth", depth).Msg("depth-abandoned")
			break
		}

		result = Result{
			Move:  children[bestIndex].LastMove(),
			Score: bestScore,
			Depth: depth,
		}
		e.log.Debug().
			Int("depth", depth).
			Int("score", bestScore).
			Str("move", result.Move.String()).
			Uint64("nodes", nodes.Load()).
			Dur("elapsed", e.tm.Elapsed()).
			Msg("depth-complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Move:     result.Move,
				Nodes:    nodes.Load(),
				Time:     e.tm.Elapsed(),
				HashFull: e.tt.HashFull(),
			})
		}

		// Early termination: found mate
		if IsMateScore(bestScore) {
			break
		}
	}

	result.Nodes = nodes.Load()
	result.Time = e.tm.Elapsed()
	e.log.Info().
		Str("move", result.Move.String()).
		Int("score", result.Score).
		Int("depth", result.Depth).
		Uint64("nodes", result.Nodes).
		Dur("elapsed", result.Time).
		Float64("tt-hit-rate", e.tt.HitRate()).
		Msg("search-finished")
	return result
}

// searchRootChild scores the position after a root move. Positions at the
// horizon go to quiescence without a mate or stalemate test, so at depth 1
// the driver makes that test itself.
func searchRootChild(s *Searcher, child *board.Position, depth int, root board.Color) int {
	if depth == 1 {
		switch {
		case child.IsCheckmate():
			return mateScore(0)
		case child.IsStalemate():
			return 0
		}
	}
	return s.Search(child, depth-1, false, root, -Infinity, Infinity)
}

// depthSchedule returns the iterative deepening depths: 1, 2, 4, 6, ...
// up to maxDepth, which is always searched last.
func depthSchedule(maxDepth int) []int {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	depths := []int{1}
	for d := 2; d <= maxDepth; d += 2 {
		depths = append(depths, d)
	}
	if depths[len(depths)-1] != maxDepth {
		depths = append(depths, maxDepth)
	}
	return depths
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// SetHashSize replaces the transposition table with one of mb megabytes.
// It must not be called during a search.
func (e *Engine) SetHashSize(mb int) {
	e.tt = NewTranspositionTable(mb)
}

// SetThreads changes the cap on concurrently searched root moves. Zero
// removes the cap.
func (e *Engine) SetThreads(n int) {
	e.threads = max(n, 0)
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	children := pos.PossibleNewPositions(nil, false)
	if depth == 1 {
		return uint64(len(children))
	}

	var nodes uint64
	for _, c := range children {
		nodes += e.Perft(c, depth-1)
	}
	return nodes
}

// Divide returns the perft count below each root move.
func (e *Engine) Divide(pos *board.Position, depth int) map[board.Move]uint64 {
	out := make(map[board.Move]uint64)
	if depth < 1 {
		return out
	}
	for _, c := range pos.PossibleNewPositions(nil, false) {
		out[c.LastMove()] = e.Perft(c, depth-1)
	}
	return out
}

// Evaluate returns the static evaluation of a position from the side to
// move's perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return pos.Evaluate(pos.SideToMove())
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= MateBase {
		return "Mate"
	}
	if score <= -MateBase {
		return "Mated"
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := strconv.Itoa(score % 100)
	if len(cp) == 1 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(score/100) + "." + cp
}
