// Package uci speaks the Universal Chess Interface on a reader/writer pair.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chessai/internal/board"
	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/storage"
)

// infiniteDepth bounds "go infinite"; the search is expected to be stopped
// long before it gets there.
const infiniteDepth = 64

// AnalysisCache remembers finished searches between runs.
type AnalysisCache interface {
	LookupAnalysis(fen string, minDepth int) (storage.Analysis, bool, error)
	SaveAnalysis(a storage.Analysis) error
}

// Config holds the dependencies of a UCI session.
type Config struct {
	Engine *engine.Engine
	Tables *board.Tables
	In     io.Reader
	Out    io.Writer
	Logger zerolog.Logger
	// Cache is optional.
	Cache AnalysisCache
	// DefaultDepth is used when "go" names no depth.
	DefaultDepth int
	// DefaultMoveTime is used when "go" names no time control.
	DefaultMoveTime time.Duration
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	tables   *board.Tables
	position *board.Position
	in       io.Reader
	log      zerolog.Logger
	cache    AnalysisCache

	defaultDepth    int
	defaultMoveTime time.Duration

	outMu sync.Mutex
	out   io.Writer

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a new UCI protocol handler.
func New(cfg Config) *UCI {
	return &UCI{
		engine:          cfg.Engine,
		tables:          cfg.Tables,
		position:        board.StartPosition(cfg.Tables),
		in:              cfg.In,
		out:             cfg.Out,
		log:             cfg.Logger,
		cache:           cfg.Cache,
		defaultDepth:    cfg.DefaultDepth,
		defaultMoveTime: cfg.DefaultMoveTime,
	}
}

// Run reads commands until "quit" or the end of input. A running search is
// stopped on quit and waited for at the end of input.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Debug().Str("command", cmd).Msg("unknown-command")
		}
	}

	u.wait()
	return scanner.Err()
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name ChessAI")
	u.send("id author ChessAI Team")
	u.send("")
	u.send("option name Hash type spin default 64 min 1 max 4096")
	u.send("option name Threads type spin default 0 min 0 max 256")
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.StartPosition(u.tables)
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := lo.IndexOf(args, "moves")
	end := len(args)
	if movesAt >= 0 {
		end = movesAt
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.StartPosition(u.tables)
	case "fen":
		fen := strings.Join(args[1:end], " ")
		p, err := board.ParseFEN(u.tables, fen)
		if err != nil {
			u.log.Warn().Err(err).Str("fen", fen).Msg("invalid-fen")
			u.send("info string Invalid FEN: %v", err)
			return
		}
		pos = p
	default:
		return
	}

	if movesAt >= 0 {
		for _, moveStr := range args[movesAt+1:] {
			move, ok := u.parseMove(pos, moveStr)
			if !ok {
				u.log.Warn().Str("move", moveStr).Str("fen", pos.ToFEN()).Msg("illegal-move")
				u.send("info string Invalid move: %s", moveStr)
				break
			}
			pos.ApplyMove(move)
		}
	}
	u.position = pos
}

// parseMove matches a UCI move string against the legal moves of pos.
func (u *UCI) parseMove(pos *board.Position, moveStr string) (board.Move, bool) {
	want := strings.ToLower(moveStr)
	return lo.Find(pos.LegalMoves(), func(m board.Move) bool {
		return m.String() == want
	})
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	millis := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "infinite":
			opts.Infinite = true
			continue
		case "depth", "movetime", "wtime", "btime", "winc", "binc", "movestogo":
			if !hasValue {
				continue
			}
		default:
			continue
		}

		i++
		switch args[i-1] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(args[i])
		case "movetime":
			opts.MoveTime = millis(i)
		case "wtime":
			opts.WTime = millis(i)
		case "btime":
			opts.BTime = millis(i)
		case "winc":
			opts.WInc = millis(i)
		case "binc":
			opts.BInc = millis(i)
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(args[i])
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits for the side
// to move.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	clock := engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
		Depth:     opts.Depth,
		Infinite:  opts.Infinite,
	}

	limits := engine.SearchLimits{
		Depth:    clock.Depth,
		MoveTime: clock.MoveBudget(u.position.SideToMove()),
	}
	if clock.Infinite {
		limits.Depth = infiniteDepth
		return limits
	}
	if limits.Depth <= 0 {
		limits.Depth = u.defaultDepth
	}
	if limits.MoveTime == 0 && opts.WTime == 0 && opts.BTime == 0 && opts.Depth == 0 {
		limits.MoveTime = u.defaultMoveTime
	}
	return limits
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)
	pos := u.position.Copy()
	fen := pos.ToFEN()

	if !opts.Infinite && u.answerFromCache(pos, fen, limits.Depth) {
		return
	}

	u.engine.OnInfo = u.sendInfo

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searchDone = make(chan struct{})

	u.log.Debug().
		Str("fen", fen).
		Int("depth", limits.Depth).
		Dur("movetime", limits.MoveTime).
		Msg("search-started")

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res := u.engine.Analyze(ctx, pos, limits)
		if res.Move == board.NoMove {
			u.send("bestmove 0000")
			return
		}
		u.send("bestmove %s", res.Move)
		u.saveToCache(fen, res)
	}()
}

// answerFromCache replies with a stored analysis when one is deep enough.
func (u *UCI) answerFromCache(pos *board.Position, fen string, depth int) bool {
	if u.cache == nil || depth <= 0 {
		return false
	}
	a, ok, err := u.cache.LookupAnalysis(fen, depth)
	if err != nil {
		u.log.Warn().Err(err).Msg("cache-lookup-failed")
		return false
	}
	if !ok {
		return false
	}
	move, legal := u.parseMove(pos, a.Move)
	if !legal {
		u.log.Warn().Str("fen", fen).Str("move", a.Move).Msg("cached-move-illegal")
		return false
	}

	u.log.Debug().Str("fen", fen).Int("depth", a.Depth).Msg("cache-hit")
	u.send("info string cached analysis")
	u.sendInfo(engine.SearchInfo{Depth: a.Depth, Score: a.Score, Move: move, Nodes: a.Nodes, Time: a.Elapsed})
	u.send("bestmove %s", move)
	return true
}

func (u *UCI) saveToCache(fen string, res engine.Result) {
	if u.cache == nil || res.Depth == 0 {
		return
	}
	err := u.cache.SaveAnalysis(storage.Analysis{
		FEN:     fen,
		Move:    res.Move.String(),
		Score:   res.Score,
		Depth:   res.Depth,
		Nodes:   res.Nodes,
		Elapsed: res.Time,
	})
	if err != nil {
		u.log.Warn().Err(err).Msg("cache-save-failed")
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}

	if engine.IsMateScore(info.Score) {
		parts = append(parts, fmt.Sprintf("score mate %d", mateMoves(info.Score, info.Depth)))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if info.Move != board.NoMove {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.send("info %s", strings.Join(parts, " "))
}

// mateMoves converts a mate score found by a search of the given depth
// into full moves until mate, negative when the engine is being mated.
func mateMoves(score, depth int) int {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	remaining := (abs - engine.MateBase) / engine.MateSlope
	n := (depth - remaining + 1) / 2
	if n < 1 {
		n = 1
	}
	if score < 0 {
		return -n
	}
	return n
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.wait()
}

func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
		u.cancel = nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	nameAt := lo.IndexOf(args, "name")
	valueAt := lo.IndexOf(args, "value")
	if nameAt < 0 {
		return
	}
	nameEnd := len(args)
	value := ""
	if valueAt > nameAt {
		nameEnd = valueAt
		value = strings.Join(args[valueAt+1:], " ")
	}
	name := strings.Join(args[nameAt+1:nameEnd], " ")

	n, err := strconv.Atoi(value)
	switch strings.ToLower(name) {
	case "hash":
		if err != nil || n < 1 {
			u.log.Warn().Str("value", value).Msg("invalid-hash-size")
			return
		}
		u.handleStop()
		u.engine.SetHashSize(n)
	case "threads":
		if err != nil || n < 0 {
			u.log.Warn().Str("value", value).Msg("invalid-thread-count")
			return
		}
		u.engine.SetThreads(n)
	default:
		u.log.Debug().Str("name", name).Msg("unknown-option")
	}
}

// handleDisplay prints the board, its FEN and its hash key.
func (u *UCI) handleDisplay() {
	u.send("%s", u.position.String())
	u.send("Fen: %s", u.position.ToFEN())
	u.send("Key: %016X", u.position.Hash())
	u.send("Eval: %d", u.engine.Evaluate(u.position))
}

// handlePerft runs a perft test and prints the count below each root move.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	divide := u.engine.Divide(u.position, depth)
	var nodes uint64
	for _, m := range u.position.LegalMoves() {
		u.send("%s: %d", m, divide[m])
		nodes += divide[m]
	}
	elapsed := time.Since(start)

	u.send("")
	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		u.send("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
