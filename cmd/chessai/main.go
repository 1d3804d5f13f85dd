// Command chessai runs the engine as a UCI engine, or plays a game against
// it in the terminal with -play.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessai/internal/board"
	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/game"
	"github.com/hailam/chessai/internal/storage"
	"github.com/hailam/chessai/internal/uci"
)

var (
	dbDir      = flag.String("db", "", "database directory (default: platform data dir)")
	noDB       = flag.Bool("no-db", false, "do not open the database")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	threads    = flag.Int("threads", 0, "root moves searched at once (0 = all)")
	depth      = flag.Int("depth", 6, "default search depth")
	moveTime   = flag.Duration("movetime", 0, "default time per move (0 = no limit)")
	randomKeys = flag.Bool("random-keys", false, "draw Zobrist keys from the system RNG")
	logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	save       = flag.Bool("save", false, "remember these flags as the new defaults")
	play       = flag.Bool("play", false, "play a game in the terminal instead of speaking UCI")
	black      = flag.Bool("black", false, "with -play, take the black pieces")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("chessai")
	}
}

func run(log zerolog.Logger) error {
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", *cpuprofile).Msg("cpu-profiling")
	}

	var store *storage.Storage
	prefs := storage.DefaultPreferences()
	if !*noDB {
		var err error
		if *dbDir != "" {
			store, err = storage.Open(*dbDir)
		} else {
			store, err = storage.NewStorage()
		}
		if err != nil {
			return err
		}
		defer store.Close()

		if prefs, err = store.LoadPreferences(); err != nil {
			return err
		}
	}
	applyFlags(prefs)

	level, err := zerolog.ParseLevel(prefs.LogLevel)
	if err != nil {
		return err
	}
	log = log.Level(level)

	if store != nil && *save {
		if err := store.SavePreferences(prefs); err != nil {
			return err
		}
		log.Info().Msg("preferences-saved")
	}

	tables := board.NewTables(nil)
	if prefs.RandomKeys {
		tables = board.NewRandomTables()
	}

	eng := engine.NewEngine(engine.Options{
		HashMB:  prefs.HashMB,
		Threads: prefs.Threads,
		Logger:  log.With().Str("component", "engine").Logger(),
	})

	log.Debug().
		Int("hash-mb", prefs.HashMB).
		Int("threads", prefs.Threads).
		Int("depth", prefs.MaxDepth).
		Dur("movetime", prefs.MoveTime).
		Bool("random-keys", prefs.RandomKeys).
		Msg("engine-ready")

	if *play {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		human := board.White
		if *black {
			human = board.Black
		}
		c := &game.Console{
			Session: game.NewSession(tables, log),
			Engine:  eng,
			Limits:  engine.SearchLimits{Depth: prefs.MaxDepth, MoveTime: prefs.MoveTime},
			Human:   human,
			In:      os.Stdin,
			Out:     os.Stdout,
		}
		return c.Run(ctx)
	}

	cfg := uci.Config{
		Engine:          eng,
		Tables:          tables,
		In:              os.Stdin,
		Out:             os.Stdout,
		Logger:          log.With().Str("component", "uci").Logger(),
		DefaultDepth:    prefs.MaxDepth,
		DefaultMoveTime: prefs.MoveTime,
	}
	if store != nil {
		cfg.Cache = store
	}
	return uci.New(cfg).Run()
}

// applyFlags overrides stored preferences with the flags given on the
// command line.
func applyFlags(prefs *storage.Preferences) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hash":
			prefs.HashMB = *hashMB
		case "threads":
			prefs.Threads = *threads
		case "depth":
			prefs.MaxDepth = *depth
		case "movetime":
			prefs.MoveTime = *moveTime
		case "random-keys":
			prefs.RandomKeys = *randomKeys
		case "log-level":
			prefs.LogLevel = *logLevel
		}
	})
}
