package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/hailam/chessai/internal/board"
	"github.com/hailam/chessai/internal/engine"
)

// Console plays a game against the engine over a text stream.
type Console struct {
	Session *Session
	Engine  *engine.Engine
	Limits  engine.SearchLimits
	Human   board.Color
	In      io.Reader
	Out     io.Writer
}

// Run alternates between reading the human's moves and playing the
// engine's replies until the game ends, the input ends or "quit" is read.
// Besides moves it understands "undo", "redo", "moves" and "board".
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.In)
	c.printBoard()

	for c.Session.Status() == Ongoing {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.Session.position.SideToMove() != c.Human {
			res, err := c.Session.EngineMove(ctx, c.Engine, c.Limits)
			if err != nil {
				return err
			}
			history := c.Session.History()
			fmt.Fprintf(c.Out, "engine plays %s (%s)\n", history[len(history)-1], engine.ScoreToString(res.Score))
			c.printBoard()
			continue
		}

		fmt.Fprint(c.Out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
		case "quit":
			return nil
		case "board":
			c.printBoard()
		case "moves":
			pos := c.Session.position
			sans := lo.Map(c.Session.LegalMoves(), func(m board.Move, _ int) string { return m.ToSAN(pos) })
			fmt.Fprintln(c.Out, strings.Join(sans, " "))
		case "undo":
			// Take back the engine's reply as well as our own move.
			for range 2 {
				if err := c.Session.Undo(); err != nil {
					break
				}
			}
			c.printBoard()
		case "redo":
			for range 2 {
				if err := c.Session.Redo(); err != nil {
					break
				}
			}
			c.printBoard()
		default:
			if _, err := c.Session.Play(line); err != nil {
				if errors.Is(err, ErrIllegalMove) {
					fmt.Fprintf(c.Out, "illegal move: %s\n", line)
					continue
				}
				return err
			}
		}
	}

	fmt.Fprintf(c.Out, "%s: %s\n", c.Session.Status(), strings.Join(c.Session.History(), " "))
	return nil
}

func (c *Console) printBoard() {
	fmt.Fprintln(c.Out, c.Session.position.String())
}
