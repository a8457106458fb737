package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

const help = "Commands: pvp, bot, 0-8, reset, replay, quit"

type matchController interface {
	State() entity.MatchState
	SelectMode(mode entity.Mode) bool
	RequestMove(cell int) bool
	Reset() bool
	Replay() bool
}

// Console renders match events as text and turns input lines into requests.
type Console struct {
	controller matchController

	mu  sync.Mutex
	out io.Writer
}

func New(out io.Writer, controller matchController) *Console {
	return &Console{
		controller: controller,
		out:        out,
	}
}

// HandleEvent redraws the board. Computer moves arrive from a timer
// goroutine, so writes are serialised.
func (that *Console) HandleEvent(event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if event.Type == entity.EventMoveApplied && event.Cell != nil {
		fmt.Fprintf(that.out, "%s played %d\n", event.Mark, *event.Cell)
	}

	that.render(event.State)
}

// Run reads commands from in until quit, EOF or ctx is done.
func (that *Console) Run(ctx context.Context, in io.Reader) error {
	that.mu.Lock()
	fmt.Fprintln(that.out, help)
	that.render(that.controller.State())
	that.mu.Unlock()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		command := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if command == "" {
			continue
		}

		if command == "quit" || command == "exit" {
			return nil
		}

		if err := that.execute(command); err != nil {
			that.println(err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

func (that *Console) execute(command string) error {
	switch command {
	case "reset":
		if !that.controller.Reset() {
			return apperror.ErrResetRejected
		}
	case "replay":
		if !that.controller.Replay() {
			return apperror.ErrReplayRejected
		}
	case "help":
		that.println(help)
	default:
		if cell, err := strconv.Atoi(command); err == nil {
			if !that.controller.RequestMove(cell) {
				return fmt.Errorf("%w: cell %d", apperror.ErrMoveRejected, cell)
			}

			return nil
		}

		mode, err := entity.ParseMode(command)
		if err != nil {
			return fmt.Errorf("unknown command %q", command)
		}

		if !that.controller.SelectMode(mode) {
			return apperror.ErrModeNotSelectable
		}
	}

	return nil
}

func (that *Console) println(line string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintln(that.out, line)
}

// render draws the board with free cells numbered. Callers hold mu.
func (that *Console) render(state entity.MatchState) {
	var builder strings.Builder

	for row := 0; row < 3; row++ {
		if row > 0 {
			builder.WriteString("---+---+---\n")
		}

		for col := 0; col < 3; col++ {
			cell := row*3 + col

			symbol := string(state.Board[cell])
			if state.Board[cell] == entity.MarkEmpty {
				symbol = strconv.Itoa(cell)
			}

			if col > 0 {
				builder.WriteString("|")
			}
			builder.WriteString(" " + symbol + " ")
		}

		builder.WriteString("\n")
	}

	builder.WriteString(state.Message())
	builder.WriteString("\n")

	fmt.Fprint(that.out, builder.String())
}
