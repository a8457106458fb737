package tictactoe

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe/internal/bot"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

const (
	x = entity.MarkX
	o = entity.MarkO
)

// manualScheduler queues deferred functions until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*scheduledTask
}

type scheduledTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
	ran     bool
}

func (that *manualScheduler) AfterFunc(delay time.Duration, fn func()) func() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	task := &scheduledTask{delay: delay, fn: fn}
	that.tasks = append(that.tasks, task)

	return func() bool {
		that.mu.Lock()
		defer that.mu.Unlock()

		if task.stopped || task.ran {
			return false
		}
		task.stopped = true

		return true
	}
}

// runPending runs every task that was not stopped.
func (that *manualScheduler) runPending() int {
	return that.run(false)
}

// runAll also runs stopped tasks, as a timer that fired before Stop would.
func (that *manualScheduler) runAll() int {
	return that.run(true)
}

func (that *manualScheduler) run(includeStopped bool) int {
	that.mu.Lock()
	var due []*scheduledTask
	for _, task := range that.tasks {
		if task.ran || (task.stopped && !includeStopped) {
			continue
		}
		task.ran = true
		due = append(due, task)
	}
	that.mu.Unlock()

	for _, task := range due {
		task.fn()
	}

	return len(due)
}

func (that *manualScheduler) pending() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for _, task := range that.tasks {
		if !task.ran && !task.stopped {
			count++
		}
	}

	return count
}

// scriptedChooser plays the queued cells in order.
type scriptedChooser struct {
	cells []int
}

func (that *scriptedChooser) ChooseMove(_ entity.Cells, _, _ entity.Mark) int {
	cell := that.cells[0]
	that.cells = that.cells[1:]

	return cell
}

type eventRecorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (that *eventRecorder) HandleEvent(event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *eventRecorder) types() []entity.EventType {
	that.mu.Lock()
	defer that.mu.Unlock()

	types := make([]entity.EventType, 0, len(that.events))
	for _, event := range that.events {
		types = append(types, event.Type)
	}

	return types
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("match-%d", next)
	}
}

func newTestController(policy entity.MoveChooser) (*Controller, *manualScheduler) {
	scheduler := &manualScheduler{}
	controller := NewController(nopLogger(), policy,
		WithScheduler(scheduler),
		WithBotDelay(time.Second),
		WithIDGenerator(sequentialIDs()),
	)

	return controller, scheduler
}

func TestNewController(t *testing.T) {
	// When: a controller is constructed
	controller, _ := newTestController(bot.NewPolicy(nil))

	// Then: it waits for a mode with an empty board
	state := controller.State()
	assert.Equal(t, entity.StatusModeSelection, state.Status)
	assert.False(t, state.Active)
	assert.Equal(t, entity.Cells{}, state.Board)
	assert.Equal(t, entity.InProgress(), state.Outcome)
	assert.Equal(t, entity.MarkEmpty, controller.ActiveMark())
}

func TestController_SelectMode(t *testing.T) {
	t.Run("Starts a match with X to move", func(t *testing.T) {
		// Given: a controller in mode selection
		controller, _ := newTestController(bot.NewPolicy(nil))

		// When: human vs human is selected
		ok := controller.SelectMode(entity.ModeHumanVsHuman)

		// Then: the match is ongoing with X to move
		require.True(t, ok)
		expected := entity.MatchState{
			ID:         "match-1",
			Generation: 1,
			Turn:       x,
			Mode:       entity.ModeHumanVsHuman,
			Status:     entity.StatusOngoing,
			Active:     true,
			Outcome:    entity.InProgress(),
		}
		assert.Equal(t, expected, controller.State())
	})

	t.Run("Ignored while a match is ongoing", func(t *testing.T) {
		// Given: an ongoing match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
		require.True(t, controller.RequestMove(0))

		// When: another mode is selected
		ok := controller.SelectMode(entity.ModeHumanVsComputer)

		// Then: nothing changes
		assert.False(t, ok)
		assert.Equal(t, entity.ModeHumanVsHuman, controller.State().Mode)
		assert.Equal(t, entity.Cells{0: x}, controller.Snapshot())
	})

	t.Run("Unknown mode is ignored", func(t *testing.T) {
		controller, _ := newTestController(bot.NewPolicy(nil))

		assert.False(t, controller.SelectMode("online"))
		assert.Equal(t, entity.StatusModeSelection, controller.State().Status)
	})
}

func TestController_RequestMove(t *testing.T) {
	t.Run("Valid move toggles the active player", func(t *testing.T) {
		// Given: a human vs human match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))

		// When: X plays the center
		ok := controller.RequestMove(4)

		// Then: the mark is placed and O is to move
		require.True(t, ok)
		assert.Equal(t, entity.Cells{4: x}, controller.Snapshot())
		assert.Equal(t, o, controller.ActiveMark())
	})

	t.Run("Occupied and out of range cells are ignored", func(t *testing.T) {
		// Given: a match where X holds the center
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
		require.True(t, controller.RequestMove(4))

		// When: O plays invalid cells
		occupied := controller.RequestMove(4)
		negative := controller.RequestMove(-1)
		tooLarge := controller.RequestMove(9)

		// Then: every request is rejected and O is still to move
		assert.False(t, occupied)
		assert.False(t, negative)
		assert.False(t, tooLarge)
		assert.Equal(t, entity.Cells{4: x}, controller.Snapshot())
		assert.Equal(t, o, controller.ActiveMark())
	})

	t.Run("Ignored during mode selection", func(t *testing.T) {
		controller, _ := newTestController(bot.NewPolicy(nil))

		assert.False(t, controller.RequestMove(0))
		assert.Equal(t, entity.Cells{}, controller.Snapshot())
	})

	t.Run("Win ends the match", func(t *testing.T) {
		// Given: a human vs human match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))

		// When: X completes the top row
		for _, cell := range []int{0, 3, 1, 4, 2} {
			require.True(t, controller.RequestMove(cell))
		}

		// Then: X wins and the match is no longer active
		state := controller.State()
		assert.Equal(t, entity.Win(x), state.Outcome)
		assert.Equal(t, entity.StatusFinished, state.Status)
		assert.False(t, state.Active)
		assert.Equal(t, entity.MarkEmpty, state.Turn)

		// Then: further moves are ignored
		assert.False(t, controller.RequestMove(8))
		assert.Equal(t, entity.MarkEmpty, controller.Snapshot()[8])
	})

	t.Run("Full board without a triple is a tie", func(t *testing.T) {
		// Given: a human vs human match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))

		// When: the players fill the board without a triple
		// X O X
		// X O O
		// O X X
		for _, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			require.True(t, controller.RequestMove(cell), "cell %d", cell)
		}

		// Then: the outcome is a tie
		assert.Equal(t, entity.Tie(), controller.Outcome())
		assert.Equal(t, entity.StatusFinished, controller.State().Status)
	})

	t.Run("Win on the last cell is a win, not a tie", func(t *testing.T) {
		// Given: a human vs human match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))

		// When: X fills the ninth cell completing the left column
		for _, cell := range []int{0, 1, 2, 4, 3, 5, 7, 8, 6} {
			require.True(t, controller.RequestMove(cell), "cell %d", cell)
		}

		// Then: X wins
		assert.Equal(t, entity.Win(x), controller.Outcome())
	})
}

func TestController_ComputerMove(t *testing.T) {
	t.Run("Computer answers after the human move", func(t *testing.T) {
		// Given: a human vs computer match
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		assert.Zero(t, scheduler.pending())

		// When: X plays a corner
		require.True(t, controller.RequestMove(0))

		// Then: a computer move is scheduled with the configured delay
		require.Equal(t, 1, scheduler.pending())
		assert.Equal(t, time.Second, scheduler.tasks[0].delay)
		assert.Equal(t, o, controller.ActiveMark())

		// When: the delay elapses
		require.Equal(t, 1, scheduler.runPending())

		// Then: the computer took the center and X is to move again
		assert.Equal(t, entity.Cells{0: x, 4: o}, controller.Snapshot())
		assert.Equal(t, x, controller.ActiveMark())
	})

	t.Run("Human cannot move for the computer", func(t *testing.T) {
		// Given: a computer move is pending
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))

		// When: the human tries to play O's turn
		ok := controller.RequestMove(8)

		// Then: the request is ignored
		assert.False(t, ok)
		assert.Equal(t, entity.Cells{0: x}, controller.Snapshot())
		assert.Equal(t, 1, scheduler.pending())
	})

	t.Run("Computer blocks the human row", func(t *testing.T) {
		// Given: X holds 0 and 4 is taken by the computer
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))
		scheduler.runPending()

		// When: X threatens the top row
		require.True(t, controller.RequestMove(1))
		scheduler.runPending()

		// Then: the computer blocks on cell 2
		assert.Equal(t, o, controller.Snapshot()[2])
	})

	t.Run("Computer win ends the match", func(t *testing.T) {
		// Given: a scripted computer that plays the middle row
		controller, scheduler := newTestController(&scriptedChooser{cells: []int{3, 4, 5}})
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))

		// When: the human plays elsewhere each turn
		for _, cell := range []int{0, 1, 8} {
			require.True(t, controller.RequestMove(cell))
			require.Equal(t, 1, scheduler.runPending())
		}

		// Then: O wins and nothing else is scheduled
		assert.Equal(t, entity.Win(o), controller.Outcome())
		assert.Zero(t, scheduler.pending())
	})

	t.Run("No computer in human vs human", func(t *testing.T) {
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
		require.True(t, controller.RequestMove(0))

		assert.Zero(t, scheduler.pending())
		assert.True(t, controller.RequestMove(4))
	})
}

func TestController_StaleComputerMove(t *testing.T) {
	t.Run("Reset cancels the pending move", func(t *testing.T) {
		// Given: a computer move is pending
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))
		require.Equal(t, 1, scheduler.pending())

		// When: the match is reset
		require.True(t, controller.Reset())

		// Then: the pending move is cancelled
		assert.Zero(t, scheduler.pending())
		assert.Equal(t, entity.Cells{}, controller.Snapshot())
	})

	t.Run("Move that fires after reset is discarded", func(t *testing.T) {
		// Given: a computer move is pending
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))

		// When: the match is reset, X plays again, and the old timer fires anyway
		require.True(t, controller.Reset())
		require.True(t, controller.RequestMove(8))
		require.Equal(t, 2, scheduler.runAll())

		// Then: only the current generation's computer move was applied
		assert.Equal(t, entity.Cells{8: x, 4: o}, controller.Snapshot())
		assert.Equal(t, x, controller.ActiveMark())
	})

	t.Run("Move that fires after replay does not touch the board", func(t *testing.T) {
		// Given: a computer move is pending
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))

		// When: the player goes back to mode selection and starts a pvp match
		require.True(t, controller.Replay())
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
		scheduler.runAll()

		// Then: the stale computer move is discarded
		assert.Equal(t, entity.Cells{}, controller.Snapshot())
		assert.Equal(t, x, controller.ActiveMark())
		assert.Equal(t, uint64(3), controller.State().Generation)
	})

	t.Run("Close discards the pending move", func(t *testing.T) {
		// Given: a computer move is pending
		controller, scheduler := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
		require.True(t, controller.RequestMove(0))

		// When: the controller is closed and the timer fires anyway
		controller.Close()
		scheduler.runAll()

		// Then: the board only holds the human move
		assert.Equal(t, entity.Cells{0: x}, controller.Snapshot())
	})
}

func TestController_RealTimer(t *testing.T) {
	// Given: a controller with the real timer and a short delay
	controller := NewController(nopLogger(), bot.NewPolicy(nil), WithBotDelay(5*time.Millisecond))
	t.Cleanup(controller.Close)

	require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))

	// When: X plays a corner
	require.True(t, controller.RequestMove(0))

	// Then: the computer answers on its own
	require.Eventually(t, func() bool {
		return controller.Snapshot()[4] == o
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, x, controller.ActiveMark())
}

func TestController_Replay(t *testing.T) {
	t.Run("Finished match returns to mode selection", func(t *testing.T) {
		// Given: a finished match
		controller, _ := newTestController(bot.NewPolicy(nil))
		require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
		for _, cell := range []int{0, 3, 1, 4, 2} {
			require.True(t, controller.RequestMove(cell))
		}
		require.Equal(t, entity.StatusFinished, controller.State().Status)

		// When: replay is requested
		ok := controller.Replay()

		// Then: the board is cleared and a mode must be chosen
		require.True(t, ok)
		state := controller.State()
		assert.Equal(t, entity.StatusModeSelection, state.Status)
		assert.Equal(t, entity.Cells{}, state.Board)
		assert.Empty(t, state.ID)

		// When: a mode is selected again
		require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))

		// Then: the new match starts clean
		state = controller.State()
		assert.Equal(t, entity.InProgress(), state.Outcome)
		assert.Equal(t, entity.Cells{}, state.Board)
		assert.Equal(t, x, state.Turn)
		assert.Equal(t, "match-2", state.ID)
	})

	t.Run("Ignored during mode selection", func(t *testing.T) {
		controller, _ := newTestController(bot.NewPolicy(nil))

		assert.False(t, controller.Replay())
		assert.False(t, controller.Reset())
	})
}

func TestController_Reset(t *testing.T) {
	// Given: a human vs computer match in progress
	controller, scheduler := newTestController(bot.NewPolicy(nil))
	require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
	require.True(t, controller.RequestMove(0))
	scheduler.runPending()

	// When: the match is reset
	ok := controller.Reset()

	// Then: the same mode restarts from an empty board
	require.True(t, ok)
	state := controller.State()
	assert.Equal(t, entity.ModeHumanVsComputer, state.Mode)
	assert.Equal(t, entity.StatusOngoing, state.Status)
	assert.Equal(t, entity.Cells{}, state.Board)
	assert.Equal(t, x, state.Turn)
	assert.Equal(t, uint64(2), state.Generation)
}

func TestController_Events(t *testing.T) {
	// Given: a controller with a subscribed listener
	controller, scheduler := newTestController(bot.NewPolicy(nil))
	recorder := &eventRecorder{}
	controller.Subscribe(recorder)

	// When: a short computer match is played and replayed
	require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
	require.True(t, controller.RequestMove(0))
	scheduler.runPending()
	require.False(t, controller.RequestMove(0))
	require.True(t, controller.Reset())
	require.True(t, controller.Replay())

	// Then: one event per committed transition, in order
	assert.Equal(t, []entity.EventType{
		entity.EventModeSelected,
		entity.EventMoveApplied,
		entity.EventMoveApplied,
		entity.EventMatchReset,
		entity.EventModeSelection,
	}, recorder.types())

	humanMove := recorder.events[1]
	require.NotNil(t, humanMove.Cell)
	assert.Equal(t, 0, *humanMove.Cell)
	assert.Equal(t, x, humanMove.Mark)
	assert.Equal(t, o, humanMove.State.Turn)

	computerMove := recorder.events[2]
	require.NotNil(t, computerMove.Cell)
	assert.Equal(t, 4, *computerMove.Cell)
	assert.Equal(t, o, computerMove.Mark)
}

func TestController_FinishEvent(t *testing.T) {
	// Given: a listener built from a func
	controller, _ := newTestController(bot.NewPolicy(nil))
	var finished []entity.Event
	controller.Subscribe(ListenerFunc(func(event entity.Event) {
		if event.Type == entity.EventMatchFinished {
			finished = append(finished, event)
		}
	}))

	// When: X wins
	require.True(t, controller.SelectMode(entity.ModeHumanVsHuman))
	for _, cell := range []int{0, 3, 4, 5, 8} {
		require.True(t, controller.RequestMove(cell))
	}

	// Then: a single finish event carries the winner
	require.Len(t, finished, 1)
	assert.Equal(t, x, finished[0].Mark)
	assert.Equal(t, entity.Win(x), finished[0].State.Outcome)
	assert.Equal(t, "match-1", finished[0].MatchID)
}

func TestController_SlowListenerKeepsOrder(t *testing.T) {
	// Given: a computer that answers immediately and a listener that is slow
	// to handle the human move
	controller := NewController(nopLogger(), bot.NewPolicy(nil), WithBotDelay(0))
	t.Cleanup(controller.Close)

	var (
		mu    sync.Mutex
		marks []int
	)
	controller.Subscribe(ListenerFunc(func(event entity.Event) {
		if event.Type != entity.EventMoveApplied {
			return
		}

		if event.Mark == x {
			time.Sleep(50 * time.Millisecond)
		}

		// listeners may read the controller while being notified
		_ = controller.State()

		count := 0
		for _, cell := range event.State.Board {
			if cell != entity.MarkEmpty {
				count++
			}
		}

		mu.Lock()
		marks = append(marks, count)
		mu.Unlock()
	}))

	require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))

	// When: X plays and the computer answers
	require.True(t, controller.RequestMove(0))

	// Then: the human move is delivered before the computer move
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(marks) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, marks)
}

func TestController_Close(t *testing.T) {
	// Given: an ongoing computer match
	controller, scheduler := newTestController(bot.NewPolicy(nil))
	require.True(t, controller.SelectMode(entity.ModeHumanVsComputer))
	require.True(t, controller.RequestMove(0))
	scheduler.runPending()

	// When: the controller is closed
	controller.Close()

	// Then: every later request is ignored and nothing is scheduled
	assert.False(t, controller.RequestMove(8))
	assert.False(t, controller.Reset())
	assert.False(t, controller.Replay())
	assert.Zero(t, scheduler.pending())
	assert.Equal(t, entity.Cells{0: x, 4: o}, controller.Snapshot())
}
