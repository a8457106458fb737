package tictactoe

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/rules"
)

const DefaultBotDelay = 500 * time.Millisecond

// Listener is notified after each committed transition, in commit order.
// It may read the controller but must not request transitions.
type Listener interface {
	HandleEvent(event entity.Event)
}

type ListenerFunc func(event entity.Event)

func (that ListenerFunc) HandleEvent(event entity.Event) {
	that(event)
}

type Option func(*Controller)

func WithScheduler(scheduler Scheduler) Option {
	return func(that *Controller) {
		that.scheduler = scheduler
	}
}

func WithBotDelay(delay time.Duration) Option {
	return func(that *Controller) {
		that.botDelay = delay
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(that *Controller) {
		that.newID = newID
	}
}

// Controller owns one match at a time: mode selection, turn order, move
// application, end detection and the replay lifecycle.
//
// Starting, resetting or leaving a match bumps the generation. A deferred
// computer move only applies while the generation it was scheduled for is
// still current.
type Controller struct {
	logger    *slog.Logger
	policy    entity.MoveChooser
	scheduler Scheduler
	botDelay  time.Duration
	newID     func() string

	listenersMu sync.RWMutex
	listeners   []Listener

	// dispatchMu is taken before mu and held until the events of a
	// transition are delivered.
	dispatchMu sync.Mutex

	mu          sync.Mutex
	closed      bool
	board       *entity.Board
	playerX     entity.Player
	playerO     entity.Player
	id          string
	generation  uint64
	mode        entity.Mode
	status      entity.Status
	turn        entity.Mark
	outcome     entity.Outcome
	stopPending func() bool
}

// NewController starts in mode selection. policy drives player O in
// human-vs-computer matches.
func NewController(logger *slog.Logger, policy entity.MoveChooser, opts ...Option) *Controller {
	controller := &Controller{
		logger:    logger.With("component", "match_controller"),
		policy:    policy,
		scheduler: timerScheduler{},
		botDelay:  DefaultBotDelay,
		newID:     uuid.NewString,

		board:   entity.NewBoard(),
		status:  entity.StatusModeSelection,
		outcome: entity.InProgress(),
	}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

func (that *Controller) Subscribe(listener Listener) {
	that.listenersMu.Lock()
	defer that.listenersMu.Unlock()

	that.listeners = append(that.listeners, listener)
}

// SelectMode starts a new match. It is only accepted during mode selection.
func (that *Controller) SelectMode(mode entity.Mode) bool {
	return that.transition(func() ([]entity.Event, bool) {
		return that.selectMode(mode)
	})
}

// RequestMove places the active human player's mark. Requests outside an
// ongoing match, on the computer's turn or on an unplayable cell are ignored.
func (that *Controller) RequestMove(cell int) bool {
	return that.transition(func() ([]entity.Event, bool) {
		return that.requestMove(cell)
	})
}

// Reset clears the board and restarts the current mode.
func (that *Controller) Reset() bool {
	return that.transition(that.reset)
}

// Replay abandons the current match and returns to mode selection.
func (that *Controller) Replay() bool {
	return that.transition(that.replay)
}

// Close cancels a pending computer move. Deferred moves that already fired
// are discarded and every later request is ignored.
func (that *Controller) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelPending()
	that.generation++
	that.closed = true
}

func (that *Controller) Snapshot() entity.Cells {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.Snapshot()
}

func (that *Controller) Outcome() entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.outcome
}

// ActiveMark is the mark to move, or MarkEmpty when no match is ongoing.
func (that *Controller) ActiveMark() entity.Mark {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.turn
}

func (that *Controller) State() entity.MatchState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state()
}

func (that *Controller) selectMode(mode entity.Mode) ([]entity.Event, bool) {
	log := that.logger.With("method", "selectMode", "mode", mode)

	if that.status != entity.StatusModeSelection {
		log.Debug("mode selection ignored", "status", that.status)
		return nil, false
	}

	if _, err := entity.ParseMode(string(mode)); err != nil {
		log.Debug("mode selection ignored", "error", err)
		return nil, false
	}

	that.startMatch(mode)

	log.Info("match started", "matchID", that.id, "generation", that.generation)

	return []entity.Event{that.event(entity.EventModeSelected, nil, entity.MarkEmpty)}, true
}

func (that *Controller) requestMove(cell int) ([]entity.Event, bool) {
	log := that.logger.With("method", "requestMove", "cell", cell)

	if that.status != entity.StatusOngoing {
		log.Debug("move ignored", "status", that.status)
		return nil, false
	}

	if that.activePlayer().IsBot() {
		log.Debug("move ignored, computer to play")
		return nil, false
	}

	return that.applyMove(cell)
}

func (that *Controller) reset() ([]entity.Event, bool) {
	if that.status == entity.StatusModeSelection {
		return nil, false
	}

	that.startMatch(that.mode)

	that.logger.Info("match reset", "matchID", that.id, "generation", that.generation)

	return []entity.Event{that.event(entity.EventMatchReset, nil, entity.MarkEmpty)}, true
}

func (that *Controller) replay() ([]entity.Event, bool) {
	if that.status == entity.StatusModeSelection {
		return nil, false
	}

	that.cancelPending()
	that.board.Reset()
	that.generation++
	that.id = ""
	that.mode = ""
	that.playerX = entity.Player{}
	that.playerO = entity.Player{}
	that.status = entity.StatusModeSelection
	that.turn = entity.MarkEmpty
	that.outcome = entity.InProgress()

	that.logger.Info("back to mode selection", "generation", that.generation)

	return []entity.Event{that.event(entity.EventModeSelection, nil, entity.MarkEmpty)}, true
}

// playBotMove is the deferred computer move for the given generation.
func (that *Controller) playBotMove(generation uint64) {
	that.transition(func() ([]entity.Event, bool) {
		events := that.botMove(generation)
		return events, len(events) > 0
	})
}

func (that *Controller) botMove(generation uint64) []entity.Event {
	log := that.logger.With("method", "botMove", "generation", generation)

	if generation != that.generation {
		log.Debug("stale computer move discarded", "current", that.generation)
		return nil
	}

	player := that.activePlayer()
	if that.status != entity.StatusOngoing || !player.IsBot() {
		log.Debug("computer move discarded", "status", that.status)
		return nil
	}

	that.stopPending = nil

	cell := player.Bot.ChooseMove(that.board.Snapshot(), player.Mark, player.Mark.Opponent())

	events, ok := that.applyMove(cell)
	if !ok {
		log.Error("computer chose an unplayable cell", "cell", cell)
	}

	return events
}

// applyMove is the single placement path for human and computer moves.
// Callers hold the lock.
func (that *Controller) applyMove(cell int) ([]entity.Event, bool) {
	mark := that.turn

	if !that.board.Place(cell, mark) {
		that.logger.Debug("placement rejected", "cell", cell, "mark", mark)
		return nil, false
	}

	cells := that.board.Snapshot()

	switch winner, won := rules.DetectWin(cells); {
	case won:
		that.finish(entity.Win(winner))
	case rules.DetectTie(cells):
		that.finish(entity.Tie())
	default:
		that.turn = mark.Opponent()
	}

	events := []entity.Event{that.event(entity.EventMoveApplied, &cell, mark)}

	if that.status == entity.StatusFinished {
		that.logger.Info("match finished", "matchID", that.id, "result", that.outcome.Result, "winner", that.outcome.Winner)
		events = append(events, that.event(entity.EventMatchFinished, nil, that.outcome.Winner))

		return events, true
	}

	that.scheduleBotMove()

	return events, true
}

func (that *Controller) finish(outcome entity.Outcome) {
	that.outcome = outcome
	that.status = entity.StatusFinished
	that.turn = entity.MarkEmpty
}

// startMatch begins a fresh match in mode. Callers hold the lock.
func (that *Controller) startMatch(mode entity.Mode) {
	that.cancelPending()
	that.board.Reset()
	that.generation++
	that.id = that.newID()
	that.mode = mode

	that.playerX = entity.NewHumanPlayer(entity.MarkX)
	that.playerO = entity.NewHumanPlayer(entity.MarkO)
	if mode == entity.ModeHumanVsComputer {
		that.playerO = entity.NewBotPlayer(entity.MarkO, that.policy)
	}

	that.status = entity.StatusOngoing
	that.turn = entity.MarkX
	that.outcome = entity.InProgress()

	that.scheduleBotMove()
}

func (that *Controller) scheduleBotMove() {
	if that.closed || that.status != entity.StatusOngoing || !that.activePlayer().IsBot() {
		return
	}

	that.cancelPending()

	generation := that.generation
	that.stopPending = that.scheduler.AfterFunc(that.botDelay, func() {
		that.playBotMove(generation)
	})
}

func (that *Controller) cancelPending() {
	if that.stopPending == nil {
		return
	}

	that.stopPending()
	that.stopPending = nil
}

func (that *Controller) activePlayer() entity.Player {
	switch that.turn {
	case entity.MarkX:
		return that.playerX
	case entity.MarkO:
		return that.playerO
	default:
		return entity.Player{}
	}
}

func (that *Controller) state() entity.MatchState {
	return entity.MatchState{
		ID:         that.id,
		Generation: that.generation,
		Board:      that.board.Snapshot(),
		Turn:       that.turn,
		Mode:       that.mode,
		Status:     that.status,
		Active:     that.status == entity.StatusOngoing,
		Outcome:    that.outcome,
	}
}

func (that *Controller) event(eventType entity.EventType, cell *int, mark entity.Mark) entity.Event {
	return entity.Event{
		Type:       eventType,
		MatchID:    that.id,
		Generation: that.generation,
		Cell:       cell,
		Mark:       mark,
		State:      that.state(),
	}
}

// transition runs apply under mu and delivers its events before the next
// transition can start, so listeners see events in commit order.
func (that *Controller) transition(apply func() ([]entity.Event, bool)) bool {
	that.dispatchMu.Lock()
	defer that.dispatchMu.Unlock()

	events, ok := that.commit(apply)
	that.notify(events)

	return ok
}

func (that *Controller) commit(apply func() ([]entity.Event, bool)) ([]entity.Event, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil, false
	}

	return apply()
}

func (that *Controller) notify(events []entity.Event) {
	if len(events) == 0 {
		return
	}

	that.listenersMu.RLock()
	listeners := slices.Clone(that.listeners)
	that.listenersMu.RUnlock()

	for _, event := range events {
		for _, listener := range listeners {
			listener.HandleEvent(event)
		}
	}
}
