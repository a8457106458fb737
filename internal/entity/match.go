package entity

import (
	"errors"
	"fmt"
)

type Mode string

const (
	ModeHumanVsHuman    Mode = "pvp"
	ModeHumanVsComputer Mode = "bot"
)

var ErrUnknownMode = errors.New("unknown game mode")

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case ModeHumanVsHuman, ModeHumanVsComputer:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

type Status string

const (
	StatusModeSelection Status = "mode_selection"
	StatusOngoing       Status = "ongoing"
	StatusFinished      Status = "finished"
)

type Result string

const (
	ResultInProgress Result = "in_progress"
	ResultWin        Result = "win"
	ResultTie        Result = "tie"
)

// Outcome is InProgress, Win(Winner) or Tie.
type Outcome struct {
	Result Result `json:"result"`
	Winner Mark   `json:"winner,omitempty"`
}

func InProgress() Outcome {
	return Outcome{Result: ResultInProgress}
}

func Win(mark Mark) Outcome {
	return Outcome{Result: ResultWin, Winner: mark}
}

func Tie() Outcome {
	return Outcome{Result: ResultTie}
}

func (that Outcome) IsTerminal() bool {
	return that.Result == ResultWin || that.Result == ResultTie
}

// MatchState is the observable view of a match handed to renderers.
type MatchState struct {
	ID         string  `json:"id"`
	Generation uint64  `json:"generation"`
	Board      Cells   `json:"board"`
	Turn       Mark    `json:"player_turn"`
	Mode       Mode    `json:"mode,omitempty"`
	Status     Status  `json:"status"`
	Active     bool    `json:"active"`
	Outcome    Outcome `json:"outcome"`
}

func (that MatchState) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that MatchState) IsFinished() bool {
	return that.Status == StatusFinished
}

// Message is the one-line status shown to players.
func (that MatchState) Message() string {
	switch {
	case that.Status == StatusModeSelection:
		return "Choose a mode: pvp or bot"
	case that.Outcome.Result == ResultWin:
		return fmt.Sprintf("Player %s wins!", that.Outcome.Winner)
	case that.Outcome.Result == ResultTie:
		return "It's a tie!"
	default:
		return fmt.Sprintf("Player %s's turn", that.Turn)
	}
}
