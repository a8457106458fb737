package entity

type EventType string

const (
	EventModeSelected  EventType = "mode_selected"
	EventMoveApplied   EventType = "move_applied"
	EventMatchFinished EventType = "match_finished"
	EventMatchReset    EventType = "match_reset"
	EventModeSelection EventType = "mode_selection"
)

// Event is emitted after every committed match transition.
type Event struct {
	Type       EventType  `json:"type"`
	MatchID    string     `json:"match_id"`
	Generation uint64     `json:"generation"`
	Cell       *int       `json:"cell,omitempty"`
	Mark       Mark       `json:"mark,omitempty"`
	State      MatchState `json:"state"`
}
