package entity

// MoveChooser picks a cell for a computer-controlled player.
type MoveChooser interface {
	ChooseMove(cells Cells, own, opponent Mark) int
}

// Player is a seat in a match. A non-nil Bot makes it computer-controlled.
type Player struct {
	Mark Mark        `json:"mark"`
	Bot  MoveChooser `json:"-"`
}

func NewHumanPlayer(mark Mark) Player {
	return Player{Mark: mark}
}

func NewBotPlayer(mark Mark, bot MoveChooser) Player {
	return Player{Mark: mark, Bot: bot}
}

func (that Player) IsBot() bool {
	return that.Bot != nil
}
