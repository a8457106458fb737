package bot

import (
	"errors"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/rules"
)

const centerCell = 4

var (
	ErrBoardFull = errors.New("no available moves")

	cornerCells = [4]int{0, 2, 6, 8}
)

// Random is the source used for the last-resort pick.
type Random interface {
	// Intn returns an int in [0, n).
	Intn(n int) int
}

// Policy is the rule-based computer opponent. It is not a search: it plays
// win, block, center, corner, then a random free cell.
type Policy struct {
	random Random
}

var _ entity.MoveChooser = (*Policy)(nil)

func NewPolicy(random Random) *Policy {
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return &Policy{random: random}
}

// ChooseMove returns an empty cell. It panics with ErrBoardFull when there
// is none; callers must not ask for a move after the match has ended.
func (that *Policy) ChooseMove(cells entity.Cells, own, opponent entity.Mark) int {
	free := rules.EmptyCells(cells)
	if len(free) == 0 {
		panic(ErrBoardFull)
	}

	if cell, ok := rules.FindCompletingCell(cells, own); ok {
		return cell
	}

	if cell, ok := rules.FindCompletingCell(cells, opponent); ok {
		return cell
	}

	if cells[centerCell] == entity.MarkEmpty {
		return centerCell
	}

	for _, corner := range cornerCells {
		if cells[corner] == entity.MarkEmpty {
			return corner
		}
	}

	return free[that.random.Intn(len(free))]
}
