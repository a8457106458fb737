package entity

// BoardSize is the number of cells on a 3x3 board.
const BoardSize = 9

// Mark is the symbol held by a cell.
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// IsPlayable reports whether the mark can be placed on a board.
func (that Mark) IsPlayable() bool {
	return that == MarkX || that == MarkO
}

// Opponent returns the other playable mark.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

// Cells is a read-only copy of the board, row-major.
type Cells [BoardSize]Mark

// Board owns the grid. Place is its only write path.
type Board struct {
	cells Cells
}

func NewBoard() *Board {
	return &Board{}
}

// Place marks the cell if the index is valid and the cell is empty.
// A rejected placement leaves the board untouched.
func (that *Board) Place(cell int, mark Mark) bool {
	if cell < 0 || cell >= BoardSize {
		return false
	}

	if !mark.IsPlayable() || that.cells[cell] != MarkEmpty {
		return false
	}

	that.cells[cell] = mark

	return true
}

func (that *Board) Snapshot() Cells {
	return that.cells
}

func (that *Board) Reset() {
	that.cells = Cells{}
}
