// Package rules holds the stateless win/tie checks shared by the match
// controller and the computer opponent.
package rules

import "github.com/rocketscienceinc/tictactoe/internal/entity"

// WinCombos are the eight triples in the order they are checked:
// rows, columns, diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// DetectWin returns the mark holding a full triple, if any.
func DetectWin(cells entity.Cells) (entity.Mark, bool) {
	for _, combo := range WinCombos {
		a, b, c := cells[combo[0]], cells[combo[1]], cells[combo[2]]
		if a != entity.MarkEmpty && a == b && b == c {
			return a, true
		}
	}

	return entity.MarkEmpty, false
}

// DetectTie reports a full board without a winning triple.
func DetectTie(cells entity.Cells) bool {
	for _, cell := range cells {
		if cell == entity.MarkEmpty {
			return false
		}
	}

	_, won := DetectWin(cells)

	return !won
}

// FindCompletingCell returns the empty cell of the first triple where mark
// already holds the other two.
func FindCompletingCell(cells entity.Cells, mark entity.Mark) (int, bool) {
	if !mark.IsPlayable() {
		return -1, false
	}

	for _, combo := range WinCombos {
		owned, empty := 0, -1

		for _, idx := range combo {
			switch cells[idx] {
			case mark:
				owned++
			case entity.MarkEmpty:
				empty = idx
			}
		}

		if owned == 2 && empty >= 0 {
			return empty, true
		}
	}

	return -1, false
}

// EmptyCells lists the free indices in ascending order.
func EmptyCells(cells entity.Cells) []int {
	free := make([]int, 0, len(cells))
	for i, cell := range cells {
		if cell == entity.MarkEmpty {
			free = append(free, i)
		}
	}

	return free
}
