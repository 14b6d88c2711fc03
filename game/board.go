package game

import "fmt"

// Board is the 9x9 grid. It is an array so assignment copies it.
type Board [BoardSize][BoardSize]bool

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// CanPlace reports whether every cell of the shape lands in bounds on an empty cell.
func (b *Board) CanPlace(s Shape, row, col int) bool {
	if s.Empty() {
		return false
	}
	for _, cell := range s.cells {
		r, c := row+cell.Row, col+cell.Col
		if !inBounds(r, c) || b[r][c] {
			return false
		}
	}
	return true
}

// Place fills the shape's cells and returns how many were filled. The placement must be valid.
func (b *Board) Place(s Shape, row, col int) int {
	if !b.CanPlace(s, row, col) {
		panic(fmt.Sprintf("invalid placement of %s at (%d,%d)", s.Name, row, col))
	}
	for _, cell := range s.cells {
		b[row+cell.Row][col+cell.Col] = true
	}
	return len(s.cells)
}

// ClearCompletedLines empties every full row, column and 3x3 square and returns the number of
// units cleared. Units are detected before any cell is reset, so overlapping units all count.
func (b *Board) ClearCompletedLines() int {
	rows, cols, boxes := b.completedUnits()
	for _, r := range rows {
		for c := 0; c < BoardSize; c++ {
			b[r][c] = false
		}
	}
	for _, c := range cols {
		for r := 0; r < BoardSize; r++ {
			b[r][c] = false
		}
	}
	for _, box := range boxes {
		r0, c0 := boxOrigin(box)
		for r := r0; r < r0+BoxSize; r++ {
			for c := c0; c < c0+BoxSize; c++ {
				b[r][c] = false
			}
		}
	}
	return len(rows) + len(cols) + len(boxes)
}

func (b *Board) completedUnits() (rows, cols, boxes []int) {
	for i := 0; i < BoardSize; i++ {
		if b.RowFill(i) == BoardSize {
			rows = append(rows, i)
		}
		if b.ColFill(i) == BoardSize {
			cols = append(cols, i)
		}
		if b.BoxFill(i) == BoardSize {
			boxes = append(boxes, i)
		}
	}
	return rows, cols, boxes
}

// CompletedUnits counts the units that are currently full.
func (b *Board) CompletedUnits() int {
	rows, cols, boxes := b.completedUnits()
	return len(rows) + len(cols) + len(boxes)
}

func boxOrigin(box int) (row, col int) {
	return (box / BoxSize) * BoxSize, (box % BoxSize) * BoxSize
}

func (b *Board) RowFill(row int) int {
	n := 0
	for c := 0; c < BoardSize; c++ {
		if b[row][c] {
			n++
		}
	}
	return n
}

func (b *Board) ColFill(col int) int {
	n := 0
	for r := 0; r < BoardSize; r++ {
		if b[r][col] {
			n++
		}
	}
	return n
}

// BoxFill counts filled cells of the 3x3 square numbered row-major from the top-left.
func (b *Board) BoxFill(box int) int {
	r0, c0 := boxOrigin(box)
	n := 0
	for r := r0; r < r0+BoxSize; r++ {
		for c := c0; c < c0+BoxSize; c++ {
			if b[r][c] {
				n++
			}
		}
	}
	return n
}

func (b *Board) Filled() int {
	n := 0
	for r := 0; r < BoardSize; r++ {
		n += b.RowFill(r)
	}
	return n
}

// Fits reports whether the shape can be placed anywhere on the board.
func (b *Board) Fits(s Shape) bool {
	for r := 0; r+s.Rows <= BoardSize; r++ {
		for c := 0; c+s.Cols <= BoardSize; c++ {
			if b.CanPlace(s, r, c) {
				return true
			}
		}
	}
	return false
}

// IsGameOver is true iff no shape in the tray fits at any position.
func (b *Board) IsGameOver(tray []Shape) bool {
	for _, s := range tray {
		if b.Fits(s) {
			return false
		}
	}
	return true
}

func (b *Board) String() string {
	buf := make([]byte, 0, BoardSize*(BoardSize+1))
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b[r][c] {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
