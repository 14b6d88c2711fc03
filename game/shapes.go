package game

import (
	"strings"

	"golang.org/x/exp/rand"
)

type Cell struct {
	Row int
	Col int
}

// Shape is an immutable polyomino. Cells are offsets from the top-left anchor.
type Shape struct {
	Name  string
	Rows  int
	Cols  int
	cells []Cell
}

// NewShape builds a shape from a boolean matrix. Rows may be ragged; missing cells are empty.
func NewShape(name string, grid [][]bool) Shape {
	s := Shape{Name: name}
	for r, row := range grid {
		for c, filled := range row {
			if !filled {
				continue
			}
			s.cells = append(s.cells, Cell{Row: r, Col: c})
			s.Rows = max(s.Rows, r+1)
			s.Cols = max(s.Cols, c+1)
		}
	}
	return s
}

// parseShape reads a pattern where 'X' marks an occupied cell.
func parseShape(name string, rows ...string) Shape {
	grid := make([][]bool, len(rows))
	for r, row := range rows {
		grid[r] = make([]bool, len(row))
		for c, ch := range row {
			grid[r][c] = ch == 'X'
		}
	}
	return NewShape(name, grid)
}

// Cells returns the occupied offsets. The slice is shared and must not be modified.
func (s Shape) Cells() []Cell {
	return s.cells
}

func (s Shape) Size() int {
	return len(s.cells)
}

func (s Shape) Empty() bool {
	return len(s.cells) == 0
}

// Grid returns a fresh Rows x Cols boolean matrix of the shape.
func (s Shape) Grid() [][]bool {
	grid := make([][]bool, s.Rows)
	for r := range grid {
		grid[r] = make([]bool, s.Cols)
	}
	for _, cell := range s.cells {
		grid[cell.Row][cell.Col] = true
	}
	return grid
}

func (s Shape) String() string {
	var sb strings.Builder
	for r, row := range s.Grid() {
		if r > 0 {
			sb.WriteByte('/')
		}
		for _, filled := range row {
			if filled {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// Shapes introduced at each curriculum level. Levels are cumulative.
var tiers = [MaxLevel + 1][]Shape{
	{ // simple
		parseShape("dot", "X"),
		parseShape("domino-h", "XX"),
		parseShape("domino-v", "X", "X"),
		parseShape("line3-h", "XXX"),
		parseShape("line3-v", "X", "X", "X"),
		parseShape("square2", "XX", "XX"),
	},
	{ // medium
		parseShape("corner-nw", "XX", "X."),
		parseShape("corner-ne", "XX", ".X"),
		parseShape("corner-sw", "X.", "XX"),
		parseShape("corner-se", ".X", "XX"),
		parseShape("t-down", "XXX", ".X."),
		parseShape("t-up", ".X.", "XXX"),
		parseShape("t-right", "X.", "XX", "X."),
		parseShape("t-left", ".X", "XX", ".X"),
		parseShape("line4-h", "XXXX"),
		parseShape("line4-v", "X", "X", "X", "X"),
	},
	{ // complex
		parseShape("s-h", ".XX", "XX."),
		parseShape("z-h", "XX.", ".XX"),
		parseShape("s-v", "X.", "XX", ".X"),
		parseShape("z-v", ".X", "XX", "X."),
		parseShape("l-down", "X.", "X.", "XX"),
		parseShape("j-down", ".X", ".X", "XX"),
		parseShape("l-up", "XX", "X.", "X."),
		parseShape("j-up", "XX", ".X", ".X"),
		parseShape("rect-h", "XXX", "XXX"),
		parseShape("rect-v", "XX", "XX", "XX"),
		parseShape("square3", "XXX", "XXX", "XXX"),
	},
	{ // full
		parseShape("line5-h", "XXXXX"),
		parseShape("line5-v", "X", "X", "X", "X", "X"),
		parseShape("big-l-sw", "X..", "X..", "XXX"),
		parseShape("big-l-se", "..X", "..X", "XXX"),
		parseShape("big-l-nw", "XXX", "X..", "X.."),
		parseShape("big-l-ne", "XXX", "..X", "..X"),
		parseShape("plus", ".X.", "XXX", ".X."),
		parseShape("u-up", "X.X", "XXX"),
		parseShape("big-t", "XXX", ".X.", ".X."),
		parseShape("diagonal", "X..", ".X.", "..X"),
		parseShape("anti-diagonal", "..X", ".X.", "X.."),
	},
}

// Catalog returns every shape available at the given curriculum level.
func Catalog(level int) []Shape {
	level = clampLevel(level)
	var shapes []Shape
	for l := 0; l <= level; l++ {
		shapes = append(shapes, tiers[l]...)
	}
	return shapes
}

// drawTray samples a full tray uniformly from the level's catalog.
func drawTray(rng *rand.Rand, level int) []Shape {
	shapes := Catalog(level)
	tray := make([]Shape, TraySize)
	for i := range tray {
		tray[i] = shapes[rng.Intn(len(shapes))]
	}
	return tray
}

func clampLevel(level int) int {
	return min(max(level, 0), MaxLevel)
}
