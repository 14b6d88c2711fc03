package game

import "math"

// Pattern counts the spatial features the reward and heuristics care about.
type Pattern struct {
	Isolated       int // Filled cells with no filled orthogonal neighbour
	DeadGaps       int // Empty cells enclosed on all four sides
	WastedCorners  int // Empty board corners boxed in by both edge neighbours
	Fragments      int // Empty regions of two or three cells
	CompactRegions int // Filled regions of four or more cells
	EdgeCells      int // Filled border cells, corners excluded
	CornerCells    int // Filled board corners
}

var neighbours = [4]Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

var corners = [4]Cell{{0, 0}, {0, BoardSize - 1}, {BoardSize - 1, 0}, {BoardSize - 1, BoardSize - 1}}

// Patterns scans the board's connected regions.
func (b *Board) Patterns() Pattern {
	var p Pattern
	var visited Board
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if visited[r][c] {
				continue
			}
			size := b.dfs(r, c, &visited)
			switch {
			case b[r][c] && size == 1:
				p.Isolated++
			case b[r][c] && size >= 4:
				p.CompactRegions++
			case !b[r][c] && size == 1:
				p.DeadGaps++
			case !b[r][c] && size <= 3:
				p.Fragments++
			}
		}
	}

	for _, corner := range corners {
		if b[corner.Row][corner.Col] {
			p.CornerCells++
			continue
		}
		boxed := true
		for _, n := range neighbours {
			r, c := corner.Row+n.Row, corner.Col+n.Col
			if inBounds(r, c) && !b[r][c] {
				boxed = false
			}
		}
		if boxed {
			p.WastedCorners++
		}
	}

	for i := 1; i < BoardSize-1; i++ {
		for _, cell := range [4]Cell{{0, i}, {BoardSize - 1, i}, {i, 0}, {i, BoardSize - 1}} {
			if b[cell.Row][cell.Col] {
				p.EdgeCells++
			}
		}
	}
	return p
}

// dfs returns the size of the region of cells sharing the start cell's fill state
func (b *Board) dfs(row, col int, visited *Board) int {
	want := b[row][col]
	stack := []Cell{{row, col}}
	visited[row][col] = true
	size := 0
	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		for _, n := range neighbours {
			r, c := cell.Row+n.Row, cell.Col+n.Col
			if inBounds(r, c) && !visited[r][c] && b[r][c] == want {
				visited[r][c] = true
				stack = append(stack, Cell{r, c})
			}
		}
	}
	return size
}

// AlmostComplete counts units missing exactly one cell.
func (b *Board) AlmostComplete() int {
	n := 0
	for i := 0; i < BoardSize; i++ {
		if b.RowFill(i) == BoardSize-1 {
			n++
		}
		if b.ColFill(i) == BoardSize-1 {
			n++
		}
		if b.BoxFill(i) == BoardSize-1 {
			n++
		}
	}
	return n
}

// Heuristic scores placements by the lines they complete, the units they leave one cell short,
// and the best follow-up among the remaining tray shapes.
type Heuristic struct {
	LineWeight   float64
	AlmostWeight float64
	Discount     float64 // Weight of the follow-up placement
	Depth        int     // Follow-up placements to look ahead
}

func DefaultHeuristic() Heuristic {
	return Heuristic{
		LineWeight:   100,
		AlmostWeight: 10,
		Discount:     0.5,
		Depth:        1,
	}
}

// Score evaluates placing tray[block] at (row, col). Invalid placements score -Inf.
func (h Heuristic) Score(board Board, tray []Shape, a Action) float64 {
	block, row, col := a.Decode()
	if block < 0 || block >= len(tray) || !board.CanPlace(tray[block], row, col) {
		return math.Inf(-1)
	}
	return h.score(board, tray, block, row, col, h.Depth)
}

func (h Heuristic) score(board Board, tray []Shape, block, row, col, depth int) float64 {
	board.Place(tray[block], row, col)
	lines := board.ClearCompletedLines()
	value := h.LineWeight*float64(lines) + h.AlmostWeight*float64(board.AlmostComplete())
	if depth <= 0 || len(tray) <= 1 {
		return value
	}

	rest := make([]Shape, 0, len(tray)-1)
	rest = append(rest, tray[:block]...)
	rest = append(rest, tray[block+1:]...)
	best := math.Inf(-1)
	for b, s := range rest {
		for r := 0; r+s.Rows <= BoardSize; r++ {
			for c := 0; c+s.Cols <= BoardSize; c++ {
				if !board.CanPlace(s, r, c) {
					continue
				}
				if v := h.score(board, rest, b, r, c, depth-1); v > best {
					best = v
				}
			}
		}
	}
	if math.IsInf(best, -1) { // Nothing fits afterwards
		return value - h.LineWeight
	}
	return value + h.Discount*best
}

// Best returns the highest scoring action among candidates, keeping the first on ties.
func (h Heuristic) Best(board Board, tray []Shape, candidates []Action) (Action, float64) {
	best, bestScore := NoAction, math.Inf(-1)
	for _, a := range candidates {
		if v := h.Score(board, tray, a); v > bestScore {
			best, bestScore = a, v
		}
	}
	return best, bestScore
}
