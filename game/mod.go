package game

const (
	BoardSize = 9 // Cells per side of the grid
	BoxSize   = 3 // Cells per side of a 3x3 square unit
	TraySize  = 3 // Shapes offered per refill

	MaxShapeSide = 5
	ShapeCells   = MaxShapeSide * MaxShapeSide // Padded bitmap size per tray slot

	MaxLevel = 3 // Highest curriculum tier
)

// Units on the board that can be cleared: rows, columns and 3x3 squares
const Units = 3 * BoardSize

type StateHash uint64

// Phase is the environment's lifecycle state. Only Step moves an environment from Active to Terminal.
type Phase int

const (
	Active Phase = iota
	Terminal
)

func (p Phase) String() string {
	if p == Terminal {
		return "terminal"
	}
	return "active"
}

// Points returns the game score awarded for clearing the given number of units in one placement.
func Points(cleared int) int {
	if cleared <= 0 {
		return 0
	}
	points := 100 * cleared
	if cleared > 1 {
		points += cleared * cleared * 50
	}
	return points
}
