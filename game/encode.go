package game

import "math"

// StateSize is the length of the encoded state vector:
// board cells, unit fill fractions, padded tray bitmaps and four meta features.
const StateSize = BoardSize*BoardSize + Units + TraySize*ShapeCells + 4

const (
	scoreScale      = 10000.0
	sinceClearScale = 20.0
)

// State encodes the environment. It reads only and returns a fresh slice on every call.
func (e *Environment) State() []float64 {
	state := make([]float64, 0, StateSize)

	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if e.board[r][c] {
				state = append(state, 1)
			} else {
				state = append(state, 0)
			}
		}
	}

	for i := 0; i < BoardSize; i++ {
		state = append(state, float64(e.board.RowFill(i))/BoardSize)
	}
	for i := 0; i < BoardSize; i++ {
		state = append(state, float64(e.board.ColFill(i))/BoardSize)
	}
	for i := 0; i < BoardSize; i++ {
		state = append(state, float64(e.board.BoxFill(i))/BoardSize)
	}

	for slot := 0; slot < TraySize; slot++ {
		var bitmap [ShapeCells]float64
		if slot < len(e.tray) {
			for _, cell := range e.tray[slot].cells {
				if cell.Row < MaxShapeSide && cell.Col < MaxShapeSide {
					bitmap[cell.Row*MaxShapeSide+cell.Col] = 1
				}
			}
		}
		state = append(state, bitmap[:]...)
	}

	state = append(state,
		math.Min(float64(e.score)/scoreScale, 1),
		math.Min(float64(e.sinceClear)/sinceClearScale, 1),
		float64(len(e.tray))/TraySize,
		float64(e.curriculum.Level())/MaxLevel,
	)
	return state
}
