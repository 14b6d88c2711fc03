package searcher

import (
	"blocks/game"

	"golang.org/x/exp/rand"
)

// RolloutPolicy picks the next move of a playout. moves is never empty.
type RolloutPolicy func(state State, moves []game.Action, rng *rand.Rand) game.Action

func RandomRollout(_ State, moves []game.Action, rng *rand.Rand) game.Action {
	return moves[rng.Intn(len(moves))]
}

// HeuristicRollout plays the best move under h, and a random one with probability noise.
func HeuristicRollout(h game.Heuristic, noise float64) RolloutPolicy {
	return func(state State, moves []game.Action, rng *rand.Rand) game.Action {
		if rng.Float64() < noise {
			return RandomRollout(state, moves, rng)
		}
		best, _ := h.Best(state.Board(), state.Tray(), moves)
		if best == game.NoAction {
			return RandomRollout(state, moves, rng)
		}
		return best
	}
}
