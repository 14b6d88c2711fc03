package searcher

import (
	"math"

	"blocks/game"
)

const WIN = 1.0  // Best possible evaluation of a rollout
const LOSS = 0.0 // Virtual loss, added while a simulation is in flight

// State is the search view of a game. Play never mutates the receiver.
type State interface {
	// LegalMoves must not be modified by the caller.
	LegalMoves() []game.Action
	Play(move game.Action) State
	// IsStochastic reports whether playing move triggers a random tray refill.
	IsStochastic(move game.Action) bool
	Hash() game.StateHash
	Score() int
	Board() game.Board
	Tray() []game.Shape
	// Reseed returns a copy whose future refills come from seed.
	Reseed(seed uint64) State
}

type Node interface {
	SelectOrExpand(state State) (child Node, childState State, selected bool)
	Backup(reward float64) Node
	Visits() int
	mean() float64
	applyLoss()
	score(u *uct) float64
}

// Outcome summarises a rollout. Gain is the score earned since the search root and
// Open is the fraction of free cells left on the board.
type Outcome struct {
	Gain     float64
	Depth    int
	Cutoff   int
	Terminal bool
	Open     float64
}

// Evaluate maps a rollout outcome to a reward in [LOSS, WIN].
type Evaluate func(o Outcome) float64

// DefaultEvaluate blends score gain, survival and board openness. Rollouts that survive
// to the cutoff get full survival credit.
func DefaultEvaluate(o Outcome) float64 {
	gain := math.Max(o.Gain, 0)
	survival := 1.0
	if o.Terminal && o.Cutoff > 0 {
		survival = math.Min(float64(o.Depth)/float64(o.Cutoff), 1)
	}
	open := math.Min(math.Max(o.Open, 0), 1)
	return 0.5*gain/(gain+300) + 0.4*survival + 0.1*open
}
