package agent

import (
	"math"
	"slices"

	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/searcher"
	"blocks/utils"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// TreeAgent searches with MCTS on every move and takes the most visited move. A positive
// temperature makes it sample the root visit distribution instead while training.
type TreeAgent struct {
	tracker
	mcts        *searcher.MCTS
	src         rand.Source
	temperature float64
	mode        Mode
	last        metrics.SearchMetric
}

func NewTreeAgent(cfg Config) *TreeAgent {
	options := []searcher.Option{
		searcher.WithSimulations(cfg.Simulations),
		searcher.WithCutoff(cfg.Cutoff),
		searcher.WithExploration(cfg.Exploration),
		searcher.WithSeed(cfg.Seed),
		searcher.WithMetrics(),
	}
	if cfg.RolloutHeuristic {
		h := game.DefaultHeuristic()
		h.Depth = 0
		options = append(options, searcher.WithRolloutPolicy(searcher.HeuristicRollout(h, cfg.RolloutNoise)))
	}
	return &TreeAgent{
		tracker:     newTracker(cfg.StatsWindow),
		mcts:        searcher.NewMCTS(cfg.Goroutines, options...),
		src:         rand.NewSource(cfg.Seed),
		temperature: cfg.Temperature,
	}
}

func (a *TreeAgent) Kind() Kind {
	return TreeKind
}

func (a *TreeAgent) SetMode(mode Mode) {
	a.mode = mode
}

func (a *TreeAgent) SelectAction(env *game.Environment, valid []game.Action) game.Action {
	if len(valid) == 0 {
		return game.NoAction
	}

	state := searcher.FromEnvironment(env)
	var move game.Action
	if a.mode == Training && a.temperature > 0 {
		var policy map[game.Action]float64
		policy, a.last = a.mcts.Simulate(state)
		move = a.sample(policy)
	} else {
		move, a.last = a.mcts.FindNextMove(state)
	}

	if utils.FindIndex(valid, move) < 0 {
		return valid[0]
	}
	return move
}

// sample draws from the visit shares raised to 1/temperature.
func (a *TreeAgent) sample(policy map[game.Action]float64) game.Action {
	if len(policy) == 0 {
		return game.NoAction
	}
	moves := make([]game.Action, 0, len(policy))
	for move := range policy {
		moves = append(moves, move)
	}
	slices.Sort(moves)

	weights := make([]float64, len(moves))
	for i, move := range moves {
		weights[i] = math.Pow(policy[move], 1/a.temperature)
	}
	i, ok := sampleuv.NewWeighted(weights, a.src).Take()
	if !ok {
		return moves[0]
	}
	return moves[i]
}

// LastSearch returns the metrics of the most recent search.
func (a *TreeAgent) LastSearch() metrics.SearchMetric {
	return a.last
}

func (a *TreeAgent) Stats() Stats {
	return a.snapshot(TreeKind)
}

func (a *TreeAgent) Close() error {
	return nil
}
