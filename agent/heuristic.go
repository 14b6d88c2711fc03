package agent

import "blocks/game"

// HeuristicAgent greedily plays the best placement under game.Heuristic. It never learns.
type HeuristicAgent struct {
	tracker
	heuristic game.Heuristic
}

func NewHeuristicAgent(cfg Config) *HeuristicAgent {
	h := game.DefaultHeuristic()
	h.Depth = cfg.HeuristicDepth
	return &HeuristicAgent{
		tracker:   newTracker(cfg.StatsWindow),
		heuristic: h,
	}
}

func (a *HeuristicAgent) Kind() Kind {
	return HeuristicKind
}

func (a *HeuristicAgent) SelectAction(env *game.Environment, valid []game.Action) game.Action {
	if len(valid) == 0 {
		return game.NoAction
	}
	best, _ := a.heuristic.Best(env.Board(), env.Tray(), valid)
	if best == game.NoAction {
		return valid[0]
	}
	return best
}

func (a *HeuristicAgent) SetMode(Mode) {}

func (a *HeuristicAgent) Stats() Stats {
	return a.snapshot(HeuristicKind)
}

func (a *HeuristicAgent) Close() error {
	return nil
}
