package agent

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"blocks/game"
	"blocks/network"
	"blocks/replay"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ValueAgent is a double-DQN learner over prioritized replay.
type ValueAgent struct {
	tracker
	cfg       Config
	online    network.Approximator
	target    network.Approximator
	buffer    *replay.Buffer
	heuristic game.Heuristic
	rng       *rand.Rand
	mode      Mode
	epsilon   float64
	steps     int
	lastLoss  float64
	training  atomic.Bool
}

func layers(cfg Config) []int {
	sizes := []int{game.StateSize}
	sizes = append(sizes, cfg.Hidden...)
	return append(sizes, game.ActionSpace)
}

func NewValueAgent(cfg Config) *ValueAgent {
	online := network.NewMLP(layers(cfg),
		network.WithLearningRate(cfg.LearningRate),
		network.WithGradientClip(cfg.GradientClip),
		network.WithSeed(cfg.Seed))
	heuristic := game.DefaultHeuristic()
	heuristic.Depth = cfg.HeuristicDepth

	return &ValueAgent{
		tracker: newTracker(cfg.StatsWindow),
		cfg:     cfg,
		online:  online,
		target:  online.Clone(),
		buffer: replay.New(cfg.BufferCapacity,
			replay.WithAlpha(cfg.Alpha),
			replay.WithEpsilon(cfg.PriorityEpsilon),
			replay.WithSeed(cfg.Seed)),
		heuristic: heuristic,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		epsilon:   cfg.EpsilonStart,
	}
}

func (a *ValueAgent) Kind() Kind {
	return ValueKind
}

func (a *ValueAgent) SetMode(mode Mode) {
	a.mode = mode
}

func (a *ValueAgent) SelectAction(env *game.Environment, valid []game.Action) game.Action {
	if len(valid) == 0 {
		return game.NoAction
	}
	if a.mode == Training && a.rng.Float64() < a.epsilon {
		return a.explore(env, valid)
	}

	q, err := a.online.Forward([][]float64{env.State()})
	if err != nil {
		log.Warn().Err(err).Msg("value forward failed, falling back to exploration")
		return a.explore(env, valid)
	}
	return argmax(q[0], valid)
}

// explore mixes uniform choice with a heuristic pass: a cheap score over every move, then the
// configured look-ahead over the top K.
func (a *ValueAgent) explore(env *game.Environment, valid []game.Action) game.Action {
	if a.rng.Float64() >= a.cfg.LookaheadProb {
		return valid[a.rng.Intn(len(valid))]
	}

	board, tray := env.Board(), env.Tray()
	cheap := a.heuristic
	cheap.Depth = 0
	type scored struct {
		action game.Action
		score  float64
	}
	candidates := make([]scored, len(valid))
	for i, action := range valid {
		candidates[i] = scored{action, cheap.Score(board, tray, action)}
	}
	slices.SortStableFunc(candidates, func(x, y scored) int {
		switch {
		case x.score > y.score:
			return -1
		case x.score < y.score:
			return 1
		}
		return 0
	})

	k := min(max(a.cfg.TopK, 1), len(candidates))
	top := make([]game.Action, k)
	for i := range top {
		top[i] = candidates[i].action
	}
	best, _ := a.heuristic.Best(board, tray, top)
	return best
}

// argmax returns the valid action with the highest output, the first one on ties.
func argmax(outputs []float64, valid []game.Action) game.Action {
	best, bestValue := game.NoAction, math.Inf(-1)
	for _, action := range valid {
		i := action.Index()
		if i < 0 || i >= len(outputs) {
			continue
		}
		if v := outputs[i]; best == game.NoAction || v > bestValue {
			best, bestValue = action, v
		}
	}
	if best == game.NoAction && len(valid) > 0 {
		return valid[0]
	}
	return best
}

// Remember stores t with a priority from its reward magnitude, raised for clears and game over.
func (a *ValueAgent) Remember(t replay.Transition) {
	priority := math.Abs(t.Reward*a.cfg.RewardScale) + a.cfg.PriorityEpsilon
	if t.Lines > 0 {
		priority *= 2
	}
	if t.Done {
		priority *= 1.5
	}
	a.buffer.Add(t, priority)
}

func (a *ValueAgent) beta() float64 {
	if a.cfg.BetaSteps <= 0 {
		return 1
	}
	progress := math.Min(float64(a.steps)/float64(a.cfg.BetaSteps), 1)
	return a.cfg.BetaStart + (1-a.cfg.BetaStart)*progress
}

func (a *ValueAgent) Train() (TrainResult, error) {
	if !a.training.CompareAndSwap(false, true) {
		return TrainResult{Steps: a.steps}, nil
	}
	defer a.training.Store(false)

	if a.buffer.Len() < a.cfg.BatchSize {
		return TrainResult{Steps: a.steps}, nil
	}

	batch, err := a.buffer.Sample(a.cfg.BatchSize, a.beta())
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("failed to sample replay: %w", err)
	}

	n := len(batch.Transitions)
	states := make([][]float64, n)
	nexts := make([][]float64, n)
	for i, t := range batch.Transitions {
		states[i] = t.State
		nexts[i] = t.NextState
	}
	current, err := a.online.Forward(states)
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("online forward: %w", err)
	}
	nextOnline, err := a.online.Forward(nexts)
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("online forward on next states: %w", err)
	}
	nextTarget, err := a.target.Forward(nexts)
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("target forward: %w", err)
	}

	targets := make([][]float64, n)
	tdErrors := make([]float64, n)
	for i, t := range batch.Transitions {
		targets[i] = append([]float64(nil), current[i]...)
		y := t.Reward * a.cfg.RewardScale
		if !t.Done && len(t.NextValid) > 0 {
			// Online picks the next action, target values it
			if next := argmax(nextOnline[i], t.NextValid).Index(); next >= 0 {
				y += a.cfg.Gamma * nextTarget[i][next]
			}
		}
		idx := t.Action.Index()
		if idx < 0 {
			continue
		}
		tdErrors[i] = y - current[i][idx]
		targets[i][idx] = y
	}

	loss, err := a.online.Fit(states, targets, batch.Weights)
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("training step skipped: %w", err)
	}

	a.steps++
	a.lastLoss = loss
	a.epsilon = math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)
	if a.cfg.TargetSyncEvery > 0 && a.steps%a.cfg.TargetSyncEvery == 0 {
		if err := network.Sync(a.target, a.online, a.cfg.Tau); err != nil {
			log.Warn().Err(err).Int("step", a.steps).Msg("target sync failed")
		}
	}
	res := TrainResult{Trained: true, Loss: loss, Steps: a.steps}
	if err := a.buffer.UpdatePriorities(batch.Indices, tdErrors); err != nil {
		return res, fmt.Errorf("failed to update priorities: %w", err)
	}
	return res, nil
}

func (a *ValueAgent) Stats() Stats {
	s := a.snapshot(ValueKind)
	s.Epsilon = a.epsilon
	s.MemorySize = a.buffer.Len()
	s.TrainingSteps = a.steps
	s.LastLoss = a.lastLoss
	return s
}

func (a *ValueAgent) Close() error {
	a.buffer.Reset()
	return nil
}

func (a *ValueAgent) MarshalBinary() ([]byte, error) {
	return encodeCheckpoint(checkpoint{
		Kind:      ValueKind.String(),
		Online:    a.online.Weights(),
		Target:    a.target.Weights(),
		Epsilon:   a.epsilon,
		Steps:     a.steps,
		Episodes:  a.episodes,
		BestScore: a.best,
	})
}

func (a *ValueAgent) UnmarshalBinary(data []byte) error {
	c, err := decodeCheckpoint(data, ValueKind)
	if err != nil {
		return err
	}
	online := a.online.Clone()
	if err := online.SetWeights(c.Online); err != nil {
		return fmt.Errorf("failed to restore online weights: %w", err)
	}
	target := a.target.Clone()
	targetWeights := c.Target
	if targetWeights == nil {
		targetWeights = c.Online
	}
	if err := target.SetWeights(targetWeights); err != nil {
		return fmt.Errorf("failed to restore target weights: %w", err)
	}
	a.online, a.target = online, target
	a.epsilon, a.steps = c.Epsilon, c.Steps
	a.episodes, a.best = c.Episodes, c.BestScore
	return nil
}
