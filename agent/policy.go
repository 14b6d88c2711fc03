package agent

import (
	"fmt"
	"math"
	"sync/atomic"

	"blocks/game"
	"blocks/network"
	"blocks/replay"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

type pgStep struct {
	state  []float64
	action game.Action
	valid  []game.Action
	reward float64
}

// PolicyAgent is a REINFORCE learner with a moving-average baseline and an entropy bonus.
type PolicyAgent struct {
	tracker
	cfg      Config
	net      network.Approximator
	src      rand.Source
	mode     Mode
	episode  []pgStep
	complete bool

	// Valid set of the last selection, paired with the transition Remember receives next
	lastAction game.Action
	lastValid  []game.Action

	baseline float64 // Moving average of episode returns
	steps    int
	lastLoss float64
	training atomic.Bool
}

func NewPolicyAgent(cfg Config) *PolicyAgent {
	return &PolicyAgent{
		tracker: newTracker(cfg.StatsWindow),
		cfg:     cfg,
		net: network.NewMLP(layers(cfg),
			network.WithLearningRate(cfg.LearningRate),
			network.WithGradientClip(cfg.GradientClip),
			network.WithSeed(cfg.Seed)),
		src:        rand.NewSource(cfg.Seed),
		lastAction: game.NoAction,
	}
}

func (a *PolicyAgent) Kind() Kind {
	return PolicyKind
}

func (a *PolicyAgent) SetMode(mode Mode) {
	a.mode = mode
}

// maskedSoftmax returns the distribution over valid, aligned with it. Invalid outputs get no mass.
func maskedSoftmax(logits []float64, valid []game.Action) []float64 {
	probs := make([]float64, len(valid))
	peak := math.Inf(-1)
	for _, action := range valid {
		peak = math.Max(peak, logits[action.Index()])
	}
	for i, action := range valid {
		probs[i] = math.Exp(logits[action.Index()] - peak)
	}
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}

func (a *PolicyAgent) SelectAction(env *game.Environment, valid []game.Action) game.Action {
	if len(valid) == 0 {
		return game.NoAction
	}
	a.lastValid = append(a.lastValid[:0], valid...)

	logits, err := a.net.Forward([][]float64{env.State()})
	if err != nil {
		log.Warn().Err(err).Msg("policy forward failed, picking the first move")
		a.lastAction = valid[0]
		return valid[0]
	}
	probs := maskedSoftmax(logits[0], valid)

	choice := floats.MaxIdx(probs)
	if a.mode == Training {
		if i, ok := sampleuv.NewWeighted(probs, a.src).Take(); ok {
			choice = i
		}
	}
	a.lastAction = valid[choice]
	return a.lastAction
}

// Remember appends one step of the running episode. A done transition completes it.
func (a *PolicyAgent) Remember(t replay.Transition) {
	valid := []game.Action{t.Action}
	if t.Action == a.lastAction && len(a.lastValid) > 0 {
		valid = append([]game.Action(nil), a.lastValid...)
	}
	a.episode = append(a.episode, pgStep{
		state:  append([]float64(nil), t.State...),
		action: t.Action,
		valid:  valid,
		reward: t.Reward * a.cfg.RewardScale,
	})
	if t.Done {
		a.complete = true
	}
}

func (a *PolicyAgent) returns() []float64 {
	g := make([]float64, len(a.episode))
	running := 0.0
	for i := len(a.episode) - 1; i >= 0; i-- {
		running = a.episode[i].reward + a.cfg.Gamma*running
		g[i] = running
	}
	return g
}

// Train updates the policy once per completed episode and is a no-op otherwise.
func (a *PolicyAgent) Train() (TrainResult, error) {
	if !a.training.CompareAndSwap(false, true) {
		return TrainResult{Steps: a.steps}, nil
	}
	defer a.training.Store(false)

	if !a.complete || len(a.episode) == 0 {
		return TrainResult{Steps: a.steps}, nil
	}
	defer a.resetEpisode()

	g := a.returns()
	mean := floats.Sum(g) / float64(len(g))
	baseline := a.baseline

	states := make([][]float64, len(a.episode))
	for i, s := range a.episode {
		states[i] = s.state
	}
	logits, err := a.net.Forward(states)
	if err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("policy forward: %w", err)
	}

	grads := make([][]float64, len(a.episode))
	loss := 0.0
	for i, s := range a.episode {
		grads[i] = make([]float64, game.ActionSpace)
		probs := maskedSoftmax(logits[i], s.valid)
		entropy := 0.0
		for _, p := range probs {
			if p > 0 {
				entropy -= p * math.Log(p)
			}
		}

		advantage := g[i] - baseline
		for j, action := range s.valid {
			p := probs[j]
			grad := advantage * p
			if action == s.action {
				grad -= advantage
				loss -= advantage * math.Log(math.Max(p, 1e-12))
			}
			if p > 0 {
				grad += a.cfg.EntropyBonus * p * (math.Log(p) + entropy)
			}
			grads[i][action.Index()] = grad
		}
		loss -= a.cfg.EntropyBonus * entropy
	}
	loss /= float64(len(a.episode))

	if err := a.net.ApplyGradients(states, grads); err != nil {
		return TrainResult{Steps: a.steps}, fmt.Errorf("training step skipped: %w", err)
	}
	a.baseline = a.cfg.BaselineDecay*a.baseline + (1-a.cfg.BaselineDecay)*mean
	a.steps++
	a.lastLoss = loss
	return TrainResult{Trained: true, Loss: loss, Steps: a.steps}, nil
}

func (a *PolicyAgent) resetEpisode() {
	a.episode = a.episode[:0]
	a.complete = false
}

// StartEpisode drops any steps left over from an episode that never completed.
func (a *PolicyAgent) StartEpisode() {
	a.resetEpisode()
	a.tracker.StartEpisode()
}

func (a *PolicyAgent) Stats() Stats {
	s := a.snapshot(PolicyKind)
	s.MemorySize = len(a.episode)
	s.TrainingSteps = a.steps
	s.LastLoss = a.lastLoss
	return s
}

func (a *PolicyAgent) Close() error {
	a.episode = nil
	a.lastValid = nil
	return nil
}

func (a *PolicyAgent) MarshalBinary() ([]byte, error) {
	return encodeCheckpoint(checkpoint{
		Kind:      PolicyKind.String(),
		Online:    a.net.Weights(),
		Steps:     a.steps,
		Episodes:  a.episodes,
		BestScore: a.best,
		Baseline:  a.baseline,
	})
}

func (a *PolicyAgent) UnmarshalBinary(data []byte) error {
	c, err := decodeCheckpoint(data, PolicyKind)
	if err != nil {
		return err
	}
	net := a.net.Clone()
	if err := net.SetWeights(c.Online); err != nil {
		return fmt.Errorf("failed to restore policy weights: %w", err)
	}
	a.net = net
	a.steps, a.episodes, a.best = c.Steps, c.Episodes, c.BestScore
	a.baseline = c.Baseline
	return nil
}
