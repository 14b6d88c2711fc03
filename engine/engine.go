package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blocks/agent"
	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/replay"

	"github.com/rs/zerolog/log"
)

const MaxSteps = 1000

// Engine drives one agent through episodes of one environment. It is not safe for concurrent use;
// Compare runs several engines side by side instead.
type Engine struct {
	env   *game.Environment
	agent agent.Agent

	run        string
	name       string
	maxSteps   int
	trainEvery int

	store           agent.BlobStore
	key             string
	checkpointEvery int

	observer func(metrics.EpisodeMetric)
}

type Option func(e *Engine)

func WithMaxSteps(steps int) Option {
	return func(e *Engine) {
		e.maxSteps = steps
	}
}

// WithTrainEvery runs a training step every n moves. Learners still train once at the end of
// each episode.
func WithTrainEvery(n int) Option {
	return func(e *Engine) {
		e.trainEvery = n
	}
}

// WithCheckpoint saves the learner under key every n training episodes and after the last one.
func WithCheckpoint(store agent.BlobStore, key string, every int) Option {
	return func(e *Engine) {
		e.store = store
		e.key = key
		e.checkpointEvery = every
	}
}

func WithObserver(observer func(metrics.EpisodeMetric)) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// WithRun labels the episode metrics of this engine.
func WithRun(run, name string) Option {
	return func(e *Engine) {
		e.run = run
		e.name = name
	}
}

func New(env *game.Environment, a agent.Agent, options ...Option) *Engine {
	e := &Engine{
		env:        env,
		agent:      a,
		name:       a.Kind().String(),
		maxSteps:   MaxSteps,
		trainEvery: 1,
	}
	for _, option := range options {
		option(e)
	}
	if e.maxSteps <= 0 {
		panic("max steps must be positive")
	}
	if e.trainEvery <= 0 {
		e.trainEvery = 1
	}
	return e
}

func (e *Engine) Agent() agent.Agent {
	return e.agent
}

func (e *Engine) Environment() *game.Environment {
	return e.env
}

// Train plays episodes in training mode, feeding learners their transitions and advancing the
// curriculum after every episode. Cancellation is honoured between episodes; the episodes
// finished so far are returned with the context error.
func (e *Engine) Train(ctx context.Context, episodes int) ([]metrics.EpisodeMetric, error) {
	e.agent.SetMode(agent.Training)
	learner, learns := e.agent.(agent.Learner)

	results := make([]metrics.EpisodeMetric, 0, episodes)
	for i := 0; i < episodes; i++ {
		if err := ctx.Err(); err != nil {
			e.checkpoint(ctx, learner, learns)
			return results, err
		}
		m := e.episode(i, learner, learns)
		m.Advanced = e.env.UpdateCurriculum(m.Lines, m.Score)
		if m.Advanced {
			log.Info().Str("run", e.run).Int("level", e.env.Level()).Msg("curriculum advanced")
		}
		e.emit(m)
		results = append(results, m)

		if e.checkpointEvery > 0 && (i+1)%e.checkpointEvery == 0 && i+1 < episodes {
			e.checkpoint(ctx, learner, learns)
		}
	}
	e.checkpoint(ctx, learner, learns)
	return results, nil
}

// Play runs episodes greedily without learning or curriculum updates.
func (e *Engine) Play(ctx context.Context, episodes int) ([]metrics.EpisodeMetric, error) {
	e.agent.SetMode(agent.Playing)

	results := make([]metrics.EpisodeMetric, 0, episodes)
	for i := 0; i < episodes; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		m := e.episode(i, nil, false)
		e.emit(m)
		results = append(results, m)
	}
	return results, nil
}

func (e *Engine) episode(index int, learner agent.Learner, learns bool) metrics.EpisodeMetric {
	start := time.Now()
	e.env.Reset()
	e.agent.StartEpisode()

	m := metrics.EpisodeMetric{Run: e.run, Agent: e.name, Episode: index}
	lossSum := 0.0
	train := func() {
		res, err := learner.Train()
		if err != nil {
			log.Warn().Err(err).Str("run", e.run).Int("episode", index).Msg("training step skipped")
			return
		}
		if res.Trained {
			m.Trained++
			lossSum += res.Loss
		}
	}

	for m.Moves < e.maxSteps && !e.env.IsGameOver() {
		state := e.env.State()
		action := e.agent.SelectAction(e.env, e.env.ValidActions())
		res := e.env.Step(action)
		m.Moves++
		m.Reward += res.Reward
		m.Illegal = m.Illegal || res.Illegal

		if !learns {
			continue
		}
		learner.Remember(replay.Transition{
			State:     state,
			Action:    action,
			Reward:    res.Reward,
			NextState: res.State,
			Done:      res.Done || e.env.IsGameOver() || m.Moves == e.maxSteps,
			NextValid: append([]game.Action(nil), e.env.ValidActions()...),
			Lines:     res.Lines,
		})
		if m.Moves%e.trainEvery == 0 {
			train()
		}
	}
	if learns {
		train()
	}

	e.agent.EndEpisode(e.env.Score(), m.Reward)
	m.Score = e.env.Score()
	m.Lines = e.env.LinesCleared()
	m.Level = e.env.Level()
	m.Epsilon = e.agent.Stats().Epsilon
	if m.Trained > 0 {
		m.Loss = lossSum / float64(m.Trained)
	}
	m.Duration = time.Since(start)

	log.Debug().
		Str("run", e.run).
		Int("episode", index).
		Int("score", m.Score).
		Float64("reward", m.Reward).
		Int("lines", m.Lines).
		Int("moves", m.Moves).
		Msg("episode finished")
	return m
}

func (e *Engine) emit(m metrics.EpisodeMetric) {
	if e.observer != nil {
		e.observer(m)
	}
}

func (e *Engine) checkpoint(ctx context.Context, learner agent.Learner, learns bool) {
	if !learns || e.store == nil {
		return
	}
	// A cancelled run still gets its final save
	if err := agent.Save(context.WithoutCancel(ctx), e.store, e.key, learner); err != nil {
		log.Warn().Err(err).Str("key", e.key).Msg("checkpoint failed")
		return
	}
	log.Info().Str("key", e.key).Msg("checkpoint saved")
}

// Restore loads the learner's checkpoint from the configured store. A non-learning agent has
// nothing to restore.
func (e *Engine) Restore(ctx context.Context) error {
	learner, ok := e.agent.(agent.Learner)
	if !ok {
		return nil
	}
	if e.store == nil {
		return errors.New("no checkpoint store configured")
	}
	if err := agent.Load(ctx, e.store, e.key, learner); err != nil {
		return fmt.Errorf("restore %s: %w", e.name, err)
	}
	return nil
}
