package engine

import (
	"context"
	"testing"

	"blocks/agent"
	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/store"

	"github.com/stretchr/testify/require"
)

func testConfig() agent.Config {
	cfg := agent.DefaultConfig()
	cfg.Hidden = []int{16}
	cfg.BatchSize = 4
	cfg.BufferCapacity = 64
	cfg.Simulations = 10
	cfg.Cutoff = 2
	return cfg
}

func newAgent(t *testing.T, kind agent.Kind) agent.Agent {
	t.Helper()
	a, err := agent.New(kind, testConfig())
	require.NoError(t, err)
	return a
}

func TestPlay(t *testing.T) {
	env := game.NewEnvironment(game.WithSeed(5))
	seen := 0
	e := New(env, newAgent(t, agent.HeuristicKind),
		WithMaxSteps(12),
		WithObserver(func(metrics.EpisodeMetric) { seen++ }))

	results, err := e.Play(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 3, seen)
	for i, m := range results {
		require.Equal(t, i, m.Episode)
		require.Equal(t, "heuristic", m.Agent)
		require.Positive(t, m.Moves)
		require.LessOrEqual(t, m.Moves, 12)
		require.False(t, m.Illegal)
		require.Zero(t, m.Trained)
		require.False(t, m.Advanced)
	}
	require.Zero(t, env.Level(), "Play never advances the curriculum")
}

func TestTrain(t *testing.T) {
	t.Run("learner trains and checkpoints", func(t *testing.T) {
		files, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)
		env := game.NewEnvironment(game.WithSeed(5))
		e := New(env, newAgent(t, agent.ValueKind),
			WithMaxSteps(10),
			WithTrainEvery(2),
			WithCheckpoint(files, "value", 1))

		results, err := e.Train(context.Background(), 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		total := 0
		for _, m := range results {
			total += m.Trained
		}
		require.Positive(t, total)
		require.Less(t, results[1].Epsilon, 1.0)

		restored := New(game.NewEnvironment(), newAgent(t, agent.ValueKind), WithCheckpoint(files, "value", 0))
		require.NoError(t, restored.Restore(context.Background()))
		require.Equal(t, e.Agent().Stats().TrainingSteps, restored.Agent().Stats().TrainingSteps)
	})

	t.Run("curriculum advances after episodes", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(5), game.WithCurriculum(game.CurriculumConfig{
			Threshold: 0, MinEpisodes: 1, Growth: 1,
		}))
		e := New(env, newAgent(t, agent.HeuristicKind), WithMaxSteps(5))

		results, err := e.Train(context.Background(), 2)
		require.NoError(t, err)
		require.True(t, results[0].Advanced)
		require.Equal(t, 2, env.Level())
	})

	t.Run("policy learner updates once per episode", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(5))
		e := New(env, newAgent(t, agent.PolicyKind), WithMaxSteps(6), WithTrainEvery(100))

		results, err := e.Train(context.Background(), 2)
		require.NoError(t, err)
		for _, m := range results {
			require.Equal(t, 1, m.Trained)
		}
	})

	t.Run("cancelled context stops between episodes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := New(game.NewEnvironment(game.WithSeed(1)), newAgent(t, agent.HeuristicKind))
		results, err := e.Train(ctx, 5)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, results)
	})

	t.Run("heuristic agent has nothing to restore", func(t *testing.T) {
		e := New(game.NewEnvironment(), newAgent(t, agent.HeuristicKind))
		require.NoError(t, e.Restore(context.Background()))
	})
}

func TestCompare(t *testing.T) {
	t.Run("runs are independent and ordered", func(t *testing.T) {
		runs := []Run{}
		for i, kind := range []agent.Kind{agent.HeuristicKind, agent.ValueKind, agent.HeuristicKind} {
			runs = append(runs, Run{
				Config: metrics.RunConfig{ID: i + 1, Name: kind.String(), Episodes: 2, Learn: kind.Learns()},
				Engine: New(game.NewEnvironment(game.WithSeed(uint64(i))), newAgent(t, kind), WithMaxSteps(8)),
			})
		}

		results, err := Compare(context.Background(), runs)
		require.NoError(t, err)
		require.Len(t, results, 6)
		want := []string{"1", "1", "2", "2", "3", "3"}
		for i, m := range results {
			require.Equal(t, want[i], m.Run)
			require.Equal(t, i%2, m.Episode)
		}
		require.Equal(t, "value", results[2].Agent)
		require.Positive(t, results[2].Trained+results[3].Trained)
	})

	t.Run("cancellation is reported", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runs := []Run{{
			Config: metrics.RunConfig{ID: 1, Episodes: 3},
			Engine: New(game.NewEnvironment(game.WithSeed(1)), newAgent(t, agent.HeuristicKind)),
		}}
		_, err := Compare(ctx, runs)
		require.ErrorIs(t, err, context.Canceled)
	})
}
