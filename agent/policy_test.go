package agent

import (
	"math"
	"testing"

	"blocks/game"
	"blocks/replay"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestMaskedSoftmax(t *testing.T) {
	logits := make([]float64, game.ActionSpace)
	a, b := game.EncodeAction(0, 0, 0), game.EncodeAction(0, 0, 1)
	logits[a.Index()] = math.Log(3)
	logits[game.EncodeAction(2, 8, 8).Index()] = 50 // Masked out

	probs := maskedSoftmax(logits, []game.Action{a, b})
	require.InDeltaSlice(t, []float64{0.75, 0.25}, probs, 1e-12)
	require.InDelta(t, 1.0, floats.Sum(probs), 1e-12)
}

func TestPolicyAgentTrain(t *testing.T) {
	t.Run("no-op mid episode", func(t *testing.T) {
		a := NewPolicyAgent(testConfig())
		env := game.NewEnvironment(game.WithSeed(1))
		env.Reset()
		a.SelectAction(env, env.ValidActions())
		a.Remember(replay.Transition{State: env.State(), Action: a.lastAction, Reward: 5})

		res, err := a.Train()
		require.NoError(t, err)
		require.False(t, res.Trained)
		require.Equal(t, 1, a.Stats().MemorySize)
	})

	t.Run("updates once per completed episode", func(t *testing.T) {
		a := NewPolicyAgent(testConfig())
		env := game.NewEnvironment(game.WithSeed(1))
		env.Reset()
		playEpisode(t, a, env, 6)

		res, err := a.Train()
		require.NoError(t, err)
		require.True(t, res.Trained)
		require.Zero(t, a.Stats().MemorySize, "The episode buffer is cleared after an update")

		res, err = a.Train()
		require.NoError(t, err)
		require.False(t, res.Trained)
	})

	t.Run("reinforces a rewarded action", func(t *testing.T) {
		cfg := testConfig()
		cfg.LearningRate = 0.01
		cfg.EntropyBonus = 0
		a := NewPolicyAgent(cfg)
		env := game.NewEnvironment(game.WithSeed(1))
		env.Reset()
		valid := env.ValidActions()[:2]
		good := valid[0]
		prob := func() float64 {
			logits, err := a.net.Forward([][]float64{env.State()})
			require.NoError(t, err)
			return maskedSoftmax(logits[0], valid)[0]
		}
		before := prob()

		// Two one-step episodes: the good move is rewarded, the other punished
		for _, step := range []struct {
			action game.Action
			reward float64
		}{{good, 1000}, {valid[1], -1000}} {
			a.lastAction, a.lastValid = step.action, append([]game.Action(nil), valid...)
			a.Remember(replay.Transition{State: env.State(), Action: step.action, Reward: step.reward, Done: true})
			_, err := a.Train()
			require.NoError(t, err)
		}
		require.Greater(t, prob(), before)
	})

	t.Run("start episode drops unfinished steps", func(t *testing.T) {
		a := NewPolicyAgent(testConfig())
		a.Remember(replay.Transition{State: make([]float64, game.StateSize)})
		a.StartEpisode()
		require.Zero(t, a.Stats().MemorySize)
	})
}

func TestPolicyAgentCheckpoint(t *testing.T) {
	a := NewPolicyAgent(testConfig())
	env := game.NewEnvironment(game.WithSeed(1))
	env.Reset()
	playEpisode(t, a, env, 4)
	_, err := a.Train()
	require.NoError(t, err)

	blob, err := a.MarshalBinary()
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Seed = 7
	b := NewPolicyAgent(cfg)
	require.NoError(t, b.UnmarshalBinary(blob))

	x := [][]float64{env.State()}
	want, _ := a.net.Forward(x)
	got, _ := b.net.Forward(x)
	require.Equal(t, want, got)
	require.Equal(t, a.baseline, b.baseline)
}
