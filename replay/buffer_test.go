package replay

import (
	"math"
	"testing"

	"blocks/game"

	"github.com/stretchr/testify/require"
)

func transition(reward float64) Transition {
	return Transition{
		State:     []float64{reward},
		Action:    game.EncodeAction(0, 0, 0),
		Reward:    reward,
		NextState: []float64{reward + 1},
	}
}

func TestBufferAdd(t *testing.T) {
	t.Run("stores defensive copies", func(t *testing.T) {
		b := New(4)
		tr := transition(1)
		b.Add(tr, 1)
		tr.State[0] = 99

		batch, err := b.Sample(1, 1)
		require.NoError(t, err)
		require.Equal(t, 1.0, batch.Transitions[0].State[0])
	})

	t.Run("size never exceeds capacity", func(t *testing.T) {
		b := New(3, WithSeed(1))
		for i := 0; i < 10; i++ {
			b.Add(transition(float64(i)), float64(i+1))
			require.LessOrEqual(t, b.Len(), 3)
		}
		require.Equal(t, 3, b.Len())
		require.Equal(t, 3, b.Capacity())
	})

	t.Run("evicts the lowest priority entry", func(t *testing.T) {
		b := New(3)
		b.Add(transition(0), 5)
		b.Add(transition(1), 1)
		b.Add(transition(2), 3)

		b.Add(transition(3), 4)

		rewards := map[float64]bool{}
		for i := 0; i < b.Len(); i++ {
			rewards[b.entries[i].transition.Reward] = true
		}
		require.Equal(t, map[float64]bool{0: true, 2: true, 3: true}, rewards)
	})

	t.Run("evicts the oldest among equal priorities", func(t *testing.T) {
		b := New(2)
		b.Add(transition(0), 1)
		b.Add(transition(1), 1)

		b.Add(transition(2), 1)

		require.Equal(t, 2.0, b.entries[0].transition.Reward)
		require.Equal(t, 1.0, b.entries[1].transition.Reward)
	})

	t.Run("priorities have a floor", func(t *testing.T) {
		b := New(2, WithEpsilon(0.01))
		b.Add(transition(0), 0)
		require.Equal(t, 0.01, b.Priority(0))
	})
}

func TestBufferSample(t *testing.T) {
	t.Run("indices stay within the current size", func(t *testing.T) {
		b := New(8, WithSeed(3))
		for i := 0; i < 20; i++ {
			b.Add(transition(float64(i)), float64(i%5+1))
			if b.Len() < 4 {
				continue
			}
			batch, err := b.Sample(4, 0.4)
			require.NoError(t, err)
			require.Len(t, batch.Indices, 4)
			for _, idx := range batch.Indices {
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, b.Len())
			}
		}
	})

	t.Run("weights are normalized by the least likely entry", func(t *testing.T) {
		b := New(10, WithSeed(5), WithAlpha(1))
		for i := 0; i < 10; i++ {
			b.Add(transition(float64(i)), float64(i+1))
		}
		batch, err := b.Sample(5, 0.5)
		require.NoError(t, err)
		for k, idx := range batch.Indices {
			require.InDelta(t, math.Pow(1/float64(idx+1), 0.5), batch.Weights[k], 1e-9)
			require.LessOrEqual(t, batch.Weights[k], 1.0)
		}
	})

	t.Run("rarely sampled entries get the largest weight", func(t *testing.T) {
		b := New(2, WithSeed(5), WithAlpha(1))
		b.Add(transition(0), 1)
		b.Add(transition(1), 9)
		batch, err := b.Sample(2, 1)
		require.NoError(t, err)
		for k, idx := range batch.Indices {
			if idx == 0 {
				require.Equal(t, 1.0, batch.Weights[k])
			} else {
				require.InDelta(t, 1.0/9, batch.Weights[k], 1e-9)
			}
		}
	})

	t.Run("high priority dominates sampling", func(t *testing.T) {
		b := New(2, WithSeed(7), WithAlpha(1))
		b.Add(transition(0), 0.001)
		b.Add(transition(1), 1000)
		hits := 0
		for i := 0; i < 100; i++ {
			batch, err := b.Sample(1, 1)
			require.NoError(t, err)
			if batch.Indices[0] == 1 {
				hits++
			}
		}
		require.Greater(t, hits, 95)
	})

	t.Run("draws with replacement when the batch covers the buffer", func(t *testing.T) {
		b := New(2, WithSeed(11), WithAlpha(1))
		b.Add(transition(0), 0.001)
		b.Add(transition(1), 1000)
		hits := 0
		for i := 0; i < 100; i++ {
			batch, err := b.Sample(2, 1)
			require.NoError(t, err)
			require.Len(t, batch.Indices, 2)
			for _, idx := range batch.Indices {
				if idx == 1 {
					hits++
				}
			}
		}
		require.Greater(t, hits, 190)
	})

	t.Run("too few transitions", func(t *testing.T) {
		b := New(4)
		b.Add(transition(0), 1)
		_, err := b.Sample(2, 1)
		require.ErrorIs(t, err, ErrNotEnough)
	})
}

func TestBufferUpdatePriorities(t *testing.T) {
	t.Run("priority is abs td error plus floor", func(t *testing.T) {
		b := New(4, WithEpsilon(0.5))
		b.Add(transition(0), 1)
		b.Add(transition(1), 1)

		require.NoError(t, b.UpdatePriorities([]int{0, 1}, []float64{-2, 3}))
		require.Equal(t, 2.5, b.Priority(0))
		require.Equal(t, 3.5, b.Priority(1))
	})

	t.Run("rejects out of range indices without partial updates", func(t *testing.T) {
		b := New(4)
		b.Add(transition(0), 1)
		err := b.UpdatePriorities([]int{0, 3}, []float64{7, 7})
		require.Error(t, err)
		require.Equal(t, 1.0, b.Priority(0))
	})

	t.Run("reset releases everything", func(t *testing.T) {
		b := New(4)
		b.Add(transition(0), 1)
		b.Reset()
		require.Equal(t, 0, b.Len())
	})
}
