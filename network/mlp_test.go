package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func regression() (inputs, targets [][]float64) {
	for i := 0; i < 16; i++ {
		x1 := float64(i%4) / 4
		x2 := float64(i/4) / 4
		inputs = append(inputs, []float64{x1, x2})
		targets = append(targets, []float64{x1 - x2, x1 + x2})
	}
	return inputs, targets
}

func TestMLPForward(t *testing.T) {
	t.Run("batch shape", func(t *testing.T) {
		m := NewMLP([]int{3, 8, 2})
		out, err := m.Forward([][]float64{{1, 2, 3}, {0, 0, 0}})
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Len(t, out[0], 2)
	})

	t.Run("rejects wrong widths", func(t *testing.T) {
		m := NewMLP([]int{3, 2})
		_, err := m.Forward([][]float64{{1, 2}})
		require.ErrorIs(t, err, ErrShape)
		_, err = m.Forward(nil)
		require.ErrorIs(t, err, ErrShape)
	})

	t.Run("same seed, same network", func(t *testing.T) {
		a := NewMLP([]int{2, 4, 1}, WithSeed(9))
		b := NewMLP([]int{2, 4, 1}, WithSeed(9))
		outA, _ := a.Forward([][]float64{{0.3, -0.7}})
		outB, _ := b.Forward([][]float64{{0.3, -0.7}})
		require.Equal(t, outA, outB)
	})

	t.Run("panics without an output layer", func(t *testing.T) {
		require.Panics(t, func() { NewMLP([]int{3}) })
	})
}

func TestMLPFit(t *testing.T) {
	t.Run("loss decreases on a linear target", func(t *testing.T) {
		m := NewMLP([]int{2, 16, 2}, WithLearningRate(0.01), WithSeed(3))
		inputs, targets := regression()

		first, err := m.Fit(inputs, targets, nil)
		require.NoError(t, err)
		last := first
		for i := 0; i < 300; i++ {
			last, err = m.Fit(inputs, targets, nil)
			require.NoError(t, err)
		}
		require.Less(t, last, first/4)
	})

	t.Run("zero weights leave samples out of the loss", func(t *testing.T) {
		m := NewMLP([]int{2, 4, 2})
		inputs, targets := regression()
		weights := make([]float64, len(inputs))
		loss, err := m.Fit(inputs, targets, weights)
		require.NoError(t, err)
		require.Equal(t, 0.0, loss)
	})

	t.Run("non-finite targets leave the weights untouched", func(t *testing.T) {
		m := NewMLP([]int{2, 4, 2})
		before := m.Weights()
		inputs, targets := regression()
		targets[0][0] = math.NaN()

		_, err := m.Fit(inputs, targets, nil)
		require.ErrorIs(t, err, ErrNumerical)
		after := m.Weights()
		for key, w := range before {
			require.True(t, mat.Equal(w, after[key]), "%s changed", key)
		}
	})

	t.Run("mismatched weights", func(t *testing.T) {
		m := NewMLP([]int{2, 2})
		inputs, targets := regression()
		_, err := m.Fit(inputs, targets, []float64{1})
		require.ErrorIs(t, err, ErrShape)
	})
}

func TestMLPApplyGradients(t *testing.T) {
	m := NewMLP([]int{1, 1}, WithLearningRate(0.1), WithGradientClip(0))
	x := [][]float64{{1}}
	before, _ := m.Forward(x)

	// A positive loss gradient on the output should push the output down
	require.NoError(t, m.ApplyGradients(x, [][]float64{{1}}))
	after, _ := m.Forward(x)
	require.Less(t, after[0][0], before[0][0])
}

func TestMLPWeights(t *testing.T) {
	t.Run("weights are copies", func(t *testing.T) {
		m := NewMLP([]int{2, 3, 1})
		w := m.Weights()
		require.Len(t, w, 4)
		w["w0"].Set(0, 0, 100)
		require.NotEqual(t, 100.0, m.Weights()["w0"].At(0, 0))
	})

	t.Run("set weights validates before writing", func(t *testing.T) {
		m := NewMLP([]int{2, 3, 1})
		before := m.Weights()
		bad := m.Weights()
		bad["w0"].Set(0, 0, 42)
		bad["w1"] = mat.NewDense(5, 5, nil)

		require.ErrorIs(t, m.SetWeights(bad), ErrShape)
		require.True(t, mat.Equal(before["w0"], m.Weights()["w0"]))
	})

	t.Run("clone is independent", func(t *testing.T) {
		m := NewMLP([]int{2, 3, 1})
		c := m.Clone()
		x := [][]float64{{0.5, 0.5}}
		inputs, targets := regression()
		for i := range targets {
			targets[i] = targets[i][:1]
		}
		_, err := c.Fit(inputs, targets, nil)
		require.NoError(t, err)

		orig, _ := m.Forward(x)
		fresh := NewMLP([]int{2, 3, 1})
		want, _ := fresh.Forward(x)
		require.Equal(t, want, orig)
	})
}

func TestSync(t *testing.T) {
	t.Run("hard copy", func(t *testing.T) {
		src := NewMLP([]int{2, 3, 2}, WithSeed(1))
		dst := NewMLP([]int{2, 3, 2}, WithSeed(2))
		require.NoError(t, Sync(dst, src, 0))
		x := [][]float64{{0.1, 0.9}}
		a, _ := src.Forward(x)
		b, _ := dst.Forward(x)
		require.Equal(t, a, b)
	})

	t.Run("soft blend", func(t *testing.T) {
		src := NewMLP([]int{2, 2}, WithSeed(1))
		dst := NewMLP([]int{2, 2}, WithSeed(2))
		s, d := src.Weights()["w0"].At(0, 0), dst.Weights()["w0"].At(0, 0)
		require.NoError(t, Sync(dst, src, 0.25))
		require.InDelta(t, 0.75*d+0.25*s, dst.Weights()["w0"].At(0, 0), 1e-12)
	})

	t.Run("weights survive a byte round trip", func(t *testing.T) {
		m := NewMLP([]int{2, 3, 1})
		raw, err := MarshalWeights(m.Weights())
		require.NoError(t, err)
		decoded, err := UnmarshalWeights(raw)
		require.NoError(t, err)
		for key, w := range m.Weights() {
			require.True(t, mat.Equal(w, decoded[key]))
		}
	})
}
