package network

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrShape     = errors.New("shape mismatch")
	ErrNumerical = errors.New("non-finite values")
)

// Approximator is the numeric backend the agents train. Implementations apply a whole
// optimizer step or none of it.
type Approximator interface {
	// Forward maps a batch of input vectors to a batch of output vectors.
	Forward(inputs [][]float64) ([][]float64, error)
	// Fit takes one step on the importance-weighted squared error and returns the loss before the step.
	Fit(inputs, targets [][]float64, weights []float64) (float64, error)
	// ApplyGradients takes one step from per-sample gradients of the loss with respect to the outputs.
	ApplyGradients(inputs, outputGrads [][]float64) error
	Weights() map[string]*mat.Dense
	SetWeights(weights map[string]*mat.Dense) error
	Clone() Approximator
}

// Sync copies src into dst when tau is outside (0,1), otherwise moves dst a tau fraction toward src.
func Sync(dst, src Approximator, tau float64) error {
	if tau <= 0 || tau >= 1 {
		return dst.SetWeights(src.Weights())
	}

	current := dst.Weights()
	for key, w := range src.Weights() {
		d, ok := current[key]
		if !ok {
			return fmt.Errorf("missing %q: %w", key, ErrShape)
		}
		var blended mat.Dense
		blended.Scale(1-tau, d)
		var step mat.Dense
		step.Scale(tau, w)
		blended.Add(&blended, &step)
		current[key] = &blended
	}
	return dst.SetWeights(current)
}

// MarshalWeights encodes each matrix with its binary marshaler.
func MarshalWeights(weights map[string]*mat.Dense) (map[string][]byte, error) {
	raw := make(map[string][]byte, len(weights))
	for key, w := range weights {
		b, err := w.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", key, err)
		}
		raw[key] = b
	}
	return raw, nil
}

func UnmarshalWeights(raw map[string][]byte) (map[string]*mat.Dense, error) {
	weights := make(map[string]*mat.Dense, len(raw))
	for key, b := range raw {
		var w mat.Dense
		if err := w.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %q: %w", key, err)
		}
		weights[key] = &w
	}
	return weights, nil
}
