package replay

import (
	"errors"
	"fmt"
	"math"

	"blocks/game"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

var ErrNotEnough = errors.New("not enough transitions")

// Transition is one environment step as seen by a learner.
type Transition struct {
	State     []float64
	Action    game.Action
	Reward    float64
	NextState []float64
	Done      bool
	NextValid []game.Action // Legal actions in NextState, used to mask bootstrap targets
	Lines     int
}

func (t Transition) clone() Transition {
	t.State = append([]float64(nil), t.State...)
	t.NextState = append([]float64(nil), t.NextState...)
	t.NextValid = append([]game.Action(nil), t.NextValid...)
	return t
}

type entry struct {
	transition Transition
	priority   float64
	stamp      uint64
}

// Batch is a prioritized sample. Transitions are shared with the buffer and must be treated as read-only.
type Batch struct {
	Transitions []Transition
	Indices     []int
	Weights     []float64 // Importance-sampling weights, max-normalized to 1
}

// Buffer is a fixed-capacity prioritized replay memory. It is not safe for concurrent use.
type Buffer struct {
	capacity int
	alpha    float64
	epsilon  float64
	entries  []entry
	clock    uint64
	src      rand.Source
}

type Option func(b *Buffer)

// WithAlpha sets the priority exponent. Zero samples uniformly.
func WithAlpha(alpha float64) Option {
	return func(b *Buffer) {
		if alpha >= 0 {
			b.alpha = alpha
		}
	}
}

// WithEpsilon sets the priority floor added to every TD error.
func WithEpsilon(epsilon float64) Option {
	return func(b *Buffer) {
		if epsilon > 0 {
			b.epsilon = epsilon
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(b *Buffer) {
		b.src = rand.NewSource(seed)
	}
}

func New(capacity int, options ...Option) *Buffer {
	if capacity <= 0 {
		panic("replay capacity must be positive")
	}
	b := &Buffer{
		capacity: capacity,
		alpha:    0.6,
		epsilon:  1e-3,
		entries:  make([]entry, 0, capacity),
		src:      rand.NewSource(1),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Add stores a copy of the transition. A full buffer overwrites its lowest priority entry,
// the oldest one among equals.
func (b *Buffer) Add(t Transition, priority float64) {
	b.clock++
	e := entry{
		transition: t.clone(),
		priority:   math.Max(math.Abs(priority), b.epsilon),
		stamp:      b.clock,
	}
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, e)
		return
	}
	b.entries[b.evictee()] = e
}

func (b *Buffer) evictee() int {
	victim := 0
	for i, e := range b.entries[1:] {
		v := b.entries[victim]
		if e.priority < v.priority || (e.priority == v.priority && e.stamp < v.stamp) {
			victim = i + 1
		}
	}
	return victim
}

// Sample draws n entries with replacement, each with probability proportional to
// priority^alpha. Weights are the importance-sampling corrections (size*P)^-beta scaled
// by the weight of the least likely entry, so they fall in (0, 1].
func (b *Buffer) Sample(n int, beta float64) (Batch, error) {
	if n <= 0 || n > len(b.entries) {
		return Batch{}, fmt.Errorf("sampling %d of %d: %w", n, len(b.entries), ErrNotEnough)
	}

	probs := make([]float64, len(b.entries))
	for i, e := range b.entries {
		probs[i] = math.Pow(e.priority, b.alpha)
	}
	floats.Scale(1/floats.Sum(probs), probs)
	minProb := floats.Min(probs)

	weighted := sampleuv.NewWeighted(append([]float64(nil), probs...), b.src)
	batch := Batch{
		Transitions: make([]Transition, 0, n),
		Indices:     make([]int, 0, n),
		Weights:     make([]float64, 0, n),
	}
	for len(batch.Indices) < n {
		i, ok := weighted.Take()
		if !ok {
			break
		}
		weighted.Reweight(i, probs[i])
		batch.Indices = append(batch.Indices, i)
		batch.Transitions = append(batch.Transitions, b.entries[i].transition)
		batch.Weights = append(batch.Weights, math.Pow(minProb/probs[i], beta))
	}
	return batch, nil
}

// UpdatePriorities sets each sampled entry's priority to |tdError| + epsilon.
func (b *Buffer) UpdatePriorities(indices []int, tdErrors []float64) error {
	if len(indices) != len(tdErrors) {
		return fmt.Errorf("got %d indices and %d errors", len(indices), len(tdErrors))
	}
	for _, i := range indices {
		if i < 0 || i >= len(b.entries) {
			return fmt.Errorf("index %d out of range [0,%d)", i, len(b.entries))
		}
	}
	for k, i := range indices {
		if math.IsNaN(tdErrors[k]) || math.IsInf(tdErrors[k], 0) { // Keep the old priority
			continue
		}
		b.entries[i].priority = math.Abs(tdErrors[k]) + b.epsilon
	}
	return nil
}

func (b *Buffer) Priority(i int) float64 {
	return b.entries[i].priority
}

func (b *Buffer) Len() int {
	return len(b.entries)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

// Reset drops every stored transition and releases the backing memory.
func (b *Buffer) Reset() {
	b.entries = make([]entry, 0)
	b.clock = 0
}
