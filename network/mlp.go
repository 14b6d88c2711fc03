package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MLP is a fully connected ReLU network with a linear output layer, trained with Adam.
// It is not safe for concurrent use.
type MLP struct {
	sizes   []int
	weights []*mat.Dense // layer l is sizes[l+1] x sizes[l]
	biases  []*mat.Dense // layer l is 1 x sizes[l+1]

	// Adam moments, aligned with weights and biases
	mw, vw []*mat.Dense
	mb, vb []*mat.Dense
	t      int

	rate  float64
	beta1 float64
	beta2 float64
	eps   float64
	clip  float64
	seed  uint64
}

type Option func(m *MLP)

func WithLearningRate(rate float64) Option {
	return func(m *MLP) {
		if rate > 0 {
			m.rate = rate
		}
	}
}

// WithGradientClip bounds the global gradient norm. Zero disables clipping.
func WithGradientClip(norm float64) Option {
	return func(m *MLP) {
		if norm >= 0 {
			m.clip = norm
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MLP) {
		m.seed = seed
	}
}

// NewMLP builds a network with the given layer widths, input first.
func NewMLP(sizes []int, options ...Option) *MLP {
	if len(sizes) < 2 {
		panic("network needs an input and an output layer")
	}
	for _, size := range sizes {
		if size <= 0 {
			panic("layer sizes must be positive")
		}
	}

	m := &MLP{
		sizes: append([]int(nil), sizes...),
		rate:  1e-3,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		clip:  10,
		seed:  1,
	}
	for _, option := range options {
		option(m)
	}

	rng := rand.New(rand.NewSource(m.seed))
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		std := math.Sqrt(2 / float64(in))
		data := make([]float64, out*in)
		for i := range data {
			data[i] = rng.NormFloat64() * std
		}
		m.weights = append(m.weights, mat.NewDense(out, in, data))
		m.biases = append(m.biases, mat.NewDense(1, out, nil))
	}
	m.resetOptimizer()
	return m
}

func (m *MLP) resetOptimizer() {
	m.mw, m.vw, m.mb, m.vb = nil, nil, nil, nil
	for l := range m.weights {
		r, c := m.weights[l].Dims()
		m.mw = append(m.mw, mat.NewDense(r, c, nil))
		m.vw = append(m.vw, mat.NewDense(r, c, nil))
		m.mb = append(m.mb, mat.NewDense(1, r, nil))
		m.vb = append(m.vb, mat.NewDense(1, r, nil))
	}
	m.t = 0
}

func (m *MLP) Sizes() []int {
	return append([]int(nil), m.sizes...)
}

func (m *MLP) matrix(rows [][]float64, width int) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty batch: %w", ErrShape)
	}
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d: %w", i, len(row), width, ErrShape)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

// forward returns the activations of every layer, input included.
func (m *MLP) forward(x *mat.Dense) []*mat.Dense {
	acts := []*mat.Dense{x}
	last := len(m.weights) - 1
	for l, w := range m.weights {
		b := m.biases[l]
		z := &mat.Dense{}
		z.Mul(acts[l], w.T())
		z.Apply(func(_, j int, v float64) float64 {
			v += b.At(0, j)
			if l < last && v < 0 {
				return 0
			}
			return v
		}, z)
		acts = append(acts, z)
	}
	return acts
}

func (m *MLP) Forward(inputs [][]float64) ([][]float64, error) {
	x, err := m.matrix(inputs, m.sizes[0])
	if err != nil {
		return nil, err
	}
	acts := m.forward(x)
	out := acts[len(acts)-1]
	rows := make([][]float64, len(inputs))
	for i := range rows {
		rows[i] = mat.Row(nil, i, out)
	}
	return rows, nil
}

func (m *MLP) Fit(inputs, targets [][]float64, weights []float64) (float64, error) {
	x, err := m.matrix(inputs, m.sizes[0])
	if err != nil {
		return 0, err
	}
	y, err := m.matrix(targets, m.sizes[len(m.sizes)-1])
	if err != nil {
		return 0, err
	}
	n := len(inputs)
	if weights == nil {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != n || len(targets) != n {
		return 0, fmt.Errorf("batch of %d with %d targets and %d weights: %w", n, len(targets), len(weights), ErrShape)
	}

	acts := m.forward(x)
	out := acts[len(acts)-1]
	rows, cols := out.Dims()
	delta := mat.NewDense(rows, cols, nil)
	loss := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := out.At(i, j) - y.At(i, j)
			loss += weights[i] * d * d
			delta.Set(i, j, 2*weights[i]*d)
		}
	}
	loss /= float64(n)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, fmt.Errorf("loss is %v: %w", loss, ErrNumerical)
	}
	return loss, m.step(acts, delta)
}

func (m *MLP) ApplyGradients(inputs, outputGrads [][]float64) error {
	x, err := m.matrix(inputs, m.sizes[0])
	if err != nil {
		return err
	}
	delta, err := m.matrix(outputGrads, m.sizes[len(m.sizes)-1])
	if err != nil {
		return err
	}
	if len(outputGrads) != len(inputs) {
		return fmt.Errorf("%d inputs and %d gradients: %w", len(inputs), len(outputGrads), ErrShape)
	}
	return m.step(m.forward(x), delta)
}

// step back-propagates delta, the loss gradient at the output, and commits one Adam update
// only if every gradient and updated parameter is finite.
func (m *MLP) step(acts []*mat.Dense, delta *mat.Dense) error {
	n, _ := delta.Dims()
	layers := len(m.weights)
	gw := make([]*mat.Dense, layers)
	gb := make([]*mat.Dense, layers)
	for l := layers - 1; l >= 0; l-- {
		g := &mat.Dense{}
		g.Mul(delta.T(), acts[l])
		g.Scale(1/float64(n), g)
		gw[l] = g

		_, out := delta.Dims()
		sums := make([]float64, out)
		for j := range sums {
			sums[j] = floats.Sum(mat.Col(nil, j, delta)) / float64(n)
		}
		gb[l] = mat.NewDense(1, out, sums)

		if l > 0 {
			a := acts[l]
			next := &mat.Dense{}
			next.Mul(delta, m.weights[l])
			next.Apply(func(i, j int, v float64) float64 {
				if a.At(i, j) <= 0 {
					return 0
				}
				return v
			}, next)
			delta = next
		}
	}

	norm := 0.0
	for l := range gw {
		if !finite(gw[l]) || !finite(gb[l]) {
			return fmt.Errorf("gradient of layer %d: %w", l, ErrNumerical)
		}
		norm += math.Pow(mat.Norm(gw[l], 2), 2) + math.Pow(mat.Norm(gb[l], 2), 2)
	}
	norm = math.Sqrt(norm)
	if m.clip > 0 && norm > m.clip {
		for l := range gw {
			gw[l].Scale(m.clip/norm, gw[l])
			gb[l].Scale(m.clip/norm, gb[l])
		}
	}

	t := m.t + 1
	type update struct{ w, mw, vw, b, mb, vb *mat.Dense }
	updates := make([]update, layers)
	for l := range updates {
		var u update
		u.w, u.mw, u.vw = m.adam(m.weights[l], m.mw[l], m.vw[l], gw[l], t)
		u.b, u.mb, u.vb = m.adam(m.biases[l], m.mb[l], m.vb[l], gb[l], t)
		if !finite(u.w) || !finite(u.b) {
			return fmt.Errorf("updated layer %d: %w", l, ErrNumerical)
		}
		updates[l] = u
	}

	for l, u := range updates {
		m.weights[l], m.mw[l], m.vw[l] = u.w, u.mw, u.vw
		m.biases[l], m.mb[l], m.vb[l] = u.b, u.mb, u.vb
	}
	m.t = t
	return nil
}

func (m *MLP) adam(p, mom, vel, g *mat.Dense, t int) (np, nm, nv *mat.Dense) {
	r, c := p.Dims()
	np, nm, nv = mat.NewDense(r, c, nil), mat.NewDense(r, c, nil), mat.NewDense(r, c, nil)
	c1 := 1 - math.Pow(m.beta1, float64(t))
	c2 := 1 - math.Pow(m.beta2, float64(t))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			gij := g.At(i, j)
			mij := m.beta1*mom.At(i, j) + (1-m.beta1)*gij
			vij := m.beta2*vel.At(i, j) + (1-m.beta2)*gij*gij
			nm.Set(i, j, mij)
			nv.Set(i, j, vij)
			np.Set(i, j, p.At(i, j)-m.rate*(mij/c1)/(math.Sqrt(vij/c2)+m.eps))
		}
	}
	return np, nm, nv
}

func finite(d mat.Matrix) bool {
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := d.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Weights returns copies keyed w0, b0, w1, b1, ...
func (m *MLP) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense, 2*len(m.weights))
	for l := range m.weights {
		weights[fmt.Sprintf("w%d", l)] = mat.DenseCopyOf(m.weights[l])
		weights[fmt.Sprintf("b%d", l)] = mat.DenseCopyOf(m.biases[l])
	}
	return weights
}

// SetWeights validates every matrix before replacing any of them.
func (m *MLP) SetWeights(weights map[string]*mat.Dense) error {
	check := func(key string, want *mat.Dense) error {
		got, ok := weights[key]
		if !ok || got == nil {
			return fmt.Errorf("missing %q: %w", key, ErrShape)
		}
		gr, gc := got.Dims()
		wr, wc := want.Dims()
		if gr != wr || gc != wc {
			return fmt.Errorf("%q is %dx%d, want %dx%d: %w", key, gr, gc, wr, wc, ErrShape)
		}
		if !finite(got) {
			return fmt.Errorf("%q: %w", key, ErrNumerical)
		}
		return nil
	}
	for l := range m.weights {
		if err := check(fmt.Sprintf("w%d", l), m.weights[l]); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("b%d", l), m.biases[l]); err != nil {
			return err
		}
	}
	for l := range m.weights {
		m.weights[l] = mat.DenseCopyOf(weights[fmt.Sprintf("w%d", l)])
		m.biases[l] = mat.DenseCopyOf(weights[fmt.Sprintf("b%d", l)])
	}
	return nil
}

// Clone copies the parameters. The copy starts with a fresh optimizer state.
func (m *MLP) Clone() Approximator {
	c := &MLP{
		sizes: append([]int(nil), m.sizes...),
		rate:  m.rate,
		beta1: m.beta1,
		beta2: m.beta2,
		eps:   m.eps,
		clip:  m.clip,
		seed:  m.seed,
	}
	for l := range m.weights {
		c.weights = append(c.weights, mat.DenseCopyOf(m.weights[l]))
		c.biases = append(c.biases, mat.DenseCopyOf(m.biases[l]))
	}
	c.resetOptimizer()
	return c
}
