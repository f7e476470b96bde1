// Package surrogate implements the physics-informed flow model: a neural
// function f(position, flow condition) -> (u, v, w, p) trained to satisfy
// the incompressible Navier-Stokes equations. The inference path is plain
// batched matrix evaluation; all derivative machinery lives in the
// training-time residual code in physics.go.
package surrogate

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config sizes the network. Zero values take the trained architecture.
type Config struct {
	FourierFeatures int     // random Fourier features per trig half (default 64)
	HiddenDim       int     // width of hidden layers (default 256)
	HiddenLayers    int     // number of hidden layers (default 8)
	FourierScale    float64 // stddev multiplier of the frozen projection (default 10)
	Seed            int64   // weight init seed; fixed so results are reproducible
}

func (c Config) withDefaults() Config {
	if c.FourierFeatures == 0 {
		c.FourierFeatures = 64
	}
	if c.HiddenDim == 0 {
		c.HiddenDim = 256
	}
	if c.HiddenLayers == 0 {
		c.HiddenLayers = 8
	}
	if c.FourierScale == 0 {
		c.FourierScale = 10
	}
	return c
}

// Condition is one free-stream flow condition broadcast to every sample
// point: the freestream velocity vector (magnitude folded in) and the
// kinematic viscosity.
type Condition struct {
	Freestream r3.Vec
	Viscosity  float64
}

// Model is the surrogate network. It is constructed once per process,
// shared read-only across concurrent jobs, and never mutated on the
// inference path. All numeric state is float64.
type Model struct {
	cfg Config

	// fourier is the frozen (non-trainable) 3 x F random projection. The
	// sine/cosine lift of its output counters the network's bias toward
	// overly smooth fields.
	fourier *mat.Dense

	layers []layer
}

// layer is one affine transform; every layer except the last is followed
// by SiLU.
type layer struct {
	w *mat.Dense // out x in
	b []float64
}

// inDim is the network input width: raw coords + sin/cos lift + condition.
func (m *Model) inDim() int { return 3 + 2*m.cfg.FourierFeatures + 4 }

// OutDim is the number of predicted channels (u, v, w, p).
const OutDim = 4

// New builds a model with deterministically initialized weights.
func New(cfg Config) *Model {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Model{cfg: cfg}

	f := mat.NewDense(3, cfg.FourierFeatures, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < cfg.FourierFeatures; j++ {
			f.Set(i, j, rng.NormFloat64()*cfg.FourierScale)
		}
	}
	m.fourier = f

	dims := []int{m.inDim()}
	for i := 0; i < cfg.HiddenLayers; i++ {
		dims = append(dims, cfg.HiddenDim)
	}
	dims = append(dims, OutDim)

	for i := 0; i+1 < len(dims); i++ {
		in, out := dims[i], dims[i+1]
		w := mat.NewDense(out, in, nil)
		limit := math.Sqrt(6.0 / float64(in+out))
		for r := 0; r < out; r++ {
			for c := 0; c < in; c++ {
				w.Set(r, c, (2*rng.Float64()-1)*limit)
			}
		}
		m.layers = append(m.layers, layer{w: w, b: make([]float64, out)})
	}
	return m
}

// encode writes the network input row for point p under cond.
func (m *Model) encode(p r3.Vec, cond Condition, row []float64) {
	ff := m.cfg.FourierFeatures
	row[0], row[1], row[2] = p.X, p.Y, p.Z
	for j := 0; j < ff; j++ {
		phase := 2 * math.Pi * (p.X*m.fourier.At(0, j) + p.Y*m.fourier.At(1, j) + p.Z*m.fourier.At(2, j))
		row[3+j] = math.Sin(phase)
		row[3+ff+j] = math.Cos(phase)
	}
	base := 3 + 2*ff
	row[base] = cond.Freestream.X
	row[base+1] = cond.Freestream.Y
	row[base+2] = cond.Freestream.Z
	row[base+3] = cond.Viscosity
}

// Predict evaluates the model for a batch of points under one condition.
// out must have length len(points); each element receives (u, v, w, p).
// No gradient state is built: this is the pure inference path.
func (m *Model) Predict(points []r3.Vec, cond Condition, out [][OutDim]float64) {
	n := len(points)
	if n == 0 {
		return
	}
	x := mat.NewDense(n, m.inDim(), nil)
	for i, p := range points {
		m.encode(p, cond, x.RawRowView(i))
	}

	cur := x
	for li, l := range m.layers {
		rows, _ := cur.Dims()
		outDim, _ := l.w.Dims()
		next := mat.NewDense(rows, outDim, nil)
		next.Mul(cur, l.w.T())
		last := li == len(m.layers)-1
		for r := 0; r < rows; r++ {
			row := next.RawRowView(r)
			for c := range row {
				row[c] += l.b[c]
				if !last {
					row[c] = silu(row[c])
				}
			}
		}
		cur = next
	}

	for i := 0; i < n; i++ {
		row := cur.RawRowView(i)
		copy(out[i][:], row[:OutDim])
	}
}

// PredictOne evaluates a single point; convenience for tests.
func (m *Model) PredictOne(p r3.Vec, cond Condition) [OutDim]float64 {
	var out [1][OutDim]float64
	m.Predict([]r3.Vec{p}, cond, out[:])
	return out[0]
}

func silu(x float64) float64 { return x * sigmoid(x) }

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
