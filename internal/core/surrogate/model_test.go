package surrogate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// tiny keeps tests fast; the architecture defaults are exercised separately
var tiny = Config{FourierFeatures: 8, HiddenDim: 16, HiddenLayers: 2, Seed: 1}

var testCond = Condition{Freestream: r3.Vec{X: 1}, Viscosity: 0.01}

func testPoints(n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		f := float64(i) / float64(n)
		pts[i] = r3.Vec{X: f - 0.5, Y: 0.3 * f, Z: -0.2 * f}
	}
	return pts
}

func TestNew_DefaultArchitecture(t *testing.T) {
	m := New(Config{Seed: 7})
	assert.Equal(t, 64, m.cfg.FourierFeatures)
	assert.Equal(t, 256, m.cfg.HiddenDim)
	assert.Equal(t, 8, m.cfg.HiddenLayers)
	assert.InDelta(t, 10.0, m.cfg.FourierScale, 1e-12)

	// input layout: xyz + sin/cos lift + freestream + viscosity
	assert.Equal(t, 3+2*64+4, m.inDim())
}

func TestPredict_DeterministicForSeed(t *testing.T) {
	a := New(tiny)
	b := New(tiny)
	p := r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}

	assert.Equal(t, a.PredictOne(p, testCond), b.PredictOne(p, testCond))

	other := tiny
	other.Seed = 2
	c := New(other)
	assert.NotEqual(t, a.PredictOne(p, testCond), c.PredictOne(p, testCond))
}

func TestPredict_BatchSizeInvariant(t *testing.T) {
	m := New(tiny)
	pts := testPoints(100)

	whole := make([][OutDim]float64, len(pts))
	m.Predict(pts, testCond, whole)

	chunked := make([][OutDim]float64, len(pts))
	for lo := 0; lo < len(pts); lo += 7 {
		hi := lo + 7
		if hi > len(pts) {
			hi = len(pts)
		}
		m.Predict(pts[lo:hi], testCond, chunked[lo:hi])
	}

	for i := range whole {
		for c := 0; c < OutDim; c++ {
			require.InDelta(t, whole[i][c], chunked[i][c], 1e-12)
		}
	}
}

func TestPredict_FiniteOutputs(t *testing.T) {
	m := New(tiny)
	pts := testPoints(64)
	out := make([][OutDim]float64, len(pts))
	m.Predict(pts, testCond, out)

	for _, row := range out {
		for _, v := range row {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestPredict_ConditionChangesOutput(t *testing.T) {
	m := New(tiny)
	p := r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}

	a := m.PredictOne(p, testCond)
	b := m.PredictOne(p, Condition{Freestream: r3.Vec{Y: 2}, Viscosity: 0.05})
	assert.NotEqual(t, a, b)
}

func TestPredict_EmptyBatch(t *testing.T) {
	m := New(tiny)
	assert.NotPanics(t, func() { m.Predict(nil, testCond, nil) })
}
