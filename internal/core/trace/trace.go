// Package trace integrates streamlines through a predicted velocity
// field: the path a massless particle follows from an upstream seed until
// it stagnates, leaves the domain, or hits the body.
package trace

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"windtunnel/internal/core/grid"
	"windtunnel/internal/core/sdf"
)

// Options tunes the integrator. DefaultOptions matches the trained
// pipeline; tests shrink MaxSteps to keep fixtures small.
type Options struct {
	MaxSteps        int
	StepSize        float64
	StagnationSpeed float64 // stop below this speed; a non-error stop
	CollisionSDF    float64 // stop when sampled SDF drops below this
	MinPoints       int     // discard lines with point count <= MinPoints
	MaxLines        int
	SeedsMajor      int // seed grid size along the first transverse axis
	SeedsMinor      int // and along the second
}

// DefaultOptions returns the production integrator settings.
func DefaultOptions() Options {
	return Options{
		MaxSteps:        80,
		StepSize:        0.03,
		StagnationSpeed: 0.005,
		CollisionSDF:    -0.02,
		MinPoints:       3,
		MaxLines:        30,
		SeedsMajor:      8,
		SeedsMinor:      4,
	}
}

// Tracer integrates streamlines over one job's predicted field. Vel holds
// the per-lattice-point velocity in the domain's axis-major order.
type Tracer struct {
	Dom  *grid.Domain
	Vel  []r3.Vec
	SDF  *sdf.Field
	Opts Options
}

// Streamlines seeds a regular sub-grid on the upstream domain face (the
// face the freestream enters through) and traces each seed. Lines at or
// below MinPoints are discarded. Deterministic for identical inputs.
func (t *Tracer) Streamlines(freestream r3.Vec) [][]r3.Vec {
	seeds := t.seeds(freestream)
	if len(seeds) > t.Opts.MaxLines {
		seeds = seeds[:t.Opts.MaxLines]
	}
	var lines [][]r3.Vec
	for _, s := range seeds {
		line := t.Trace(s)
		if len(line) > t.Opts.MinPoints {
			lines = append(lines, line)
		}
	}
	return lines
}

// seeds lays a SeedsMajor x SeedsMinor grid across the face upstream of
// the dominant freestream axis.
func (t *Tracer) seeds(freestream r3.Vec) []r3.Vec {
	axis := 0
	comp := freestream.X
	if math.Abs(freestream.Y) > math.Abs(comp) {
		axis, comp = 1, freestream.Y
	}
	if math.Abs(freestream.Z) > math.Abs(comp) {
		axis, comp = 2, freestream.Z
	}

	lo, hi := t.Dom.Bounds.Min, t.Dom.Bounds.Max
	face := axisGet(lo, axis)
	if comp < 0 {
		face = axisGet(hi, axis)
	}

	majorAxis, minorAxis := (axis+1)%3, (axis+2)%3
	major := seedCoords(axisGet(lo, majorAxis), axisGet(hi, majorAxis), t.Opts.SeedsMajor)
	minor := seedCoords(axisGet(lo, minorAxis), axisGet(hi, minorAxis), t.Opts.SeedsMinor)

	seeds := make([]r3.Vec, 0, len(major)*len(minor))
	for _, a := range major {
		for _, b := range minor {
			var p r3.Vec
			p = axisSet(p, axis, face)
			p = axisSet(p, majorAxis, a)
			p = axisSet(p, minorAxis, b)
			seeds = append(seeds, p)
		}
	}
	return seeds
}

// Trace integrates one streamline with classical RK4 against the
// nearest-neighbor interpolated velocity. Termination checks run in
// order: stagnation, domain exit, surface collision.
func (t *Tracer) Trace(seed r3.Vec) []r3.Vec {
	line := []r3.Vec{seed}
	p := seed
	h := t.Opts.StepSize

	for step := 0; step < t.Opts.MaxSteps; step++ {
		k1 := t.velocity(p)
		if r3.Norm(k1) < t.Opts.StagnationSpeed {
			break
		}
		k2 := t.velocity(r3.Add(p, r3.Scale(0.5*h, k1)))
		k3 := t.velocity(r3.Add(p, r3.Scale(0.5*h, k2)))
		k4 := t.velocity(r3.Add(p, r3.Scale(h, k3)))

		incr := r3.Add(r3.Add(k1, r3.Scale(2, k2)), r3.Add(r3.Scale(2, k3), k4))
		p = r3.Add(p, r3.Scale(h/6, incr))

		if !t.Dom.Contains(p) {
			break
		}
		if t.SDF.Sample(t.Dom, p) < t.Opts.CollisionSDF {
			break
		}
		line = append(line, p)
	}
	return line
}

// velocity is the nearest-neighbor lookup; indices clamp at the domain
// edge, so queries slightly outside return the boundary cell. Not
// trilinear on purpose: the field is trained pointwise and interpolation
// smoothness would visibly change the traced shapes.
func (t *Tracer) velocity(p r3.Vec) r3.Vec {
	i, j, k := t.Dom.NearestIndex(p)
	return t.Vel[t.Dom.FlatIndex(i, j, k)]
}

func seedCoords(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{(lo + hi) / 2}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func axisGet(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func axisSet(v r3.Vec, axis int, val float64) r3.Vec {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}
