package surrogate

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Thresholds for the boundary-condition penalties, in signed-distance
// units: no-slip applies within NoSlipBand of the surface, the far-field
// term beyond FarfieldDist.
const (
	NoSlipBand   = 0.05
	FarfieldDist = 1.0
)

// Losses are the physics residuals over one batch, each a batch mean.
// They define what "correct" means for the surrogate: a trained model
// drives all of them toward zero. None of this runs at inference.
type Losses struct {
	Continuity float64 // du/dx + dv/dy + dw/dz ~ 0
	MomentumX  float64
	MomentumY  float64
	MomentumZ  float64
	Boundary   float64 // mean squared velocity within NoSlipBand of the surface
	Farfield   float64 // mean squared deviation from freestream beyond FarfieldDist
}

// Sum is the unweighted total, handy for training and tests.
func (l Losses) Sum() float64 {
	return l.Continuity + l.MomentumX + l.MomentumY + l.MomentumZ + l.Boundary + l.Farfield
}

// Residuals computes the Navier-Stokes residuals for a batch of points.
// sdf carries the signed distance per point for the boundary terms and
// must be index-aligned with points.
//
// Spatial derivatives are exact: value, gradient and second derivative
// are propagated together through every layer (forward-over-forward), so
// the continuity and momentum terms match what reverse-mode autodiff
// produces, without any tape on the model.
func (m *Model) Residuals(points []r3.Vec, cond Condition, sdf []float64) Losses {
	var out Losses
	n := len(points)
	if n == 0 {
		return out
	}

	var boundarySq, farfieldSq float64
	var nBoundary, nFarfield int

	for i, p := range points {
		val, grad, lap := m.derivatives(p, cond)
		u, v, w := val[0], val[1], val[2]

		div := grad[0][0] + grad[1][1] + grad[2][2]
		out.Continuity += div * div

		// convective term + pressure gradient - viscosity * Laplacian
		for c := 0; c < 3; c++ {
			conv := u*grad[c][0] + v*grad[c][1] + w*grad[c][2]
			r := conv + grad[3][c] - cond.Viscosity*lap[c]
			switch c {
			case 0:
				out.MomentumX += r * r
			case 1:
				out.MomentumY += r * r
			default:
				out.MomentumZ += r * r
			}
		}

		if math.Abs(sdf[i]) < NoSlipBand {
			boundarySq += u*u + v*v + w*w
			nBoundary++
		}
		if sdf[i] > FarfieldDist {
			du := u - cond.Freestream.X
			dv := v - cond.Freestream.Y
			dw := w - cond.Freestream.Z
			farfieldSq += du*du + dv*dv + dw*dw
			nFarfield++
		}
	}

	fn := float64(n)
	out.Continuity /= fn
	out.MomentumX /= fn
	out.MomentumY /= fn
	out.MomentumZ /= fn
	// means are over masked elements (3 components each), zero when the
	// mask is empty
	if nBoundary > 0 {
		out.Boundary = boundarySq / float64(3*nBoundary)
	}
	if nFarfield > 0 {
		out.Farfield = farfieldSq / float64(3*nFarfield)
	}
	return out
}

// derivatives returns, for one point, the four outputs, the 4x3 first
// derivative matrix grad[channel][axis], and the Laplacian of each
// velocity channel plus pressure (lap[channel]).
func (m *Model) derivatives(p r3.Vec, cond Condition) (val [OutDim]float64, grad [OutDim][3]float64, lap [OutDim]float64) {
	in := m.inDim()
	ff := m.cfg.FourierFeatures

	z := mat.NewVecDense(in, nil)
	var tan, sec [3]*mat.VecDense
	for k := 0; k < 3; k++ {
		tan[k] = mat.NewVecDense(in, nil)
		sec[k] = mat.NewVecDense(in, nil)
	}

	m.encode(p, cond, z.RawVector().Data)
	for k := 0; k < 3; k++ {
		tan[k].SetVec(k, 1)
	}
	for j := 0; j < ff; j++ {
		phase := 2 * math.Pi * (p.X*m.fourier.At(0, j) + p.Y*m.fourier.At(1, j) + p.Z*m.fourier.At(2, j))
		sin, cos := math.Sincos(phase)
		for k := 0; k < 3; k++ {
			c := 2 * math.Pi * m.fourier.At(k, j)
			tan[k].SetVec(3+j, cos*c)
			tan[k].SetVec(3+ff+j, -sin*c)
			sec[k].SetVec(3+j, -sin*c*c)
			sec[k].SetVec(3+ff+j, -cos*c*c)
		}
	}

	for li, l := range m.layers {
		outDim, _ := l.w.Dims()
		zn := mat.NewVecDense(outDim, nil)
		zn.MulVec(l.w, z)
		for r := 0; r < outDim; r++ {
			zn.SetVec(r, zn.AtVec(r)+l.b[r])
		}
		var tn, sn [3]*mat.VecDense
		for k := 0; k < 3; k++ {
			tn[k] = mat.NewVecDense(outDim, nil)
			tn[k].MulVec(l.w, tan[k])
			sn[k] = mat.NewVecDense(outDim, nil)
			sn[k].MulVec(l.w, sec[k])
		}
		if li < len(m.layers)-1 {
			for r := 0; r < outDim; r++ {
				a := zn.AtVec(r)
				s := sigmoid(a)
				ds := s * (1 - s)
				f1 := s + a*ds          // silu'
				f2 := ds * (2 + a*(1-2*s)) // silu''
				for k := 0; k < 3; k++ {
					t := tn[k].AtVec(r)
					sn[k].SetVec(r, f2*t*t+f1*sn[k].AtVec(r))
					tn[k].SetVec(r, f1*t)
				}
				zn.SetVec(r, a*s)
			}
		}
		z, tan, sec = zn, tn, sn
	}

	for c := 0; c < OutDim; c++ {
		val[c] = z.AtVec(c)
		for k := 0; k < 3; k++ {
			grad[c][k] = tan[k].AtVec(c)
			lap[c] += sec[k].AtVec(c)
		}
	}
	return val, grad, lap
}
