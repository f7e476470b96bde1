package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ClosestPointTriangle returns the point on triangle abc nearest to p.
// Region classification after Ericson, Real-Time Collision Detection §5.1.5.
func ClosestPointTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

// RayTriangle reports whether a ray from orig along dir crosses triangle
// abc, and the distance along the ray. Möller–Trumbore. grazing flags a
// crossing within grazeEps of an edge or vertex, on either side: such a
// ray lands on (or hair-misses) every triangle sharing that edge, so a
// parity count over the whole surface must discard the cast and retry
// with a nudged direction instead of trusting the total.
func RayTriangle(orig, dir, a, b, c r3.Vec) (t float64, hit, grazing bool) {
	const eps = 1e-12
	const grazeEps = 1e-9
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	pv := r3.Cross(dir, e2)
	det := r3.Dot(e1, pv)
	if math.Abs(det) < eps {
		return 0, false, false
	}
	inv := 1 / det
	tv := r3.Sub(orig, a)
	u := r3.Dot(tv, pv) * inv
	if u < -grazeEps || u > 1+grazeEps {
		return 0, false, false
	}
	qv := r3.Cross(tv, e1)
	v := r3.Dot(dir, qv) * inv
	if v < -grazeEps || u+v > 1+grazeEps {
		return 0, false, false
	}
	t = r3.Dot(e2, qv) * inv
	if t <= eps {
		return 0, false, false
	}
	hit = u >= 0 && v >= 0 && u+v <= 1
	grazing = u < grazeEps || v < grazeEps || u+v > 1-grazeEps
	return t, hit, grazing
}
