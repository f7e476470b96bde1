// Package service contains the flow simulation workflow
package service

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"windtunnel/internal/core/geom"
	"windtunnel/internal/core/grid"
	"windtunnel/internal/core/sdf"
	"windtunnel/internal/core/surrogate"
	"windtunnel/internal/core/trace"
	perr "windtunnel/internal/platform/errors"
	"windtunnel/internal/platform/logger"
	"windtunnel/internal/services/simulate/domain"
	"windtunnel/internal/services/simulate/repo"
)

// inferBatch is the model evaluation batch size. Batch boundaries are
// associative: splitting must not change per point results.
const inferBatch = 8192

// Service defines the simulate service contract
type Service interface {
	domain.ServicePort

	// Stored reports how many completed artifacts the registry holds
	Stored() int
}

// Svc implements the simulate service
// the model handle is shared read-only across concurrent jobs
type Svc struct {
	log   logger.Logger
	model *surrogate.Model
	reg   repo.Registry
}

// New constructs a simulate service
func New(log logger.Logger, model *surrogate.Model, reg repo.Registry) *Svc {
	if model == nil {
		panic("simulate.Service requires a non nil model")
	}
	if reg == nil {
		panic("simulate.Service requires a non nil registry")
	}
	return &Svc{log: log, model: model, reg: reg}
}

// Simulate runs one flow job end to end and stores the artifact
func (s *Svc) Simulate(ctx context.Context, in domain.SimulateInput) (*domain.SimulationResult, error) {
	cond, err := resolveConditions(in.Conditions)
	if err != nil {
		return nil, err
	}
	if in.Resolution < 2 || in.Resolution > 128 {
		return nil, perr.Validationf("resolution %d outside 2..128", in.Resolution)
	}

	mesh, summary, err := s.ingest(in.Geometry)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, mesh, summary, cond, in.Resolution)
}

// Demo runs a flow job against a built-in geometry
func (s *Svc) Demo(ctx context.Context, in domain.DemoInput) (*domain.SimulationResult, error) {
	velocity := in.Velocity
	if velocity == 0 {
		velocity = 1.0
	}
	res := in.Resolution
	if res == 0 {
		res = 30
	}

	var mesh *geom.Mesh
	switch strings.ToLower(in.Shape) {
	case "sphere":
		mesh = geom.Icosphere(2, 0.5)
	case "cube":
		mesh = geom.Box(1.0, 0.5, 0.3)
	case "cylinder":
		mesh = geom.Cylinder(0.3, 2.0, 32)
	case "airfoil":
		mesh = geom.Airfoil()
	default:
		return nil, perr.Validationf("unknown demo geometry %q", in.Shape)
	}

	return s.Simulate(ctx, domain.SimulateInput{
		Geometry:   meshInput(mesh),
		Conditions: domain.FlowConditions{Velocity: velocity, Direction: [3]float64{1, 0, 0}, Viscosity: domain.DefaultViscosity},
		Resolution: res,
	})
}

// Stored reports how many completed artifacts the registry holds
func (s *Svc) Stored() int { return s.reg.Len() }

// Get returns a stored simulation artifact
func (s *Svc) Get(_ context.Context, id string) (*domain.SimulationResult, error) {
	res, ok := s.reg.Get(id)
	if !ok {
		return nil, perr.NotFoundf("simulation %s not found", id)
	}
	return res, nil
}

// run executes the phase pipeline: domain, sdf, inference, streamlines,
// assembly. Cancellation is coarse, checked only between phases.
func (s *Svc) run(
	ctx context.Context,
	mesh *geom.Mesh,
	summary domain.GeometrySummary,
	cond resolved,
	res int,
) (*domain.SimulationResult, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	dom := grid.Build(mesh.Bounds, res)

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	field := sdf.Compute(mesh, dom)
	if field.Approximate {
		s.log.Warn().Msg("approximate sdf fallback in use")
	}

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	vel, press, err := s.infer(dom, cond)
	if err != nil {
		return nil, err
	}

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	tracer := &trace.Tracer{Dom: dom, Vel: vel, SDF: field, Opts: trace.DefaultOptions()}
	lines := tracer.Streamlines(cond.freestream)

	out := assemble(dom, field, vel, press, lines)
	out.ID = uuid.NewString()
	out.Status = domain.StatusCompleted
	out.Geometry = summary
	s.reg.Put(out)

	s.log.Info().
		Str("simulation_id", out.ID).
		Int("resolution", res).
		Int("streamlines", len(out.Streamlines)).
		Bool("sdf_approximate", out.SDFApproximate).
		Msg("simulation completed")
	return out, nil
}

// infer evaluates the model over every lattice point in fixed batches
func (s *Svc) infer(dom *grid.Domain, cond resolved) ([]r3.Vec, []float64, error) {
	n := len(dom.Points)
	raw := make([][surrogate.OutDim]float64, n)
	for lo := 0; lo < n; lo += inferBatch {
		hi := lo + inferBatch
		if hi > n {
			hi = n
		}
		s.model.Predict(dom.Points[lo:hi], cond.model, raw[lo:hi])
	}

	vel := make([]r3.Vec, n)
	press := make([]float64, n)
	for i, row := range raw {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, perr.Computationf("non-finite model output at point %d", i)
			}
		}
		vel[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
		press[i] = row[3]
	}
	return vel, press, nil
}

// ingest resolves the geometry variant into one canonical repaired mesh
func (s *Svc) ingest(in domain.GeometryInput) (*geom.Mesh, domain.GeometrySummary, error) {
	var sum domain.GeometrySummary

	if in.HasRaw() == in.HasExtracted() {
		return nil, sum, perr.Validationf("geometry requires raw bytes or extracted vertices, not both or neither")
	}

	var mesh *geom.Mesh
	var err error
	if in.HasRaw() {
		format, ferr := geom.ParseFormat(in.Format)
		if ferr != nil {
			return nil, sum, perr.Wrap(ferr, perr.ErrorCodeGeometry, "unsupported geometry format")
		}
		mesh, err = geom.Decode(in.Raw, format)
		if err != nil {
			return nil, sum, perr.Wrap(err, perr.ErrorCodeGeometry, "geometry parse failed")
		}
	} else {
		verts := make([]r3.Vec, len(in.Vertices))
		for i, v := range in.Vertices {
			verts[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
		}
		mesh, err = geom.NewMesh(verts, in.Faces)
		if err != nil {
			return nil, sum, perr.Wrap(err, perr.ErrorCodeGeometry, "invalid extracted geometry")
		}
	}

	mesh, report, err := geom.Repair(mesh)
	if err != nil {
		return nil, sum, perr.Wrap(err, perr.ErrorCodeGeometry, "no usable surface after repair")
	}
	if report.FilledLoops > 0 {
		s.log.Warn().Int("loops", report.FilledLoops).Msg("filled open boundary loops")
	}
	if report.ConvexHull {
		s.log.Warn().Msg("convex hull fallback in use")
	}

	if len(mesh.Faces) > geom.MaxFaces {
		mesh, err = geom.Decimate(mesh, geom.DecimateTarget)
		if err != nil {
			return nil, sum, perr.Wrap(err, perr.ErrorCodeGeometry, "decimation failed")
		}
	}

	sum = domain.GeometrySummary{
		VertexCount: len(mesh.Verts),
		FaceCount:   len(mesh.Faces),
		Bounds: [2][3]float64{
			{mesh.Bounds.Min.X, mesh.Bounds.Min.Y, mesh.Bounds.Min.Z},
			{mesh.Bounds.Max.X, mesh.Bounds.Max.Y, mesh.Bounds.Max.Z},
		},
		Centroid:    [3]float64{mesh.Centroid.X, mesh.Centroid.Y, mesh.Centroid.Z},
		Watertight:  mesh.Watertight,
		FilledLoops: report.FilledLoops,
		ConvexHull:  report.ConvexHull,
	}
	return mesh, sum, nil
}

// assemble packages one job's outputs into the response artifact
func assemble(
	dom *grid.Domain,
	field *sdf.Field,
	vel []r3.Vec,
	press []float64,
	lines [][]r3.Vec,
) *domain.SimulationResult {
	stride := dom.Res / 20
	if stride < 1 {
		stride = 1
	}

	var points, vectors [][3]float64
	var magnitude []float64
	for i := 0; i < dom.Res; i += stride {
		for j := 0; j < dom.Res; j += stride {
			for k := 0; k < dom.Res; k += stride {
				idx := dom.FlatIndex(i, j, k)
				p, v := dom.Points[idx], vel[idx]
				points = append(points, [3]float64{p.X, p.Y, p.Z})
				vectors = append(vectors, [3]float64{v.X, v.Y, v.Z})
				magnitude = append(magnitude, r3.Norm(v))
			}
		}
	}

	streamlines := make([][][3]float64, len(lines))
	for li, line := range lines {
		pts := make([][3]float64, len(line))
		for pi, p := range line {
			pts[pi] = [3]float64{p.X, p.Y, p.Z}
		}
		streamlines[li] = pts
	}

	return &domain.SimulationResult{
		VelocityField:  domain.VectorField{Points: points, Vectors: vectors, Magnitude: magnitude},
		PressureField:  press,
		Streamlines:    streamlines,
		Domain: domain.DomainMeta{
			GridShape: dom.Shape(),
			DomainBounds: [3][2]float64{
				{dom.Bounds.Min.X, dom.Bounds.Max.X},
				{dom.Bounds.Min.Y, dom.Bounds.Max.Y},
				{dom.Bounds.Min.Z, dom.Bounds.Max.Z},
			},
			Coordinates: domain.Coordinates{X: dom.X, Y: dom.Y, Z: dom.Z},
		},
		SDF:            field.Values,
		SDFApproximate: field.Approximate,
	}
}

// resolved carries validated flow conditions in model form
type resolved struct {
	model      surrogate.Condition
	freestream r3.Vec
}

func resolveConditions(fc domain.FlowConditions) (resolved, error) {
	if fc.Velocity <= 0 {
		return resolved{}, perr.Validationf("velocity must be positive")
	}
	unit, err := fc.Unit()
	if err != nil {
		return resolved{}, err
	}
	nu := fc.Viscosity
	if nu < 0 {
		return resolved{}, perr.Validationf("viscosity must be positive")
	}
	if nu == 0 {
		nu = domain.DefaultViscosity
	}
	free := r3.Vec{X: unit[0] * fc.Velocity, Y: unit[1] * fc.Velocity, Z: unit[2] * fc.Velocity}
	return resolved{
		model:      surrogate.Condition{Freestream: free, Viscosity: nu},
		freestream: free,
	}, nil
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "simulation cancelled")
	}
	return nil
}

// meshInput converts a generated mesh into the extracted geometry variant
func meshInput(m *geom.Mesh) domain.GeometryInput {
	verts := make([][3]float64, len(m.Verts))
	for i, v := range m.Verts {
		verts[i] = [3]float64{v.X, v.Y, v.Z}
	}
	faces := make([][3]int, len(m.Faces))
	copy(faces, m.Faces)
	return domain.GeometryInput{Vertices: verts, Faces: faces}
}
