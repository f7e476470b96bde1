// Package domain holds DTOs for simulate http and service contracts
package domain

import (
	"math"

	perr "windtunnel/internal/platform/errors"
)

// FlowConditions describes the free stream entering the domain
type FlowConditions struct {
	Velocity  float64    `json:"velocity" validate:"required,gt=0" example:"1.0"`
	Direction [3]float64 `json:"direction" example:"1.0,0.0,0.0"`
	Viscosity float64    `json:"viscosity,omitempty" validate:"omitempty,gt=0" example:"0.01"`
}

// DefaultViscosity is applied when the caller omits viscosity
const DefaultViscosity = 0.01

// Unit returns the normalized direction vector
// a near zero direction is a validation failure, never silently defaulted
func (f FlowConditions) Unit() ([3]float64, error) {
	n := math.Sqrt(f.Direction[0]*f.Direction[0] + f.Direction[1]*f.Direction[1] + f.Direction[2]*f.Direction[2])
	if n < 1e-12 {
		return [3]float64{}, perr.Validationf("direction vector must be non zero")
	}
	return [3]float64{f.Direction[0] / n, f.Direction[1] / n, f.Direction[2] / n}, nil
}

// GeometryInput is a tagged variant: raw mesh bytes plus a declared format,
// or pre-extracted vertices and faces. Exactly one case must be populated
type GeometryInput struct {
	Raw    []byte `json:"-"`
	Format string `json:"format,omitempty" example:"stl"`

	Vertices [][3]float64 `json:"vertices,omitempty"`
	Faces    [][3]int     `json:"faces,omitempty"`
}

// HasRaw reports whether the raw bytes case is populated
func (g GeometryInput) HasRaw() bool { return len(g.Raw) > 0 }

// HasExtracted reports whether the pre-extracted case is populated
func (g GeometryInput) HasExtracted() bool { return len(g.Vertices) > 0 || len(g.Faces) > 0 }

// SimulateInput is the full request for one flow job
type SimulateInput struct {
	Geometry   GeometryInput  `json:"geometry"`
	Conditions FlowConditions `json:"flow_conditions"`
	Resolution int            `json:"resolution" validate:"required,gte=2,lte=128" example:"30"`
}

// DemoInput runs a job against a built-in geometry
type DemoInput struct {
	Shape      string  `json:"geometry_type" validate:"required,oneof=sphere cube cylinder airfoil" example:"sphere"`
	Velocity   float64 `json:"velocity,omitempty" validate:"omitempty,gt=0" example:"1.0"`
	Resolution int     `json:"resolution,omitempty" validate:"omitempty,gte=2,lte=128" example:"30"`
}

// GeometrySummary reports what ingestion actually simulated
type GeometrySummary struct {
	VertexCount int           `json:"vertex_count" example:"642"`
	FaceCount   int           `json:"face_count" example:"1280"`
	Bounds      [2][3]float64 `json:"bounds"`
	Centroid    [3]float64    `json:"centroid"`
	Watertight  bool          `json:"watertight" example:"true"`
	FilledLoops int           `json:"filled_loops,omitempty" example:"0"`
	ConvexHull  bool          `json:"convex_hull,omitempty" example:"false"`
}

// VectorField is the sub-sampled velocity payload, index aligned
type VectorField struct {
	Points    [][3]float64 `json:"points"`
	Vectors   [][3]float64 `json:"vectors"`
	Magnitude []float64    `json:"magnitude"`
}

// Coordinates are the per axis lattice coordinates
type Coordinates struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

// DomainMeta describes the padded compute lattice
type DomainMeta struct {
	GridShape    [3]int        `json:"grid_shape"`
	DomainBounds [3][2]float64 `json:"domain_bounds"`
	Coordinates  Coordinates   `json:"coordinates"`
}

// SimulationResult is the immutable artifact returned to callers
// pressure and sdf are flat length R^3 arrays in axis-major order
type SimulationResult struct {
	ID             string          `json:"simulation_id"`
	Status         string          `json:"status" example:"completed"`
	Geometry       GeometrySummary `json:"geometry"`
	VelocityField  VectorField     `json:"velocity_field"`
	PressureField  []float64       `json:"pressure_field"`
	Streamlines    [][][3]float64  `json:"streamlines"`
	Domain         DomainMeta      `json:"domain"`
	SDF            []float64       `json:"sdf"`
	SDFApproximate bool            `json:"sdf_approximate"`
}

// StatusCompleted is the only terminal status for a stored simulation
const StatusCompleted = "completed"
