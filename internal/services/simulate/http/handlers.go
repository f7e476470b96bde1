// Package http provides http transport for simulate
package http

import (
	"io"
	"mime"
	stdhttp "net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"windtunnel/internal/core/version"
	"windtunnel/internal/modkit/httpkit"
	perr "windtunnel/internal/platform/errors"
	"windtunnel/internal/platform/net/http/bind"
	"windtunnel/internal/services/simulate/domain"
	svc "windtunnel/internal/services/simulate/service"
)

// maxUploadBytes caps geometry uploads at 64 MiB
const maxUploadBytes = 64 << 20

// Register mounts simulate endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// run a job from an uploaded mesh or a JSON geometry body
	r.Post("/flow", httpkit.Handle(h.flow))

	// run a job against a built-in geometry
	httpkit.PostJSON[domain.DemoInput](r, "/demo", h.demo)

	// liveness
	httpkit.Get(r, "/healthz", h.healthz)

	// fetch a stored artifact
	httpkit.Get(r, "/{id}", h.get)
}

type handlers struct{ svc svc.Service }

// flow accepts multipart/form-data (file upload plus form fields) or an
// application/json SimulateInput body
func (h *handlers) flow(r *stdhttp.Request) httpkit.Response {
	in, err := parseFlowRequest(r)
	if err != nil {
		return httpkit.Error(err)
	}
	res, err := h.svc.Simulate(r.Context(), in)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(res)
}

func (h *handlers) demo(r *stdhttp.Request, in domain.DemoInput) (any, error) {
	return h.svc.Demo(r.Context(), in)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), chi.URLParam(r, "id"))
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status      string            `json:"status" example:"healthy"`
	Simulations int               `json:"simulations_count" example:"3"`
	Build       version.BuildInfo `json:"build"`
}

func (h *handlers) healthz(_ *stdhttp.Request) (any, error) {
	return HealthResponse{Status: "healthy", Simulations: h.svc.Stored(), Build: version.Info()}, nil
}

func parseFlowRequest(r *stdhttp.Request) (domain.SimulateInput, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return parseMultipartFlow(r)
	}
	return bind.ParseJSON[domain.SimulateInput](r)
}

// parseMultipartFlow reads the upload form: file plus velocity,
// direction_x/y/z, viscosity and resolution fields with permissive
// defaults matching the JSON contract
func parseMultipartFlow(r *stdhttp.Request) (domain.SimulateInput, error) {
	var in domain.SimulateInput

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, perr.Wrap(err, perr.ErrorCodeValidation, "malformed multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return in, perr.Validationf("missing geometry file")
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return in, perr.Wrap(err, perr.ErrorCodeValidation, "reading geometry file")
	}
	if len(raw) > maxUploadBytes {
		return in, perr.Validationf("geometry file exceeds %d bytes", maxUploadBytes)
	}

	in.Geometry = domain.GeometryInput{
		Raw:    raw,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), "."),
	}
	in.Conditions = domain.FlowConditions{
		Velocity: formFloat(r, "velocity", 1.0),
		Direction: [3]float64{
			formFloat(r, "direction_x", 1.0),
			formFloat(r, "direction_y", 0.0),
			formFloat(r, "direction_z", 0.0),
		},
		Viscosity: formFloat(r, "viscosity", domain.DefaultViscosity),
	}
	in.Resolution = formInt(r, "resolution", 30)
	return in, nil
}

func formFloat(r *stdhttp.Request, key string, def float64) float64 {
	s := r.FormValue(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

func formInt(r *stdhttp.Request, key string, def int) int {
	s := r.FormValue(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
