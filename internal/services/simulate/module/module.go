// Package module wires simulate into the API using modkit
package module

import (
	"net/http"

	modkit "windtunnel/internal/modkit"
	"windtunnel/internal/modkit/httpkit"
	"windtunnel/internal/platform/logger"
	str "windtunnel/internal/platform/strings"
	simhttp "windtunnel/internal/services/simulate/http"
	simrepo "windtunnel/internal/services/simulate/repo"
	simsvc "windtunnel/internal/services/simulate/service"
)

// Module implements the simulate module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc simsvc.Service
}

// New constructs the simulate module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("simulate"), modkit.WithPrefix("/simulations")}, opts...)...)

	reg := simrepo.NewMemory()
	svc := simsvc.New(*logger.Named("simulate"), deps.Model, reg)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptSimulatePort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		simhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Service exposes the underlying service for in-process callers
func (m *Module) Service() simsvc.Service { return m.svc }
