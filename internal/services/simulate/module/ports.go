package module

import (
	"context"

	"windtunnel/internal/services/simulate/domain"
	simsvc "windtunnel/internal/services/simulate/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptSimulatePort struct{ svc simsvc.Service }

// Simulate runs one flow job end to end
func (a adaptSimulatePort) Simulate(ctx context.Context, in domain.SimulateInput) (*domain.SimulationResult, error) {
	return a.svc.Simulate(ctx, in)
}

// Demo runs a flow job against a built-in geometry
func (a adaptSimulatePort) Demo(ctx context.Context, in domain.DemoInput) (*domain.SimulationResult, error) {
	return a.svc.Demo(ctx, in)
}

// Get returns a stored simulation artifact
func (a adaptSimulatePort) Get(ctx context.Context, id string) (*domain.SimulationResult, error) {
	return a.svc.Get(ctx, id)
}
