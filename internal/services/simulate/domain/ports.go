package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Simulate(ctx context.Context, in SimulateInput) (*SimulationResult, error)
	Demo(ctx context.Context, in DemoInput) (*SimulationResult, error)
	Get(ctx context.Context, id string) (*SimulationResult, error)
}
