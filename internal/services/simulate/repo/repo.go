// Package repo provides the in-process simulation registry
// completed artifacts live in memory for the lifetime of the process
package repo

import (
	"sync"

	"windtunnel/internal/services/simulate/domain"
)

// Registry stores completed simulation artifacts keyed by id
type Registry interface {
	Put(res *domain.SimulationResult)
	Get(id string) (*domain.SimulationResult, bool)
	Len() int
}

// NewMemory constructs an empty in-memory registry
func NewMemory() Registry {
	return &memory{byID: make(map[string]*domain.SimulationResult)}
}

type memory struct {
	mu   sync.RWMutex
	byID map[string]*domain.SimulationResult
}

func (m *memory) Put(res *domain.SimulationResult) {
	m.mu.Lock()
	m.byID[res.ID] = res
	m.mu.Unlock()
}

func (m *memory) Get(id string) (*domain.SimulationResult, bool) {
	m.mu.RLock()
	res, ok := m.byID[id]
	m.mu.RUnlock()
	return res, ok
}

func (m *memory) Len() int {
	m.mu.RLock()
	n := len(m.byID)
	m.mu.RUnlock()
	return n
}
