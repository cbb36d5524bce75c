package weather

import (
	"context"
	"sync/atomic"
)

// InMemoryRepository keeps the active observation in process memory.
type InMemoryRepository struct {
	active atomic.Pointer[Observation]
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save makes a copy of obs the active observation.
func (r *InMemoryRepository) Save(_ context.Context, obs *Observation) error {
	cpy := *obs
	r.active.Store(&cpy)
	return nil
}

// Active returns a copy of the active observation.
func (r *InMemoryRepository) Active(_ context.Context) (*Observation, error) {
	obs := r.active.Load()
	if obs == nil {
		return nil, ErrNoActiveObservation
	}
	cpy := *obs
	return &cpy, nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}
