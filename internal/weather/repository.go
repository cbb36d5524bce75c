package weather

import "context"

// Repository holds the active observation. Save replaces whatever was active
// before in one step; the most recent Save wins regardless of when its fetch
// was triggered.
type Repository interface {
	// Save makes obs the active observation.
	Save(ctx context.Context, obs *Observation) error

	// Active returns the active observation or ErrNoActiveObservation.
	Active(ctx context.Context) (*Observation, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
