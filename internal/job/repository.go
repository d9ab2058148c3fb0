package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository stores job records so callers can poll status after a run.
type Repository interface {
	// Save inserts or replaces the job.
	Save(ctx context.Context, job *Job) error

	// FindByID returns the job or ErrJobNotFound.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns jobs, newest first.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes the job or returns ErrJobNotFound.
	Delete(ctx context.Context, id string) error
}

// EvictionNotifier is implemented by repositories that drop jobs on their
// own. The callback receives each evicted job after it has been removed.
type EvictionNotifier interface {
	OnEvict(fn func(*Job))
}
