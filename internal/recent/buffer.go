// Package recent keeps the process-wide list of recently found jobs shown by
// the recent command.
package recent

import (
	"context"
	"sync"

	"job-bot-go/internal/models"
)

// Buffer is a bounded, append-only log of jobs shared by all users. Oldest
// entries are dropped once the capacity is reached.
type Buffer interface {
	Add(ctx context.Context, jobs []models.Job) error
	// Latest returns up to n of the newest jobs, oldest first.
	Latest(ctx context.Context, n int) ([]models.Job, error)
}

// Ring is an in-memory Buffer.
type Ring struct {
	mu       sync.Mutex
	jobs     []models.Job
	capacity int
}

func NewRing(capacity int) *Ring {
	return &Ring{
		jobs:     make([]models.Job, 0, capacity),
		capacity: capacity,
	}
}

func (r *Ring) Add(_ context.Context, jobs []models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs = append(r.jobs, jobs...)
	if overflow := len(r.jobs) - r.capacity; overflow > 0 {
		kept := make([]models.Job, r.capacity)
		copy(kept, r.jobs[overflow:])
		r.jobs = kept
	}
	return nil
}

func (r *Ring) Latest(_ context.Context, n int) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(max(n, 0), len(r.jobs))
	latest := make([]models.Job, n)
	copy(latest, r.jobs[len(r.jobs)-n:])
	return latest, nil
}
