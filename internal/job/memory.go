package job

import (
	"context"
	"sort"
	"sync"
)

// Compile-time checks that MemoryRepository implements Repository and
// EvictionNotifier.
var (
	_ Repository       = (*MemoryRepository)(nil)
	_ EvictionNotifier = (*MemoryRepository)(nil)
)

// DefaultMemoryCapacity is the number of jobs kept when no capacity is given.
const DefaultMemoryCapacity = 1000

// MemoryRepository keeps job records in memory. Stored jobs are clones, so
// callers never share state with the repository.
//
// When the repository is full, saving a new job evicts the oldest terminal
// job. Running jobs are never evicted.
type MemoryRepository struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	capacity int
	onEvict  func(*Job)
}

// NewMemoryRepository creates an in-memory repository holding up to capacity
// jobs. A non-positive capacity selects DefaultMemoryCapacity.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRepository{
		jobs:     make(map[string]*Job),
		capacity: capacity,
	}
}

// OnEvict registers fn to be called, outside the lock, with every job
// evicted to make room.
func (r *MemoryRepository) OnEvict(fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// Save stores a clone of job.
func (r *MemoryRepository) Save(_ context.Context, job *Job) error {
	r.mu.Lock()
	var evicted *Job
	if _, exists := r.jobs[job.ID]; !exists && len(r.jobs) >= r.capacity {
		evicted = r.evictOldestTerminal()
	}
	r.jobs[job.ID] = job.Clone()
	onEvict := r.onEvict
	r.mu.Unlock()

	if evicted != nil && onEvict != nil {
		onEvict(evicted)
	}
	return nil
}

// evictOldestTerminal drops the least recently created finished job and
// returns it, or nil when every stored job is still running.
// Must be called with mu held.
func (r *MemoryRepository) evictOldestTerminal() *Job {
	var oldest *Job
	for _, j := range r.jobs {
		if j.Status != StatusDone && j.Status != StatusFailed {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest != nil {
		delete(r.jobs, oldest.ID)
	}
	return oldest
}

// FindByID returns a clone of the stored job.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns clones of all jobs, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]*Job, error) {
	r.mu.RLock()
	result := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		result = append(result, job.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result, nil
}

// Delete removes a job from the repository.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(r.jobs, id)
	return nil
}
