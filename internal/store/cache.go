// Package store holds the process-local job cache. The cache is the source of
// truth for in-flight progress; the database remains authoritative across
// restarts. Snapshots are value copies, so readers never observe a job while
// the orchestrator mutates it.
package store

import (
	"sync"

	"github.com/genz27/LightSource/internal/models"
)

type JobCache struct {
	mu   sync.RWMutex
	jobs map[uint]models.Job
}

func NewJobCache() *JobCache {
	return &JobCache{jobs: make(map[uint]models.Job)}
}

// Get returns a snapshot copy of the cached job.
func (c *JobCache) Get(id uint) (models.Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[id]
	return job, ok
}

// Set stores a snapshot copy of the job.
func (c *JobCache) Set(job models.Job) {
	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()
}

// Update applies fn to the cached job under the write lock, so the mutation
// cannot interleave with a concurrent Set. fn reports whether the entry
// should be rewritten; returning false leaves it untouched. The returned
// snapshot reflects the entry after the call.
func (c *JobCache) Update(id uint, fn func(*models.Job) bool) (models.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	if !fn(&job) {
		return job, false
	}
	c.jobs[id] = job
	return job, true
}

// Delete removes a job from the cache.
func (c *JobCache) Delete(id uint) {
	c.mu.Lock()
	delete(c.jobs, id)
	c.mu.Unlock()
}

// Len returns the number of cached jobs.
func (c *JobCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.jobs)
}

// Cache is the process-wide job cache instance.
var Cache = NewJobCache()
