package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genz27/LightSource/internal/models"
)

func TestCacheSetGet(t *testing.T) {
	c := NewJobCache()

	job := models.Job{ID: 1, Prompt: "a cat", Status: models.JobStatusQueued, Progress: 5}
	c.Set(job)

	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, job.Prompt, got.Prompt)
	assert.Equal(t, 5, got.Progress)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestCacheReturnsSnapshotCopies(t *testing.T) {
	c := NewJobCache()
	c.Set(models.Job{ID: 1, Progress: 10})

	got, _ := c.Get(1)
	got.Progress = 99

	again, _ := c.Get(1)
	assert.Equal(t, 10, again.Progress)
}

func TestCacheUpdate(t *testing.T) {
	c := NewJobCache()
	c.Set(models.Job{ID: 1, Status: models.JobStatusRunning, Progress: 10})

	got, applied := c.Update(1, func(j *models.Job) bool {
		j.Progress = 30
		return true
	})
	assert.True(t, applied)
	assert.Equal(t, 30, got.Progress)

	// declining the update leaves the entry alone but still returns it
	got, applied = c.Update(1, func(j *models.Job) bool {
		j.Progress = 99
		return false
	})
	assert.False(t, applied)
	assert.Equal(t, 30, got.Progress)
	again, _ := c.Get(1)
	assert.Equal(t, 30, again.Progress)

	_, applied = c.Update(2, func(j *models.Job) bool { return true })
	assert.False(t, applied)
}

func TestCacheDeleteAndLen(t *testing.T) {
	c := NewJobCache()
	c.Set(models.Job{ID: 1})
	c.Set(models.Job{ID: 2})
	assert.Equal(t, 2, c.Len())

	c.Delete(1)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewJobCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := uint(i % 5)
		go func() {
			defer wg.Done()
			c.Set(models.Job{ID: id, Progress: int(id)})
		}()
		go func() {
			defer wg.Done()
			c.Get(id)
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, c.Len())
}
