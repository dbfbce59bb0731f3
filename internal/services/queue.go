package services

import (
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/store"
)

// JobQueueKey is the Redis list backing the job queue.
const JobQueueKey = "job_queue"

// EnqueueJob pushes a job id onto the tail of the queue.
func EnqueueJob(jobID uint) error {
	return database.RedisClient.RPush(database.Ctx, JobQueueKey, strconv.FormatUint(uint64(jobID), 10)).Err()
}

// StartWorker runs the single queue consumer. Jobs are processed strictly
// one at a time in FIFO order; a failing job never stops the loop.
func StartWorker() {
	zap.L().Info("job worker started", zap.String("queue", JobQueueKey))
	for {
		result, err := database.RedisClient.BLPop(database.Ctx, 0, JobQueueKey).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			zap.L().Error("queue pop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}
		id, err := strconv.ParseUint(result[1], 10, 64)
		if err != nil {
			zap.L().Warn("discarding malformed queue entry", zap.String("entry", result[1]))
			continue
		}
		ProcessJob(uint(id))
	}
}

// RecoverPendingJobs re-enqueues jobs that were queued or mid-run when the
// process last stopped. Running jobs are reset to queued; the worker replays
// them from the start.
func RecoverPendingJobs() error {
	var jobs []models.Job
	err := database.DB.
		Where("status IN ?", []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning}).
		Order("created_at asc").Find(&jobs).Error
	if err != nil {
		return err
	}
	for i := range jobs {
		job := &jobs[i]
		if job.Status == models.JobStatusRunning {
			job.Status = models.JobStatusQueued
			saveJob(job)
		} else {
			store.Cache.Set(*job)
		}
		if err := EnqueueJob(job.ID); err != nil {
			zap.L().Error("failed to re-enqueue job", zap.Uint("job_id", job.ID), zap.Error(err))
			continue
		}
		zap.L().Info("re-enqueued pending job",
			zap.Uint("job_id", job.ID), zap.String("kind", string(job.Kind)))
	}
	return nil
}
