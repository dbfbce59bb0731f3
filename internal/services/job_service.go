package services

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/store"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// CreateJobInput carries everything the request layer collected for a new job.
type CreateJobInput struct {
	Prompt   string
	Kind     models.JobKind
	Model    string
	Provider string
	IsPublic bool
	Params   models.JobParams
	OwnerID  *uint
}

// CreateJob validates the input and persists a new queued job in both stores.
// Enqueueing and billing are the caller's responsibility: billing happens at
// the request-handling layer before the id enters the queue.
func CreateJob(in CreateJobInput) (*models.Job, error) {
	if err := models.ValidateJobInput(in.Prompt, in.Kind, in.Params); err != nil {
		return nil, err
	}

	provider := in.Provider
	if provider == "" {
		provider = inferProvider(in.Model)
	}
	// anonymous jobs are public by construction
	isPublic := in.IsPublic
	if in.OwnerID == nil {
		isPublic = true
	}

	job := models.Job{
		Prompt:   in.Prompt,
		Kind:     in.Kind,
		Model:    in.Model,
		Provider: provider,
		IsPublic: isPublic,
		Params:   in.Params,
		Status:   models.JobStatusQueued,
		Progress: 0,
		OwnerID:  in.OwnerID,
	}
	if err := database.DB.Create(&job).Error; err != nil {
		return nil, err
	}
	store.Cache.Set(job)
	return &job, nil
}

// GetJob returns the authoritative job record.
func GetJob(id uint) (*models.Job, error) {
	var job models.Job
	if err := database.DB.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs newest-first with pagination.
func ListJobs(page, pageSize int) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64

	db := database.DB.Model(&models.Job{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	if err := db.Offset(offset).Limit(pageSize).Order("created_at desc").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListActiveJobs returns queued and running jobs, newest-first.
func ListActiveJobs(limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := database.DB.
		Where("status IN ?", []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning}).
		Order("created_at desc").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// CancelJob sets a non-terminal job to canceled. The worker observes the flag
// cooperatively at its next heartbeat; canceling a terminal job is a no-op.
func CancelJob(id uint) (*models.Job, error) {
	job, ok := loadJobSnapshot(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return &job, nil
	}
	// progress stays at its last value
	job.Status = models.JobStatusCanceled
	saveJob(&job)
	return &job, nil
}

// JobStatusInfo is the combined read-path view of a job: durable record,
// cache freshness, and an optional live provider poll folded in.
type JobStatusInfo struct {
	Job       models.Job
	Status    string // external vocabulary
	Progress  int
	ResultURL string
	Error     string
}

// GetJobStatus combines the durable record, the in-process cache, and - for
// video jobs holding a vendor handle - a live provider poll that may repair
// the job on the way out.
func GetJobStatus(id uint) (*JobStatusInfo, error) {
	job, err := GetJob(id)
	if err != nil {
		return nil, err
	}

	// prefer the fresher of cache and durable record
	if cached, ok := store.Cache.Get(id); ok && cached.UpdatedAt.After(job.UpdatedAt) {
		job = &cached
	}

	if job.IsVideo() && !job.Status.IsTerminal() {
		if _, err := ReconcileVideoJob(job); err != nil {
			zap.L().Warn("provider reconciliation failed",
				zap.Uint("job_id", job.ID), zap.Error(err))
		}
	}

	info := &JobStatusInfo{
		Job:      *job,
		Status:   job.Status.External(),
		Progress: job.Progress,
		Error:    job.Error,
	}
	if job.AssetID != nil {
		if asset, err := GetAsset(*job.AssetID); err == nil && asset != nil {
			info.ResultURL = asset.URL
		}
	}
	return info, nil
}

// loadJobSnapshot resolves a job snapshot, reading the cache first and
// falling back to the durable store (e.g. after a process restart). The
// fallback repairs the cache.
func loadJobSnapshot(id uint) (models.Job, bool) {
	if job, ok := store.Cache.Get(id); ok {
		return job, true
	}
	var job models.Job
	if err := database.DB.First(&job, id).Error; err != nil {
		return models.Job{}, false
	}
	store.Cache.Set(job)
	return job, true
}

// saveJob writes a job snapshot to both stores: cache first, durable store
// second. A durable write failure is logged and retried at the next natural
// write point rather than failing the caller; the two copies converge on the
// next read.
func saveJob(job *models.Job) {
	store.Cache.Set(*job)
	if err := database.DB.Save(job).Error; err != nil {
		zap.L().Error("durable job write failed",
			zap.Uint("job_id", job.ID),
			zap.String("status", string(job.Status)),
			zap.Error(err))
	} else {
		store.Cache.Set(*job) // pick up gorm-managed timestamps
	}
}

func inferProvider(model string) string {
	m := strings.ToLower(model)
	switch {
	case m == "":
		return ""
	case strings.Contains(m, "sora-image"):
		return "sora"
	case strings.Contains(m, "sora"):
		return "sora2"
	case strings.Contains(m, "qwen"):
		return "qwen"
	}
	return ""
}
