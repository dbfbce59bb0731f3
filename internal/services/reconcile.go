package services

import (
	"go.uber.org/zap"

	"github.com/genz27/LightSource/internal/models"
)

// reconcileStatusMap translates the status vocabularies seen across provider
// video APIs into the internal lifecycle. Unknown values map to the zero
// JobStatus and leave the job untouched.
var reconcileStatusMap = map[string]models.JobStatus{
	"succeeded":   models.JobStatusCompleted,
	"completed":   models.JobStatusCompleted,
	"processing":  models.JobStatusRunning,
	"running":     models.JobStatusRunning,
	"in_progress": models.JobStatusRunning,
	"queued":      models.JobStatusQueued,
	"pending":     models.JobStatusQueued,
	"failed":      models.JobStatusFailed,
	"error":       models.JobStatusFailed,
}

// ReconcileVideoJob polls the provider for a video job's live status and
// repairs both stores when the provider is ahead of us. Promotion to
// completed happens only once the output asset exists, so a completed job
// always has one. Returns the (possibly updated) job.
func ReconcileVideoJob(job *models.Job) (*models.Job, error) {
	if job.Status.IsTerminal() {
		return job, nil
	}
	videoID := job.Params.VendorVideoID()
	if videoID == "" {
		return job, nil
	}

	d := resolveDispatch(job)
	if d == nil || d.adapter.Video == nil {
		return job, nil
	}

	status, err := d.adapter.Video.GetVideo(videoID, d.creds)
	if err != nil {
		return job, err
	}

	mapped, known := reconcileStatusMap[status.Status]
	if !known {
		zap.L().Warn("unrecognized provider status",
			zap.Uint("job_id", job.ID), zap.String("status", status.Status))
		return job, nil
	}

	changed := false
	if status.Progress >= 0 && status.Progress > job.Progress && !job.Status.IsTerminal() {
		p := status.Progress
		if mapped != models.JobStatusCompleted && p > 95 {
			p = 95
		}
		job.Progress = p
		changed = true
	}

	switch mapped {
	case models.JobStatusCompleted:
		if status.ResultURL == "" {
			// provider says done but gave us nothing to store yet
			break
		}
		url, err := NormalizeOutputRef(job.ID, status.ResultURL)
		if err != nil {
			return job, err
		}
		url = MirrorOutput(job.ID, url)
		if _, _, err := CreateAssetForJob(job, url, models.JSON{
			"prompt":   job.Prompt,
			"model":    job.Model,
			"provider": job.Provider,
		}); err != nil {
			return job, err
		}
		recordProviderResponse(job, models.JSON{"status": status.Status, "raw": map[string]interface{}(status.Raw)})
		job.Status = models.JobStatusCompleted
		job.Progress = 100
		job.Error = ""
		changed = true
	case models.JobStatusFailed:
		recordProviderResponse(job, models.JSON{"status": status.Status, "error": status.ErrorMsg, "raw": map[string]interface{}(status.Raw)})
		job.Status = models.JobStatusFailed
		if status.ErrorMsg != "" {
			job.Error = status.ErrorMsg
		} else {
			job.Error = "provider reported failure"
		}
		changed = true
	case models.JobStatusRunning:
		if job.Status == models.JobStatusQueued {
			job.Status = models.JobStatusRunning
			changed = true
		}
	}

	if changed {
		saveJob(job)
	}
	return job, nil
}
