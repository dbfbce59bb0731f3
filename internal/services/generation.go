package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/genz27/LightSource/internal/adapters"
	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/store"
)

// Heartbeat pacing. Progress climbs through the checkpoints once per tick
// while the provider works, and provider-reported progress can only push it
// further ahead. Package vars so tests can tighten the tick.
var (
	progressCheckpoints = []int{5, 15, 30, 50, 70, 85, 95}
	heartbeatInterval   = 1200 * time.Millisecond
)

type generationOutcome struct {
	result *adapters.ImageResult
	err    error
}

// dispatch is a resolved provider route for one job run.
type dispatch struct {
	provider *models.Provider
	adapter  *adapters.Adapter
	creds    adapters.Credentials
}

// ProcessJob runs one job to a terminal state. Panics are contained so a
// misbehaving adapter cannot take the worker loop down with it.
func ProcessJob(jobID uint) {
	job, ok := loadJobSnapshot(jobID)
	if !ok {
		zap.L().Warn("dequeued unknown job", zap.Uint("job_id", jobID))
		return
	}
	if job.Status.IsTerminal() {
		// canceled (or otherwise finished) while waiting in the queue
		return
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("job processing panicked",
				zap.Uint("job_id", jobID), zap.Any("panic", r))
			if j, ok := loadJobSnapshot(jobID); ok && !j.Status.IsTerminal() {
				markJobFailed(&j, models.JSON{"status": "failed", "error": fmt.Sprint(r)})
			}
		}
	}()

	runGeneration(&job)
}

func runGeneration(job *models.Job) {
	start := time.Now()
	job.Status = models.JobStatusRunning
	if job.Progress < 1 {
		job.Progress = 1
	}
	saveJob(job)
	zap.L().Info("job started",
		zap.Uint("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("provider", job.Provider))

	// Provider progress hints arrive from adapter goroutines; the cell only
	// ever moves forward.
	var providerProgress int64
	onProgress := func(percent int) {
		for {
			cur := atomic.LoadInt64(&providerProgress)
			if int64(percent) <= cur {
				return
			}
			if atomic.CompareAndSwapInt64(&providerProgress, cur, int64(percent)) {
				return
			}
		}
	}

	d := resolveDispatch(job)
	if d != nil && job.IsVideo() && d.adapter.Video == nil {
		// provider cannot produce video; run the placeholder path
		d = nil
	}

	var imageCh chan generationOutcome
	var videoHandle *adapters.VideoHandle

	switch {
	case d == nil:
		// no usable provider: the job still runs through its lifecycle and
		// completes with a placeholder output
	case job.IsVideo():
		handle, err := d.adapter.Video.CreateVideo(job.Prompt, videoModelFor(job), d.creds, adapters.VideoOptions{
			Image:      job.Params.SourceImageURL(),
			OnProgress: onProgress,
		})
		if err != nil {
			markJobFailed(job, models.JSON{"status": "failed", "error": err.Error()})
			return
		}
		videoHandle = handle
		// persist the vendor handle so status reads can poll after a restart
		recordProviderResponse(job, models.JSON{
			"status": handle.Status,
			"raw":    map[string]interface{}(handle.Response),
		})
		saveJob(job)
	default:
		imageCh = make(chan generationOutcome, 1)
		// the heartbeat loop rewrites *job, so the dispatch goroutine gets
		// its own snapshot
		snapshot := *job
		go func() {
			result, err := dispatchImage(&snapshot, d, onProgress)
			imageCh <- generationOutcome{result: result, err: err}
		}()
	}

	// Heartbeat: one checkpoint per tick, canceled jobs stop between ticks.
	for _, checkpoint := range progressCheckpoints {
		time.Sleep(heartbeatInterval)

		hint := int(atomic.LoadInt64(&providerProgress))
		current, active := advanceProgress(job.ID, checkpoint, hint)
		if !active {
			if current.Status == models.JobStatusCanceled {
				zap.L().Info("job canceled mid-run", zap.Uint("job_id", job.ID))
			}
			return
		}
		*job = current
	}

	// Await the provider outcome.
	var outputRef string
	var response models.JSON

	switch {
	case imageCh != nil:
		outcome := <-imageCh
		if outcome.err != nil {
			markJobFailed(job, models.JSON{"status": "failed", "error": outcome.err.Error()})
			return
		}
		outputRef = outcome.result.OutputRef
		response = outcome.result.Response
	case videoHandle != nil:
		status, err := d.adapter.Video.GetVideo(videoHandle.VideoID, d.creds)
		if err != nil {
			markJobFailed(job, models.JSON{"status": "failed", "error": err.Error()})
			return
		}
		// keep the vendor handle in the recorded response so later
		// reconciliation can still find it
		raw := map[string]interface{}(status.Raw)
		if raw == nil {
			raw = map[string]interface{}{}
		}
		if _, ok := raw["video_id"]; !ok {
			raw["video_id"] = videoHandle.VideoID
		}
		if reconcileStatusMap[status.Status] == models.JobStatusFailed {
			markJobFailed(job, models.JSON{"status": status.Status, "error": status.ErrorMsg, "raw": raw})
			return
		}
		if status.ResultURL == "" {
			// provider is still rendering: leave the job running and let
			// status reads reconcile it to completion later
			recordProviderResponse(job, models.JSON{"status": status.Status, "raw": raw})
			saveJob(job)
			return
		}
		outputRef = status.ResultURL
		response = models.JSON{"status": status.Status, "raw": raw}
	default:
		response = models.JSON{"status": "succeeded"}
	}

	// the cancel flag may have been raised while we were waiting
	if current, ok := loadJobSnapshot(job.ID); ok {
		if current.Status == models.JobStatusCanceled {
			zap.L().Info("job canceled before finalize", zap.Uint("job_id", job.ID))
			return
		}
		*job = current
	}

	recordProviderResponse(job, response)

	var url string
	var err error
	if outputRef != "" {
		url, err = NormalizeOutputRef(job.ID, outputRef)
	} else {
		url, err = PlaceholderOutput(job.ID, job.Kind)
	}
	if err != nil {
		markJobFailed(job, models.JSON{"status": "failed", "error": err.Error()})
		return
	}
	url = MirrorOutput(job.ID, url)

	asset, created, err := CreateAssetForJob(job, url, models.JSON{
		"prompt":   job.Prompt,
		"model":    job.Model,
		"provider": job.Provider,
	})
	if err != nil {
		markJobFailed(job, models.JSON{"status": "failed", "error": err.Error()})
		return
	}

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Error = ""
	saveJob(job)
	zap.L().Info("job completed",
		zap.Uint("job_id", job.ID),
		zap.String("asset_id", asset.ID),
		zap.Bool("asset_created", created),
		zap.Duration("duration", time.Since(start)))
}

// advanceProgress moves a running job forward to the given checkpoint in both
// stores. Both writes are conditional on the job still being running, so a
// cancel raised between ticks is never clobbered back to running. Returns the
// fresh snapshot and whether the job is still active.
func advanceProgress(jobID uint, checkpoint, hint int) (models.Job, bool) {
	if snap, ok := loadJobSnapshot(jobID); !ok || snap.Status != models.JobStatusRunning {
		return snap, false
	}

	current, applied := store.Cache.Update(jobID, func(j *models.Job) bool {
		if j.Status != models.JobStatusRunning {
			return false
		}
		p := checkpoint
		if hint > p {
			p = hint
		}
		if j.Progress > p {
			p = j.Progress
		}
		if p > 95 {
			p = 95
		}
		j.Progress = p
		return true
	})
	if !applied {
		return current, false
	}

	err := database.DB.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusRunning).
		Update("progress", current.Progress).Error
	if err != nil {
		zap.L().Error("durable job write failed",
			zap.Uint("job_id", jobID), zap.Error(err))
	}
	return current, true
}

// dispatchImage routes an image job to the edit or generate path. A job with
// a source image uses the edit path when the adapter has one, substituting
// the provider's edit model if the requested model is not an edit model.
func dispatchImage(job *models.Job, d *dispatch, onProgress func(int)) (*adapters.ImageResult, error) {
	source := job.Params.SourceImageURL()
	opts := adapters.ImageOptions{
		Size:       job.Params.Size,
		OnProgress: onProgress,
	}

	if source != "" && d.adapter.Edit != nil {
		model := job.Model
		if !strings.Contains(strings.ToLower(model), "edit") {
			if m := d.provider.FirstModelFor(true); m != "" {
				model = m
			}
		}
		return d.adapter.Edit.EditImage([]string{source}, job.Prompt, model, d.creds, opts)
	}

	if d.adapter.Image == nil {
		return nil, fmt.Errorf("provider %s cannot generate images", d.provider.Name)
	}
	opts.SourceImage = source
	return d.adapter.Image.GenerateImage(job.Prompt, job.Model, d.creds, opts)
}

// resolveDispatch looks up the job's provider configuration and maps it to an
// adapter. Returns nil when the job should run without an external call
// (no provider, disabled provider, or no recognized capability).
func resolveDispatch(job *models.Job) *dispatch {
	provider, err := GetProviderByName(job.Provider)
	if err != nil {
		zap.L().Error("provider lookup failed",
			zap.Uint("job_id", job.ID), zap.String("provider", job.Provider), zap.Error(err))
		return nil
	}
	if provider == nil || !provider.Enabled {
		return nil
	}
	adapter := adapters.Resolve(provider)
	if adapter == nil {
		return nil
	}
	return &dispatch{
		provider: provider,
		adapter:  adapter,
		creds: adapters.Credentials{
			APIToken: provider.APIToken,
			BaseURL:  provider.BaseURL,
		},
	}
}

func videoModelFor(job *models.Job) string {
	if job.Model != "" {
		return job.Model
	}
	orientation := job.Params.Orientation
	if orientation == "" {
		orientation = "landscape"
	}
	return "sora-video-" + orientation
}

// recordProviderResponse stashes the raw provider response in the job's
// extras for audit and later reconciliation.
func recordProviderResponse(job *models.Job, response models.JSON) {
	if job.Params.Extras == nil {
		job.Params.Extras = map[string]interface{}{}
	}
	job.Params.Extras["provider_response"] = map[string]interface{}(response)
}

// markJobFailed moves a job to failed, keeping progress at its last value and
// recording the provider response that explains the failure.
func markJobFailed(job *models.Job, response models.JSON) {
	recordProviderResponse(job, response)
	job.Status = models.JobStatusFailed
	if msg, ok := response["error"].(string); ok && msg != "" {
		job.Error = msg
	} else {
		job.Error = fmt.Sprintf("%v", map[string]interface{}(response))
	}
	saveJob(job)
	zap.L().Warn("job failed",
		zap.Uint("job_id", job.ID), zap.String("error", job.Error))
}
