package video

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/services"
)

// The video surface is served exclusively by the sora2 route. The requested
// model only selects the orientation; the job itself is pinned to the internal
// video model so provider resolution never falls through to a placeholder run.
const (
	videoProvider = "sora2"
	videoModel    = "sora2-video"
)

// CreateVideo accepts a provider-style video request and runs it through the
// regular job pipeline.
func CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.JobKindTextToVideo
	var extras map[string]interface{}
	if req.Image != "" {
		kind = models.JobKindImageToVideo
		extras = map[string]interface{}{"source_image_url": req.Image}
	}
	orientation := req.Orientation
	if orientation == "" {
		orientation = orientationFromModel(req.Model)
	}

	job, err := services.CreateJob(services.CreateJobInput{
		Prompt:   req.Prompt,
		Kind:     kind,
		Provider: videoProvider,
		Model:    videoModel,
		Params: models.JobParams{
			Orientation: orientation,
			Extras:      extras,
		},
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.EnqueueJob(job.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, VideoResponse{
		ID:       videoID(job.ID),
		Status:   job.Status.External(),
		Progress: job.Progress,
	})
}

// GetVideo returns the live status of a video job in the external vocabulary.
func GetVideo(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	info, err := services.GetJobStatus(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	c.JSON(http.StatusOK, VideoResponse{
		ID:       videoID(info.Job.ID),
		Status:   info.Status,
		Progress: info.Progress,
		VideoURL: info.ResultURL,
		Error:    info.Error,
	})
}

func videoID(jobID uint) string {
	return fmt.Sprintf("video_%d", jobID)
}

func parseVideoID(raw string) (uint, error) {
	raw = strings.TrimPrefix(raw, "video_")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

// orientationFromModel recovers the orientation from model names such as
// "sora-video-portrait" when the request omits it.
func orientationFromModel(model string) string {
	if strings.Contains(strings.ToLower(model), "portrait") {
		return "portrait"
	}
	return "landscape"
}
