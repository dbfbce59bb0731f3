package job

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/genz27/LightSource/internal/services"
	"github.com/genz27/LightSource/internal/utils"
)

// SubmitJob validates and persists a new job, charges the owner, and pushes
// the id onto the queue.
func SubmitJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	if req.OwnerID != nil {
		if err := services.CheckBalanceForKind(*req.OwnerID, req.Kind); err != nil {
			if errors.Is(err, services.ErrInsufficientBalance) {
				c.JSON(http.StatusPaymentRequired, utils.NewErrorResponse(http.StatusPaymentRequired, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
			return
		}
	}

	job, err := services.CreateJob(services.CreateJobInput{
		Prompt:   req.Prompt,
		Kind:     req.Kind,
		Model:    req.Model,
		Provider: req.Provider,
		IsPublic: req.IsPublic,
		Params:   req.toParams(),
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	if err := services.ChargeForJob(job); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}

	if err := services.EnqueueJob(job.ID); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Job submitted successfully", job))
}

// ListJobs returns jobs newest-first with pagination.
func ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	jobs, total, err := services.ListJobs(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Jobs retrieved successfully", JobListResponse{
		Total: total,
		Items: jobs,
	}))
}

// ListActiveJobs returns queued and running jobs.
func ListActiveJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	jobs, err := services.ListActiveJobs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Active jobs retrieved successfully", jobs))
}

// GetJobDetail returns a single job by id.
func GetJobDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := services.GetJob(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Job not found"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Job retrieved successfully", job))
}

// GetJobStatus returns the job's live status view, including a provider poll
// for in-flight video jobs.
func GetJobStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	info, err := services.GetJobStatus(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Job not found"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Job status retrieved successfully", statusResponse(info)))
}

// BatchJobStatus returns the status view for a set of job ids. Unknown ids
// are skipped.
func BatchJobStatus(c *gin.Context) {
	var req BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	statuses := make([]JobStatusResponse, 0, len(req.IDs))
	for _, id := range req.IDs {
		info, err := services.GetJobStatus(id)
		if err != nil {
			continue
		}
		statuses = append(statuses, statusResponse(info))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Job statuses retrieved successfully", statuses))
}

// CancelJob raises the cancel flag on a job. Terminal jobs are returned
// unchanged.
func CancelJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := services.CancelJob(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Job not found"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Job canceled successfully", job))
}

func statusResponse(info *services.JobStatusInfo) JobStatusResponse {
	return JobStatusResponse{
		ID:        info.Job.ID,
		Status:    info.Status,
		Progress:  info.Progress,
		ResultURL: info.ResultURL,
		Error:     info.Error,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid job ID"))
		return 0, false
	}
	return uint(id), true
}
