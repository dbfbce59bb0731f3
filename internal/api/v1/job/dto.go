package job

import "github.com/genz27/LightSource/internal/models"

type CreateJobRequest struct {
	Prompt         string                 `json:"prompt" binding:"required"`
	Kind           models.JobKind         `json:"kind" binding:"required"`
	Model          string                 `json:"model"`
	Provider       string                 `json:"provider"`
	IsPublic       bool                   `json:"is_public"`
	Orientation    string                 `json:"orientation"`
	Size           string                 `json:"size"`
	Seed           *int64                 `json:"seed"`
	Style          string                 `json:"style"`
	Guidance       *float64               `json:"guidance"`
	SourceImageURL string                 `json:"source_image_url"`
	Extras         map[string]interface{} `json:"extras"`
	OwnerID        *uint                  `json:"owner_id"`
}

func (r *CreateJobRequest) toParams() models.JobParams {
	extras := r.Extras
	if r.SourceImageURL != "" {
		if extras == nil {
			extras = map[string]interface{}{}
		}
		extras["source_image_url"] = r.SourceImageURL
	}
	return models.JobParams{
		Orientation: r.Orientation,
		Size:        r.Size,
		Seed:        r.Seed,
		Style:       r.Style,
		Guidance:    r.Guidance,
		Extras:      extras,
	}
}

type JobListResponse struct {
	Total int64        `json:"total"`
	Items []models.Job `json:"items"`
}

type JobStatusResponse struct {
	ID        uint   `json:"id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BatchStatusRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}
