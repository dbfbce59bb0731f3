package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JobKind defines what kind of media a job produces
type JobKind string

const (
	JobKindTextToImage  JobKind = "text_to_image"
	JobKindTextToVideo  JobKind = "text_to_video"
	JobKindImageToVideo JobKind = "image_to_video"
)

// JobStatus defines the lifecycle state of a job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// IsTerminal reports whether a job in this status will never change again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

// External returns the simplified 4-value status vocabulary exposed to API
// consumers. Canceled collapses into failed.
func (s JobStatus) External() string {
	switch s {
	case JobStatusQueued:
		return "queued"
	case JobStatusRunning:
		return "processing"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed, JobStatusCanceled:
		return "failed"
	}
	return string(s)
}

// JobParams carries generation parameters. Extras is an open map used for
// provider-specific side-channel data such as source image URLs and the raw
// provider response.
type JobParams struct {
	Orientation string                 `json:"orientation,omitempty"`
	Size        string                 `json:"size,omitempty"`
	Seed        *int64                 `json:"seed,omitempty"`
	Style       string                 `json:"style,omitempty"`
	Guidance    *float64               `json:"guidance,omitempty"`
	Extras      map[string]interface{} `json:"extras,omitempty"`
}

// Value implements the driver.Valuer interface
func (p JobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface
func (p *JobParams) Scan(value interface{}) error {
	if value == nil {
		*p = JobParams{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JobParams value:", value))
	}

	if len(bytes) == 0 {
		*p = JobParams{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// SourceImageURL returns the attached source image, if any.
func (p JobParams) SourceImageURL() string {
	if p.Extras == nil {
		return ""
	}
	if u, ok := p.Extras["source_image_url"].(string); ok {
		return u
	}
	return ""
}

// VendorVideoID digs the provider video handle out of the recorded provider
// response, if one was stored during dispatch.
func (p JobParams) VendorVideoID() string {
	if p.Extras == nil {
		return ""
	}
	resp, ok := p.Extras["provider_response"].(map[string]interface{})
	if !ok {
		return ""
	}
	raw, ok := resp["raw"].(map[string]interface{})
	if !ok {
		return ""
	}
	if id, ok := raw["video_id"].(string); ok {
		return id
	}
	return ""
}

// Job represents a tracked request to produce one media asset via a provider.
//
// Invariants maintained by the services layer:
//   - AssetID is non-nil iff Status == completed.
//   - Progress is non-decreasing while Status is queued or running; forced to
//     100 on completion and left at its last value on failure/cancel.
type Job struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Prompt    string    `json:"prompt"`
	Kind      JobKind   `json:"kind"`
	Model     string    `json:"model"`
	// Provider is empty when no external call is attempted.
	Provider string    `json:"provider"`
	IsPublic bool      `json:"is_public"`
	Params   JobParams `gorm:"type:jsonb" json:"params"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	AssetID  *string   `json:"asset_id"`
	Error    string    `json:"error,omitempty"`
	// OwnerID is nil for anonymous jobs, which are public by construction.
	OwnerID *uint `json:"owner_id,omitempty"`
}

// TableName overrides the table name
func (Job) TableName() string {
	return "jobs"
}

// IsVideo reports whether the job produces a video asset.
func (j *Job) IsVideo() bool {
	return j.Kind == JobKindTextToVideo || j.Kind == JobKindImageToVideo
}
