// Package adapters normalizes heterogeneous provider wire protocols
// (single-shot REST, streamed chat-style responses, poll-until-done task
// APIs) behind a uniform generate/edit/create-video/get-video contract.
package adapters

import (
	"strings"

	"github.com/genz27/LightSource/internal/models"
)

// Credentials carries the per-provider secret and endpoint, read from the
// provider configuration at dispatch time.
type Credentials struct {
	APIToken string
	BaseURL  string
}

// ImageOptions are optional knobs for image generation calls.
type ImageOptions struct {
	Size string
	// SourceImage is an optional inline source image for providers that
	// accept one on the generate call.
	SourceImage string
	// OnProgress receives provider-side progress hints in percent. It may be
	// invoked from the adapter's own goroutine; callers must treat it as a
	// foreign execution context.
	OnProgress func(percent int)
}

// ImageResult is the normalized outcome of an image call. OutputRef is an
// http(s) URL or a base64 data URI; Response is the raw provider response
// kept for audit.
type ImageResult struct {
	OutputRef string
	Response  models.JSON
}

// VideoOptions are optional knobs for video creation calls.
type VideoOptions struct {
	Image           string
	DurationSeconds int
	Resolution      string
	OnProgress      func(percent int)
}

// VideoHandle identifies an asynchronous provider-side video task.
type VideoHandle struct {
	VideoID  string
	Status   string
	Response models.JSON
}

// VideoStatus is the normalized live status of a provider video task.
type VideoStatus struct {
	Status    string
	Progress  int // -1 when the provider reported none
	ResultURL string
	Model     string
	TaskID    string
	ErrorMsg  string
	Raw       models.JSON
}

// ImageGenerator produces an image from a prompt.
type ImageGenerator interface {
	GenerateImage(prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error)
}

// ImageEditor produces an image from one or more source images plus a prompt.
type ImageEditor interface {
	EditImage(sourceImages []string, prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error)
}

// VideoGenerator drives an asynchronous provider video task.
type VideoGenerator interface {
	CreateVideo(prompt, model string, creds Credentials, opts VideoOptions) (*VideoHandle, error)
	GetVideo(videoID string, creds Credentials) (*VideoStatus, error)
}

// Adapter bundles the capability implementations a provider supports. Slots
// the provider does not support are nil.
type Adapter struct {
	Name  string
	Image ImageGenerator
	Edit  ImageEditor
	Video VideoGenerator
}

// Resolve maps a provider's declared name and capabilities to an Adapter.
// Returns nil when no generation capability is recognized. The selection
// happens once per dispatch, not per wire call.
func Resolve(p *models.Provider) *Adapter {
	if p == nil {
		return nil
	}

	switch p.Name {
	case "qwen", "modelscope":
		ms := &ModelScopeAdapter{}
		return &Adapter{Name: p.Name, Image: ms, Edit: ms}
	case "sora2":
		return &Adapter{Name: p.Name, Video: &SoraVideoAdapter{}}
	case "sora":
		ci := &ChatImageAdapter{ProviderName: p.Name}
		return &Adapter{Name: p.Name, Image: ci, Edit: ci}
	}

	if p.HasCapability(models.CapabilityVideo) {
		return &Adapter{Name: p.Name, Video: &SoraVideoAdapter{}}
	}
	if p.HasCapability(models.CapabilityImage) || p.HasCapability(models.CapabilityImageEdit) {
		ci := &ChatImageAdapter{ProviderName: p.Name}
		a := &Adapter{Name: p.Name, Image: ci}
		if p.HasCapability(models.CapabilityImageEdit) {
			a.Edit = ci
		}
		return a
	}
	return nil
}

func normalizeBaseURL(url, fallback string) string {
	if url == "" {
		url = fallback
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}

func bearerHeaders(apiToken string) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if apiToken != "" {
		h["Authorization"] = "Bearer " + apiToken
	}
	return h
}
