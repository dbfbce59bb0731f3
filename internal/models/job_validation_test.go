package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJobInput(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		kind    JobKind
		params  JobParams
		wantErr bool
	}{
		{"valid image", "a cat", JobKindTextToImage, JobParams{}, false},
		{"empty prompt", "", JobKindTextToImage, JobParams{}, true},
		{"unknown kind", "a cat", JobKind("audio"), JobParams{}, true},
		{"video without orientation", "a wave", JobKindTextToVideo, JobParams{}, true},
		{"video with orientation", "a wave", JobKindTextToVideo, JobParams{Orientation: "portrait"}, false},
		{"bad orientation", "a wave", JobKindTextToVideo, JobParams{Orientation: "square"}, true},
		{"image_to_video without source", "animate", JobKindImageToVideo, JobParams{Orientation: "landscape"}, true},
		{"image_to_video with source", "animate", JobKindImageToVideo, JobParams{
			Orientation: "landscape",
			Extras:      map[string]interface{}{"source_image_url": "https://cdn.example/src.png"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobInput(tt.prompt, tt.kind, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateJobInputGuidanceRange(t *testing.T) {
	ok := 7.5
	assert.NoError(t, ValidateJobInput("a cat", JobKindTextToImage, JobParams{Guidance: &ok}))

	tooHigh := 25.0
	assert.Error(t, ValidateJobInput("a cat", JobKindTextToImage, JobParams{Guidance: &tooHigh}))
}
