package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// jobInput mirrors the fields checked before a job is allowed to exist.
// Validation failures are rejected at the API boundary and never reach the
// orchestrator.
type jobInput struct {
	Prompt      string   `validate:"required,min=1"`
	Kind        string   `validate:"required,oneof=text_to_image text_to_video image_to_video"`
	Orientation string   `validate:"omitempty,oneof=landscape portrait"`
	Guidance    *float64 `validate:"omitempty,gte=0,lte=20"`
}

// ValidateJobInput checks prompt, kind and params before job creation.
func ValidateJobInput(prompt string, kind JobKind, params JobParams) error {
	in := jobInput{
		Prompt:      prompt,
		Kind:        string(kind),
		Orientation: params.Orientation,
		Guidance:    params.Guidance,
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Video kinds need an orientation so the dispatch layer can pick a
	// resolution and model variant.
	if (kind == JobKindTextToVideo || kind == JobKindImageToVideo) && params.Orientation == "" {
		return errors.New("orientation is required for video kinds")
	}
	if kind == JobKindImageToVideo && params.SourceImageURL() == "" {
		return errors.New("source image required for image_to_video")
	}
	return nil
}
