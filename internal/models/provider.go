package models

import (
	"strings"
	"time"
)

// Provider capability names as declared in provider configuration.
const (
	CapabilityImage     = "image"
	CapabilityImageEdit = "image-edit"
	CapabilityVideo     = "video"
)

// Provider is a configured third-party generation backend. The APIToken is a
// secret and is never serialized outward.
type Provider struct {
	Name         string     `gorm:"primarykey" json:"name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DisplayName  string     `json:"display_name"`
	Models       StringList `gorm:"type:jsonb" json:"models"`
	Capabilities StringList `gorm:"type:jsonb" json:"capabilities"`
	Enabled      bool       `json:"enabled"`
	Notes        string     `json:"notes,omitempty"`
	BaseURL      string     `json:"base_url"`
	APIToken     string     `json:"-"`
}

// TableName overrides the table name
func (Provider) TableName() string {
	return "providers"
}

// HasCapability reports whether the provider declares the given capability.
func (p *Provider) HasCapability(cap string) bool {
	return p.Capabilities.Contains(cap)
}

// FirstModelFor returns the first declared model matching the given
// capability intent. Edit models are recognized by an "edit" marker in the
// model name.
func (p *Provider) FirstModelFor(edit bool) string {
	for _, m := range p.Models {
		if edit == containsEdit(m) {
			return m
		}
	}
	if len(p.Models) > 0 {
		return p.Models[0]
	}
	return ""
}

func containsEdit(model string) bool {
	return strings.Contains(strings.ToLower(model), "edit")
}
