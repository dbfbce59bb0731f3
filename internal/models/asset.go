package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssetType defines the media type of an asset
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeVideo AssetType = "video"
	AssetTypeAudio AssetType = "audio"
)

// Asset is the durable output artifact produced by a completed job. It is
// created exactly once per completed job and immutable afterwards except for
// the public flag.
type Asset struct {
	ID         string    `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Type       AssetType `json:"type"`
	Provider   string    `json:"provider"`
	URL        string    `json:"url"`
	PreviewURL string    `json:"preview_url"`
	// Meta carries generation parameters and the full provider response for audit.
	Meta     datatypes.JSON `json:"meta"`
	IsPublic bool           `json:"is_public"`
	OwnerID  *uint          `json:"owner_id,omitempty"`
}

// TableName overrides the table name
func (Asset) TableName() string {
	return "assets"
}

// AssetTypeForKind maps a job kind to the asset type it produces.
func AssetTypeForKind(kind JobKind) AssetType {
	if kind == JobKindTextToImage {
		return AssetTypeImage
	}
	return AssetTypeVideo
}
