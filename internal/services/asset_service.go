package services

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
)

// assetCreateMu serializes the "at most one asset per job" guard. Both the
// worker and the reconciliation read path create assets, so the asset_id
// check and the insert must not interleave.
var assetCreateMu sync.Mutex

func nextAssetID() string {
	return "asset_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// CreateAssetForJob creates the job's output asset exactly once. If the job
// already has one, the existing asset is returned with created=false. The
// job's asset_id is written to the durable store inside the guard; callers
// update the remaining job fields afterwards.
func CreateAssetForJob(job *models.Job, url string, meta models.JSON) (*models.Asset, bool, error) {
	assetCreateMu.Lock()
	defer assetCreateMu.Unlock()

	var current models.Job
	if err := database.DB.First(&current, job.ID).Error; err == nil && current.AssetID != nil {
		var existing models.Asset
		if err := database.DB.First(&existing, "id = ?", *current.AssetID).Error; err == nil {
			job.AssetID = current.AssetID
			return &existing, false, nil
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, false, err
	}
	asset := models.Asset{
		ID:         nextAssetID(),
		Type:       models.AssetTypeForKind(job.Kind),
		Provider:   job.Provider,
		URL:        url,
		PreviewURL: previewURLFor(job.Kind, url),
		Meta:       datatypes.JSON(metaJSON),
		IsPublic:   job.IsPublic,
		OwnerID:    job.OwnerID,
	}
	if err := database.DB.Create(&asset).Error; err != nil {
		return nil, false, err
	}
	if err := database.DB.Model(&models.Job{}).Where("id = ?", job.ID).
		Update("asset_id", asset.ID).Error; err != nil {
		return nil, false, err
	}
	job.AssetID = &asset.ID
	return &asset, true, nil
}

// GetAsset returns an asset by id, or nil when unknown.
func GetAsset(id string) (*models.Asset, error) {
	var asset models.Asset
	if err := database.DB.First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

func previewURLFor(kind models.JobKind, url string) string {
	if kind == models.JobKindTextToImage {
		return url
	}
	return url + "#preview"
}
