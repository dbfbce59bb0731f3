package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/store"
)

func setupAssetTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.Migrator().DropTable(&models.Job{}, &models.Asset{})
	db.AutoMigrate(&models.Job{}, &models.Asset{})
	database.DB = db
	store.Cache = store.NewJobCache()
}

func TestCreateAssetForJobOnce(t *testing.T) {
	setupAssetTestDB()

	job := models.Job{Prompt: "a cat", Kind: models.JobKindTextToImage, Status: models.JobStatusRunning}
	database.DB.Create(&job)

	asset, created, err := CreateAssetForJob(&job, "https://cdn.example/a.png", models.JSON{"prompt": "a cat"})
	assert.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, job.AssetID)
	assert.Equal(t, asset.ID, *job.AssetID)
	assert.Equal(t, models.AssetTypeImage, asset.Type)

	// second attempt returns the existing asset
	again, created, err := CreateAssetForJob(&job, "https://cdn.example/b.png", nil)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, asset.ID, again.ID)
	assert.Equal(t, "https://cdn.example/a.png", again.URL)

	var count int64
	database.DB.Model(&models.Asset{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateAssetForJobConcurrent(t *testing.T) {
	setupAssetTestDB()

	job := models.Job{Prompt: "a cat", Kind: models.JobKindTextToImage, Status: models.JobStatusRunning}
	database.DB.Create(&job)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := job
			CreateAssetForJob(&j, "https://cdn.example/a.png", nil)
		}()
	}
	wg.Wait()

	var count int64
	database.DB.Model(&models.Asset{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssetPreviewURL(t *testing.T) {
	setupAssetTestDB()

	job := models.Job{Prompt: "a wave", Kind: models.JobKindTextToVideo, Status: models.JobStatusRunning,
		Params: models.JobParams{Orientation: "landscape"}}
	database.DB.Create(&job)

	asset, _, err := CreateAssetForJob(&job, "https://cdn.example/v.mp4", nil)
	assert.NoError(t, err)
	assert.Equal(t, models.AssetTypeVideo, asset.Type)
	assert.Equal(t, "https://cdn.example/v.mp4#preview", asset.PreviewURL)
}

func TestGetAssetUnknown(t *testing.T) {
	setupAssetTestDB()

	asset, err := GetAsset("asset_missing")
	assert.NoError(t, err)
	assert.Nil(t, asset)
}
