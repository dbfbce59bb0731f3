package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/store"
)

func setupReconcileTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.Migrator().DropTable(&models.Job{}, &models.Asset{}, &models.Provider{})
	db.AutoMigrate(&models.Job{}, &models.Asset{}, &models.Provider{})
	database.DB = db
	store.Cache = store.NewJobCache()
}

func seedVideoProviderAndJob(baseURL, videoID string) models.Job {
	database.DB.Create(&models.Provider{
		Name:         "sora2",
		DisplayName:  "Sora2",
		Capabilities: models.StringList{models.CapabilityVideo},
		Enabled:      true,
		BaseURL:      baseURL,
	})
	job := models.Job{
		Prompt:   "a wave",
		Kind:     models.JobKindTextToVideo,
		Provider: "sora2",
		Status:   models.JobStatusRunning,
		Progress: 50,
		Params: models.JobParams{
			Orientation: "landscape",
			Extras: map[string]interface{}{
				"provider_response": map[string]interface{}{
					"raw": map[string]interface{}{"video_id": videoID},
				},
			},
		},
	}
	database.DB.Create(&job)
	store.Cache.Set(job)
	return job
}

func TestReconcileVideoJobPromotesToCompleted(t *testing.T) {
	setupReconcileTestDB()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/videos/vid-9", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "completed",
			"progress":  100,
			"video_url": "https://cdn.example/out.mp4",
		})
	}))
	defer server.Close()

	job := seedVideoProviderAndJob(server.URL, "vid-9")

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	assert.NotNil(t, updated.AssetID)

	// both stores were repaired
	var got models.Job
	database.DB.First(&got, job.ID)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	cached, _ := store.Cache.Get(job.ID)
	assert.Equal(t, models.JobStatusCompleted, cached.Status)

	// a second reconcile is a no-op on the terminal job
	again, err := ReconcileVideoJob(&got)
	assert.NoError(t, err)
	assert.Equal(t, *updated.AssetID, *again.AssetID)

	var assetCount int64
	database.DB.Model(&models.Asset{}).Count(&assetCount)
	assert.Equal(t, int64(1), assetCount)
}

func TestReconcileVideoJobUpdatesProgressWhileProcessing(t *testing.T) {
	setupReconcileTestDB()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "processing",
			"progress": 0.8,
		})
	}))
	defer server.Close()

	job := seedVideoProviderAndJob(server.URL, "vid-9")

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, updated.Status)
	assert.Equal(t, 80, updated.Progress)
	assert.Nil(t, updated.AssetID)
}

func TestReconcileVideoJobProgressNeverRegresses(t *testing.T) {
	setupReconcileTestDB()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "processing",
			"progress": 10,
		})
	}))
	defer server.Close()

	job := seedVideoProviderAndJob(server.URL, "vid-9")

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)
}

func TestReconcileVideoJobMarksFailed(t *testing.T) {
	setupReconcileTestDB()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "failed",
			"error_message": "content policy violation",
		})
	}))
	defer server.Close()

	job := seedVideoProviderAndJob(server.URL, "vid-9")

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, updated.Status)
	assert.Equal(t, "content policy violation", updated.Error)
	assert.Nil(t, updated.AssetID)
}

func TestReconcileVideoJobIgnoresUnknownStatus(t *testing.T) {
	setupReconcileTestDB()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "mystery"})
	}))
	defer server.Close()

	job := seedVideoProviderAndJob(server.URL, "vid-9")

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, updated.Status)
	assert.Equal(t, 50, updated.Progress)
}

func TestReconcileVideoJobWithoutHandleIsNoop(t *testing.T) {
	setupReconcileTestDB()

	job := models.Job{
		Prompt: "a wave", Kind: models.JobKindTextToVideo,
		Status: models.JobStatusRunning, Progress: 30,
		Params: models.JobParams{Orientation: "landscape"},
	}
	database.DB.Create(&job)

	updated, err := ReconcileVideoJob(&job)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, updated.Status)
}
