package adapters

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genz27/LightSource/internal/models"
)

func TestSoraCreateVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/videos", r.URL.Path)
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, "sora-video-landscape", payload["model"])
		assert.Equal(t, "https://cdn.example/src.png", payload["image"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"video_id": "vid-1",
			"status":   "queued",
			"progress": 0.05,
		})
	}))
	defer server.Close()

	var reported int
	a := &SoraVideoAdapter{}
	handle, err := a.CreateVideo("a wave", "sora-video-landscape",
		Credentials{BaseURL: server.URL},
		VideoOptions{Image: "https://cdn.example/src.png", OnProgress: func(pct int) { reported = pct }})
	assert.NoError(t, err)
	assert.Equal(t, "vid-1", handle.VideoID)
	assert.Equal(t, "queued", handle.Status)
	assert.Equal(t, 5, reported)
}

func TestSoraCreateVideoMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	}))
	defer server.Close()

	a := &SoraVideoAdapter{}
	_, err := a.CreateVideo("a wave", "sora-video-landscape", Credentials{BaseURL: server.URL}, VideoOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "video_id")
}

func TestSoraGetVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/videos/vid-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "completed",
			"progress":  "100",
			"video_url": "https://cdn.example/out.mp4",
		})
	}))
	defer server.Close()

	a := &SoraVideoAdapter{}
	status, err := a.GetVideo("vid-1", Credentials{BaseURL: server.URL})
	assert.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, "https://cdn.example/out.mp4", status.ResultURL)
	assert.IsType(t, models.JSON{}, status.Raw)
}

func TestNormalizeProgress(t *testing.T) {
	assert.Equal(t, 45, normalizeProgress(0.45))
	assert.Equal(t, 80, normalizeProgress(float64(80)))
	assert.Equal(t, 80, normalizeProgress("80"))
	assert.Equal(t, 100, normalizeProgress(1.0))
	assert.Equal(t, -1, normalizeProgress(nil))
	assert.Equal(t, -1, normalizeProgress("done"))
	assert.Equal(t, -1, normalizeProgress(float64(150)))
}
