package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/utils"
)

// SoraVideoAdapter talks to Sora2-style synchronous video REST APIs:
// CreateVideo registers a vendor-side task and returns its handle, GetVideo
// reads live status/progress/result for that handle.
type SoraVideoAdapter struct{}

const soraDefaultBaseURL = "https://api.sora2.example/"

// CreateVideo registers a video generation task with the provider.
func (a *SoraVideoAdapter) CreateVideo(prompt, model string, creds Credentials, opts VideoOptions) (*VideoHandle, error) {
	payload := map[string]interface{}{
		"model":  model,
		"prompt": prompt,
	}
	if opts.Image != "" {
		payload["image"] = opts.Image
	}
	body, _ := json.Marshal(payload)

	base := normalizeBaseURL(creds.BaseURL, soraDefaultBaseURL)
	req, err := http.NewRequest("POST", base+"v1/videos", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	for k, v := range bearerHeaders(creds.APIToken) {
		req.Header.Set(k, v)
	}

	client := utils.NewHTTPClient(30 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %v", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("api returned error status: %d, body: %v", resp.StatusCode, data)
	}

	videoID, _ := data["video_id"].(string)
	if videoID == "" {
		return nil, fmt.Errorf("could not find video_id in response: %v", data)
	}
	status, _ := data["status"].(string)
	if status == "" {
		status = "queued"
	}
	if opts.OnProgress != nil {
		if pct := normalizeProgress(data["progress"]); pct >= 0 {
			opts.OnProgress(pct)
		}
	}
	return &VideoHandle{VideoID: videoID, Status: status, Response: models.JSON(data)}, nil
}

// GetVideo fetches the live status of a vendor video task.
func (a *SoraVideoAdapter) GetVideo(videoID string, creds Credentials) (*VideoStatus, error) {
	base := normalizeBaseURL(creds.BaseURL, soraDefaultBaseURL)
	req, err := http.NewRequest("GET", base+"v1/videos/"+videoID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	for k, v := range bearerHeaders(creds.APIToken) {
		req.Header.Set(k, v)
	}

	client := utils.NewHTTPClient(30 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := data["detail"].(string)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("provider error: %s", msg)
	}

	resultURL, _ := data["video_url"].(string)
	if resultURL == "" {
		resultURL, _ = data["result_url"].(string)
	}
	status, _ := data["status"].(string)
	model, _ := data["model"].(string)
	taskID, _ := data["task_id"].(string)
	errMsg, _ := data["error_message"].(string)

	return &VideoStatus{
		Status:    status,
		Progress:  normalizeProgress(data["progress"]),
		ResultURL: resultURL,
		Model:     model,
		TaskID:    taskID,
		ErrorMsg:  errMsg,
		Raw:       models.JSON(data),
	}, nil
}

// normalizeProgress accepts 0-1 fractions, 0-100 numbers and numeric strings;
// returns -1 when nothing usable was reported.
func normalizeProgress(v interface{}) int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		if _, err := fmt.Sscanf(val, "%f", &f); err != nil {
			return -1
		}
	default:
		return -1
	}
	if f >= 0 && f <= 1 {
		return int(f * 100)
	}
	if f < 0 || f > 100 {
		return -1
	}
	return int(f)
}
