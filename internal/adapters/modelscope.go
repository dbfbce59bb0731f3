package adapters

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/utils"
)

// ModelScopeAdapter talks to ModelScope-style asynchronous task APIs:
// a submission call returns a task_id which is polled until the task
// reaches SUCCEED or FAILED.
type ModelScopeAdapter struct {
	// PollInterval defaults to 5s; tests shorten it.
	PollInterval time.Duration
}

const modelScopeDefaultBaseURL = "https://api-inference.modelscope.cn/"

// modelScopeModelMap maps internal model codes to real ModelScope model IDs.
var modelScopeModelMap = map[string]string{
	"qwen-image":      "Qwen/Qwen-Image",
	"qwen-image-edit": "Qwen/Qwen-Image-Edit-2509",
}

func (a *ModelScopeAdapter) pollInterval() time.Duration {
	if a.PollInterval > 0 {
		return a.PollInterval
	}
	return 5 * time.Second
}

// GenerateImage submits a text-to-image task and waits for its output.
func (a *ModelScopeAdapter) GenerateImage(prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error) {
	payload := map[string]interface{}{
		"model":  resolveModelScopeModel(model),
		"prompt": prompt,
	}
	if opts.Size != "" {
		payload["size"] = opts.Size
	}
	return a.submitAndWait(payload, creds)
}

// EditImage submits an image-edit task and waits for its output. Source
// images must be http(s) URLs.
func (a *ModelScopeAdapter) EditImage(sourceImages []string, prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error) {
	if len(sourceImages) == 0 {
		return nil, errors.New("edit requires at least one source image")
	}
	for _, u := range sourceImages {
		if !isHTTPURL(u) {
			return nil, fmt.Errorf("source image must be an http/https URL: %s", u)
		}
	}
	payload := map[string]interface{}{
		"model":     resolveModelScopeModel(model),
		"prompt":    prompt,
		"image_url": sourceImages,
	}
	if opts.Size != "" {
		payload["size"] = opts.Size
	}
	return a.submitAndWait(payload, creds)
}

func (a *ModelScopeAdapter) submitAndWait(payload map[string]interface{}, creds Credentials) (*ImageResult, error) {
	base := normalizeBaseURL(creds.BaseURL, modelScopeDefaultBaseURL)
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", base+"v1/images/generations", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	for k, v := range bearerHeaders(creds.APIToken) {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-ModelScope-Async-Mode", "true")

	client := utils.NewHTTPClient(60 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api returned error status: %d, body: %s", resp.StatusCode, string(b))
	}

	var submitted map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	taskID, _ := submitted["task_id"].(string)
	if taskID == "" {
		return nil, fmt.Errorf("could not find task_id in response: %v", submitted)
	}

	data, err := a.waitForTask(taskID, creds, base)
	if err != nil {
		return nil, err
	}

	outputs, _ := data["output_images"].([]interface{})
	if len(outputs) == 0 {
		return nil, fmt.Errorf("task succeeded but no output_images: %v", data)
	}
	imageURL, _ := outputs[0].(string)

	return &ImageResult{
		OutputRef: imageURL,
		Response: models.JSON{
			"provider":    "modelscope",
			"model":       payload["model"],
			"task_id":     taskID,
			"task_status": data["task_status"],
			"request":     payload,
			"raw":         data,
		},
	}, nil
}

func (a *ModelScopeAdapter) waitForTask(taskID string, creds Credentials, base string) (map[string]interface{}, error) {
	client := utils.NewHTTPClient(30 * time.Second)
	timeout := time.After(10 * time.Minute)
	ticker := time.NewTicker(a.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, errors.New("task polling timed out")
		case <-ticker.C:
			req, _ := http.NewRequest("GET", base+"v1/tasks/"+taskID, nil)
			for k, v := range bearerHeaders(creds.APIToken) {
				req.Header.Set(k, v)
			}
			req.Header.Set("X-ModelScope-Task-Type", "image_generation")

			resp, err := client.Do(req)
			if err != nil {
				// transient poll errors are retried on the next tick
				continue
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("task query returned status %d: %s", resp.StatusCode, string(body))
			}

			var data map[string]interface{}
			if err := json.Unmarshal(body, &data); err != nil {
				continue
			}
			switch status, _ := data["task_status"].(string); status {
			case "SUCCEED":
				return data, nil
			case "FAILED":
				return nil, fmt.Errorf("remote task failed: %v", data)
			}
		}
	}
}

func resolveModelScopeModel(model string) string {
	if real, ok := modelScopeModelMap[model]; ok {
		return real
	}
	return model
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
