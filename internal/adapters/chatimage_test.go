package adapters

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatImageGenerateNonStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, false, payload["stream"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"content": "here is your image https://cdn.example/out.png enjoy",
				}},
			},
		})
	}))
	defer server.Close()

	a := &ChatImageAdapter{ProviderName: "sora"}
	result, err := a.GenerateImage("a cat", "sora-image",
		Credentials{APIToken: "test-token", BaseURL: server.URL}, ImageOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example/out.png", result.OutputRef)
	assert.Equal(t, "sora", result.Response["provider"])
}

func TestChatImageEditStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"content":"rendering 42%"}}]}`,
			`{"choices":[{"delta":{"content":[{"type":"image_url","image_url":{"url":"https://cdn.example/edit.png"}}]}}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var progress []int
	a := &ChatImageAdapter{ProviderName: "sora"}
	result, err := a.EditImage([]string{"https://cdn.example/src.png"}, "make it blue", "sora-image",
		Credentials{BaseURL: server.URL},
		ImageOptions{OnProgress: func(pct int) { progress = append(progress, pct) }})
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example/edit.png", result.OutputRef)
	assert.Contains(t, progress, 42)
}

func TestChatImageErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	a := &ChatImageAdapter{ProviderName: "sora"}
	_, err := a.GenerateImage("a cat", "sora-image", Credentials{BaseURL: server.URL}, ImageOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestChatImageEditRequiresSource(t *testing.T) {
	a := &ChatImageAdapter{ProviderName: "sora"}
	_, err := a.EditImage(nil, "make it blue", "sora-image", Credentials{}, ImageOptions{})
	assert.Error(t, err)
}

func TestFindMediaURLPrefersDataURI(t *testing.T) {
	text := "see https://example.com/page data:image/png;base64,aGVsbG8= done"
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", findMediaURL(text))
}

func TestCleanURLStripsTrailingPunctuation(t *testing.T) {
	assert.Equal(t, "https://cdn.example/a.png", cleanURL(`https://cdn.example/a.png")]`))
}
