package adapters

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/utils"
)

// ChatImageAdapter talks to OpenAI-chat-style image providers. The provider
// answers on /v1/chat/completions either with a single JSON body or with a
// streamed sequence of "data:" lines; the generated image arrives embedded in
// message content as an http(s) URL or a base64 data URI. Some streamed
// providers also emit textual "NN%" progress hints mid-stream.
type ChatImageAdapter struct {
	ProviderName string
}

const chatImageDefaultModel = "sora-image"

var (
	dataURLRe  = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=\r\n]+`)
	httpURLRe  = regexp.MustCompile(`https?://\S+`)
	progressRe = regexp.MustCompile(`(\d{1,3})%`)
)

// GenerateImage generates an image from a prompt, optionally conditioned on a
// source image. A source image switches the call into streaming mode, which
// is how these providers deliver edit-style responses.
func (a *ChatImageAdapter) GenerateImage(prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error) {
	return a.call(prompt, model, creds, opts, opts.SourceImage)
}

// EditImage edits the first source image according to the prompt.
func (a *ChatImageAdapter) EditImage(sourceImages []string, prompt, model string, creds Credentials, opts ImageOptions) (*ImageResult, error) {
	if len(sourceImages) == 0 {
		return nil, errors.New("edit requires at least one source image")
	}
	return a.call(prompt, model, creds, opts, sourceImages[0])
}

func (a *ChatImageAdapter) call(prompt, model string, creds Credentials, opts ImageOptions, sourceImage string) (*ImageResult, error) {
	if model == "" {
		model = chatImageDefaultModel
	}
	stream := sourceImage != ""

	var content interface{} = prompt
	if sourceImage != "" {
		content = []map[string]interface{}{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]string{"url": sourceImage}},
		}
	}

	payload := map[string]interface{}{
		"model":    model,
		"messages": []map[string]interface{}{{"role": "user", "content": content}},
		"stream":   stream,
	}
	if opts.Size != "" {
		payload["size"] = opts.Size
	}
	body, _ := json.Marshal(payload)

	base := normalizeBaseURL(creds.BaseURL, "http://localhost:8000/")
	req, err := http.NewRequest("POST", base+"v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	for k, v := range bearerHeaders(creds.APIToken) {
		req.Header.Set(k, v)
	}

	client := utils.NewHTTPClient(120 * time.Second)
	if stream {
		// the logging transport buffers whole bodies, which defeats streaming
		client = &http.Client{Timeout: 120 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api returned error status: %d, body: %s", resp.StatusCode, string(b))
	}

	providerResp := models.JSON{
		"provider": a.ProviderName,
		"model":    model,
		"request":  payload,
	}

	if stream {
		url, chunks, err := extractFromStream(resp.Body, opts.OnProgress)
		providerResp["raw"] = models.JSON{"stream": true, "chunks": chunks}
		if err != nil {
			return nil, err
		}
		if url == "" {
			return nil, errors.New("provider returned no image URL in stream")
		}
		return &ImageResult{OutputRef: url, Response: providerResp}, nil
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	providerResp["raw"] = data

	choices, _ := data["choices"].([]interface{})
	if len(choices) == 0 {
		return nil, errors.New("provider returned no choices")
	}
	choice, _ := choices[0].(map[string]interface{})
	message, _ := choice["message"].(map[string]interface{})
	url := extractMediaURLFromMessage(message)
	if url == "" {
		return nil, errors.New("provider returned no image URL in message content")
	}
	return &ImageResult{OutputRef: url, Response: providerResp}, nil
}

// extractFromStream scans SSE "data:" lines for the final media reference.
// Progress hints embedded in streamed text are forwarded through onProgress.
func extractFromStream(r io.Reader, onProgress func(int)) (string, []interface{}, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var chunks []interface{}
	var lastURL string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(line[5:])
		if payload == "[DONE]" {
			break
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			reportProgress(payload, onProgress)
			if url := findMediaURL(payload); url != "" {
				lastURL = url
			}
			continue
		}
		chunks = append(chunks, obj)

		choices, _ := obj["choices"].([]interface{})
		if len(choices) == 0 {
			continue
		}
		choice, _ := choices[0].(map[string]interface{})
		delta, _ := choice["delta"].(map[string]interface{})

		switch content := delta["content"].(type) {
		case []interface{}:
			if url := extractURLFromParts(content); url != "" {
				lastURL = url
			}
		case string:
			reportProgress(content, onProgress)
			if url := findMediaURL(content); url != "" {
				lastURL = url
			}
		}
		if lastURL != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return lastURL, chunks, fmt.Errorf("stream read failed: %v", err)
	}
	return lastURL, chunks, nil
}

func reportProgress(text string, onProgress func(int)) {
	if onProgress == nil {
		return
	}
	m := progressRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	if pct, err := strconv.Atoi(m[1]); err == nil && pct >= 0 && pct <= 100 {
		onProgress(pct)
	}
}

func extractMediaURLFromMessage(message map[string]interface{}) string {
	switch content := message["content"].(type) {
	case []interface{}:
		if url := extractURLFromParts(content); url != "" {
			return url
		}
	case string:
		return findMediaURL(content)
	}
	return ""
}

func extractURLFromParts(parts []interface{}) string {
	for _, p := range parts {
		part, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		switch part["type"] {
		case "image_url":
			switch entry := part["image_url"].(type) {
			case map[string]interface{}:
				if url, ok := entry["url"].(string); ok {
					return cleanURL(url)
				}
			case string:
				return cleanURL(entry)
			}
		case "text":
			if text, ok := part["text"].(string); ok {
				if url := findMediaURL(text); url != "" {
					return url
				}
			}
		}
	}
	return ""
}

func findMediaURL(text string) string {
	if m := dataURLRe.FindString(text); m != "" {
		return cleanURL(m)
	}
	if m := httpURLRe.FindString(text); m != "" {
		return cleanURL(m)
	}
	return ""
}

func cleanURL(url string) string {
	return strings.TrimRight(url, ")].>,\"'")
}
