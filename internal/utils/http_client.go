package utils

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport implements http.RoundTripper and logs outbound provider
// calls with their bodies, truncated for sanity.
type LoggingTransport struct {
	Transport http.RoundTripper
}

const maxLoggedBody = 2000

// RoundTrip executes a single HTTP transaction and logs request and response
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqBody := snapshotBody(&req.Body)

	start := time.Now()
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		zap.L().Warn("outbound request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	respBody := snapshotBody(&resp.Body)
	zap.L().Debug("outbound request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("status", resp.Status),
		zap.Duration("duration", duration),
		zap.String("request_body", reqBody),
		zap.String("response_body", respBody))

	return resp, nil
}

// snapshotBody reads and restores a body, returning a truncated copy for logs.
func snapshotBody(body *io.ReadCloser) string {
	if body == nil || *body == nil {
		return ""
	}
	raw, _ := io.ReadAll(*body)
	*body = io.NopCloser(bytes.NewBuffer(raw))
	if len(raw) > maxLoggedBody {
		return string(raw[:maxLoggedBody]) + "...(truncated)"
	}
	return string(raw)
}

// NewHTTPClient returns a new http.Client with logging enabled
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &LoggingTransport{
			Transport: http.DefaultTransport,
		},
	}
}
