package services

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/genz27/LightSource/config"
	"github.com/genz27/LightSource/internal/models"
)

var dataURIRe = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// NormalizeOutputRef turns an adapter output reference into a storable URL.
// http(s) URLs pass through, base64 data URIs are materialized into local
// media storage, anything else is rejected.
func NormalizeOutputRef(jobID uint, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if m := dataURIRe.FindStringSubmatch(ref); m != nil {
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(m[2], "\n", ""))
		if err != nil {
			return "", fmt.Errorf("invalid base64 payload: %v", err)
		}
		ext := mimeExtensions[m[1]]
		if ext == "" {
			ext = ".png"
		}
		return saveMediaFile(jobID, "output"+ext, data)
	}
	return "", fmt.Errorf("no usable media reference")
}

// PlaceholderOutput writes an empty placeholder file for jobs that complete
// without an external provider call.
func PlaceholderOutput(jobID uint, kind models.JobKind) (string, error) {
	ext := ".png"
	if kind != models.JobKindTextToImage {
		ext = ".mp4"
	}
	return saveMediaFile(jobID, "output"+ext, []byte{})
}

func saveMediaFile(jobID uint, name string, data []byte) (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(cfg.StorageBase, fmt.Sprintf("job_%d", jobID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %v", err)
	}
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %v", err)
	}
	return fmt.Sprintf("%s/job_%d/%s", cfg.MediaPrefix, jobID, name), nil
}
