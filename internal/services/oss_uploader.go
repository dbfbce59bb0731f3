package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genz27/LightSource/config"
)

// MirrorOutput downloads a provider output and re-uploads it to the
// configured OSS bucket so assets outlive short-lived provider URLs. Best
// effort: any failure logs and returns the original URL unchanged. Local
// media paths and data URIs are left alone.
func MirrorOutput(jobID uint, url string) string {
	cfg, err := config.LoadConfig()
	if err != nil || !cfg.OSSEnabled {
		return url
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return url
	}

	mirrored, err := mirrorToOSS(cfg, jobID, url)
	if err != nil {
		zap.L().Warn("oss mirror failed, keeping provider url",
			zap.Uint("job_id", jobID), zap.Error(err))
		return url
	}
	return mirrored
}

func mirrorToOSS(cfg *config.Config, jobID uint, url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download output: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	ext := ".bin"
	if idx := strings.LastIndex(url, "."); idx != -1 {
		possible := url[idx:]
		if len(possible) < 6 && !strings.Contains(possible, "/") {
			ext = possible
		}
	}
	tmpName := filepath.Join(os.TempDir(), fmt.Sprintf("job_%d_%s%s", jobID, uuid.New().String(), ext))
	out, err := os.Create(tmpName)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpName)
		return "", err
	}
	defer os.Remove(tmpName)

	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSAccessSecret,
		oss.Timeout(60, 120))
	if err != nil {
		return "", fmt.Errorf("failed to create OSS client: %v", err)
	}
	bucket, err := client.Bucket(cfg.OSSBucketName)
	if err != nil {
		return "", fmt.Errorf("failed to get bucket: %v", err)
	}

	now := time.Now()
	objectKey := fmt.Sprintf("jobs/%d/%02d/%d%s", now.Year(), now.Month(), jobID, ext)
	if err := bucket.PutObjectFromFile(objectKey, tmpName); err != nil {
		return "", fmt.Errorf("upload failed: %v", err)
	}

	endpoint := cfg.OSSEndpoint
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", cfg.OSSBucketName, endpoint, objectKey), nil
}
