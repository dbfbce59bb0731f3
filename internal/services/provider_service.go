package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
)

// GetProviderByName returns the raw provider record including its secret
// token, for internal dispatch use only. Returns nil when unknown.
func GetProviderByName(name string) (*models.Provider, error) {
	if name == "" {
		return nil, nil
	}
	var provider models.Provider
	if err := database.DB.First(&provider, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

// ListProviders returns all configured providers ordered by name.
func ListProviders() ([]models.Provider, error) {
	var providers []models.Provider
	if err := database.DB.Order("name").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// EnsureDefaultProviders seeds the provider table on first boot so a fresh
// install can dispatch against the built-in channels.
func EnsureDefaultProviders() error {
	var count int64
	if err := database.DB.Model(&models.Provider{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Provider{
		{
			Name:         "qwen",
			DisplayName:  "Qwen",
			Models:       models.StringList{"qwen-image", "qwen-image-edit"},
			Capabilities: models.StringList{models.CapabilityImage, models.CapabilityImageEdit},
			Enabled:      true,
			Notes:        "Text/Image edit (ModelScope Qwen)",
			BaseURL:      "https://api-inference.modelscope.cn/",
		},
		{
			Name:         "sora2",
			DisplayName:  "Sora2",
			Models:       models.StringList{"sora2-video"},
			Capabilities: models.StringList{models.CapabilityVideo},
			Enabled:      true,
			Notes:        "Text/Image to video (landscape/portrait)",
			BaseURL:      "https://api.sora2.example",
		},
	}
	for i := range defaults {
		if err := database.DB.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
