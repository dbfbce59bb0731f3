package provider

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/services"
	"github.com/genz27/LightSource/internal/utils"
)

// ProviderInfo is the public view of a provider. The API token never leaves
// the process.
type ProviderInfo struct {
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	Models       models.StringList `json:"models"`
	Capabilities models.StringList `json:"capabilities"`
	Enabled      bool              `json:"enabled"`
	Notes        string            `json:"notes,omitempty"`
}

// ListProviders returns the configured providers without credentials.
func ListProviders(c *gin.Context) {
	providers, err := services.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}

	infos := make([]ProviderInfo, 0, len(providers))
	for _, p := range providers {
		infos = append(infos, ProviderInfo{
			Name:         p.Name,
			DisplayName:  p.DisplayName,
			Models:       p.Models,
			Capabilities: p.Capabilities,
			Enabled:      p.Enabled,
			Notes:        p.Notes,
		})
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Providers retrieved successfully", infos))
}
