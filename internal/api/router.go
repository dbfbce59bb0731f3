package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/genz27/LightSource/config"
	"github.com/genz27/LightSource/internal/api/v1/job"
	"github.com/genz27/LightSource/internal/api/v1/provider"
	"github.com/genz27/LightSource/internal/api/v1/video"
	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/middleware"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Materialized media files
	router.Static(cfg.MediaPrefix, cfg.StorageBase)

	// API v1
	v1 := router.Group("/api/v1")
	{
		job.RegisterRoutes(v1)
		provider.RegisterRoutes(v1)
	}

	// Provider-style video surface with the external status vocabulary
	video.RegisterRoutes(router.Group("/v1"))

	return router, nil
}
