package main

import (
	"log"

	"github.com/genz27/LightSource/config"
	"github.com/genz27/LightSource/internal/api"
	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
	"github.com/genz27/LightSource/internal/services"
	"github.com/genz27/LightSource/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	router, err := api.NewRouter()
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}

	// Migrate the schema
	err = database.DB.AutoMigrate(
		&models.Job{},
		&models.Asset{},
		&models.Provider{},
		&models.Wallet{},
		&models.WalletTransaction{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if err := services.EnsureDefaultProviders(); err != nil {
		log.Fatalf("failed to seed providers: %v", err)
	}

	// Replay jobs left queued or mid-run by the previous process
	if err := services.RecoverPendingJobs(); err != nil {
		log.Fatalf("failed to recover pending jobs: %v", err)
	}

	go services.StartWorker()

	if err := router.Run(":8080"); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
