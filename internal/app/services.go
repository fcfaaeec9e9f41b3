package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/platform/logger"
	"github.com/yungbote/remission-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Symptoms  services.SymptomService
	Analysis  services.AnalysisService
	Scheduler *services.TrendScheduler
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	predictor, err := loadPredictor(ctx, log, clients.Models, cfg.Model.Name, cfg.Trends.Window)
	if err != nil {
		return Services{}, err
	}

	authService := services.NewAuthService(log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	symptomService := services.NewSymptomService(db, log, repos.User, repos.SymptomLog, clients.Cache)
	analysisService := services.NewAnalysisService(
		log,
		repos.User,
		repos.SymptomLog,
		repos.Prediction,
		repos.TrendAnalysis,
		clients.Cache,
		predictor,
		services.AnalysisOptions{Window: cfg.Trends.Window, Concurrency: cfg.Trends.Concurrency},
	)
	scheduler, err := services.NewTrendScheduler(log, analysisService, cfg.Trends.Cron, cfg.Trends.Timeout)
	if err != nil {
		return Services{}, fmt.Errorf("init trend scheduler: %w", err)
	}

	return Services{
		Auth:      authService,
		Symptoms:  symptomService,
		Analysis:  analysisService,
		Scheduler: scheduler,
	}, nil
}
