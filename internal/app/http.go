package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/http"
	httpH "github.com/yungbote/remission-backend/internal/http/handlers"
	httpMW "github.com/yungbote/remission-backend/internal/http/middleware"
	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Symptom  *httpH.SymptomHandler
	Analysis *httpH.AnalysisHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Auth:     httpH.NewAuthHandler(services.Auth),
		Symptom:  httpH.NewSymptomHandler(log, services.Symptoms),
		Analysis: httpH.NewAnalysisHandler(services.Analysis),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Observability.OtelEnabled {
		serviceName = "remission"
	}
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		AuthRequired:    cfg.AuthRequired,
		AuthMiddleware:  middleware.Auth,
		RateLimiter:     middleware.RateLimit,
		Metrics:         metrics,
		AuthHandler:     handlers.Auth,
		SymptomHandler:  handlers.Symptom,
		AnalysisHandler: handlers.Analysis,
		HealthHandler:   handlers.Health,
	})
}
