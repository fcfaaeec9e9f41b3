package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/remission-backend/internal/http/handlers"
	httpMW "github.com/yungbote/remission-backend/internal/http/middleware"
	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// AuthRequired rejects /api data routes without a valid token.
	AuthRequired bool

	AuthMiddleware *httpMW.AuthMiddleware
	RateLimiter    *httpMW.RateLimiter
	Metrics        *observability.Metrics

	AuthHandler     *httpH.AuthHandler
	SymptomHandler  *httpH.SymptomHandler
	AnalysisHandler *httpH.AnalysisHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/generate-user", cfg.RateLimiter.Middleware(), cfg.AuthHandler.GenerateUser)
			api.POST("/login", cfg.RateLimiter.Middleware(), cfg.AuthHandler.Login)
		}
	}

	data := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			if cfg.AuthRequired {
				data.Use(cfg.AuthMiddleware.RequireAuth())
			} else {
				data.Use(cfg.AuthMiddleware.OptionalAuth())
			}
		}

		// Symptoms
		if cfg.SymptomHandler != nil {
			data.POST("/log-symptoms", cfg.RateLimiter.Middleware(), cfg.SymptomHandler.LogSymptoms)
			data.GET("/history/:subject_id", cfg.SymptomHandler.History)
			data.GET("/symptom-logs", cfg.SymptomHandler.SymptomLogs)
		}

		// Analysis
		if cfg.AnalysisHandler != nil {
			data.POST("/analysis", cfg.AnalysisHandler.Analyze)
			data.POST("/bot-analysis", cfg.AnalysisHandler.Analyze)
			data.GET("/trends/:subject_id", cfg.AnalysisHandler.Trends)
			data.POST("/predict", cfg.AnalysisHandler.Predict)
			data.GET("/predictions/:subject_id", cfg.AnalysisHandler.Predictions)
			data.GET("/trend-analysis/:subject_id", cfg.AnalysisHandler.LatestTrend)
		}
	}

	return r
}
