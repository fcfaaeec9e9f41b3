package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/data/db"
	"github.com/yungbote/remission-backend/internal/http"
	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE before config is loaded.
func NewLogger(mode string) (*logger.Logger, error) {
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.OtelEnabled,
		ServiceName: "remission",
		Environment: cfg.Env,
		Version:     cfg.Version,
		SampleRatio: cfg.Observability.OtelSampler,
		Endpoint:    cfg.Observability.OtelEndpoint,
		Headers:     cfg.Observability.OtelHeaders,
		Insecure:    cfg.Observability.OtelInsecure,
	})
	metrics := observability.Init(log, cfg.Observability.MetricsEnabled, cfg.Observability.ScrapeInterval)

	theDB, err := db.Open(cfg.Database.DB(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = db.Close(theDB)
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		_ = db.Close(theDB)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = db.Close(theDB)
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = db.Close(theDB)
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: the trend scheduler and metric collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Services.Scheduler.Start(ctx); err != nil {
		return err
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Cfg.Redis.Addr != "" {
		a.Metrics.StartRedisCollector(ctx, a.Log, redisOptions(a.Cfg.Redis))
	}
	return nil
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting HTTP server", "addr", addr, "env", a.Cfg.Env)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Services.Scheduler.Stop()
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
