package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/yungbote/remission-backend/internal/clients/redis"
	"github.com/yungbote/remission-backend/internal/forecast"
	"github.com/yungbote/remission-backend/internal/platform/gcp"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type Clients struct {
	Cache  rediscache.AnalysisCache
	Bucket gcp.ArtifactBucket
	Models forecast.ModelStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	cache := rediscache.NewNoopCache()
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		c, err := rediscache.NewAnalysisCache(log, rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis analysis cache: %w", err)
		}
		cache = c
	}

	bucket, store, err := OpenModelStore(ctx, log, cfg)
	if err != nil {
		_ = cache.Close()
		return Clients{}, err
	}
	return Clients{Cache: cache, Bucket: bucket, Models: store}, nil
}

// OpenModelStore picks object storage when a model bucket is configured and
// the local model directory otherwise. The bucket is nil in the latter case.
func OpenModelStore(ctx context.Context, log *logger.Logger, cfg Config) (gcp.ArtifactBucket, forecast.ModelStore, error) {
	if strings.TrimSpace(cfg.Model.Bucket) == "" {
		return nil, forecast.FileStore{Dir: cfg.Model.Dir}, nil
	}
	storageCfg, err := gcp.ResolveStorageConfigFromEnv(cfg.Model.Bucket, cfg.Model.Prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve model storage: %w", err)
	}
	bucket, err := gcp.NewArtifactBucket(ctx, log, storageCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init model bucket: %w", err)
	}
	return bucket, forecast.BucketStore{Bucket: bucket}, nil
}

// loadPredictor returns nil when no trained model has been published yet.
// The configured trend window overrides the one saved with the model.
func loadPredictor(ctx context.Context, log *logger.Logger, store forecast.ModelStore, name string, window int) (forecast.Predictor, error) {
	m, err := store.Load(ctx, name)
	if errors.Is(err, forecast.ErrModelNotFound) {
		log.Warn("No trained model found, /api/predict will report model_unavailable", "model", name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", name, err)
	}
	m.Window = window
	log.Info("Loaded flare model",
		"model", name,
		"trained_at", m.TrainedAt,
		"accuracy", m.Report.Accuracy,
		"trees", len(m.Forest.Trees),
	)
	return m, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
}

func redisOptions(cfg RedisConfig) *goredis.Options {
	return &goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}
