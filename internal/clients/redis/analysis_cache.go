package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type Kind string

const (
	KindAnalysis Kind = "analysis"
	KindTrends   Kind = "trends"
)

var kinds = []Kind{KindAnalysis, KindTrends}

// AnalysisCache holds serialized per-subject results tagged with the version
// of the data they were computed from (the id of the subject's latest log).
// Get only hits when the stored version matches, so a result computed from
// an older log is never served once a newer one exists. A miss is
// (nil, false, nil).
type AnalysisCache interface {
	Get(ctx context.Context, kind Kind, subjectID, version string) ([]byte, bool, error)
	Set(ctx context.Context, kind Kind, subjectID, version string, payload []byte) error
	Invalidate(ctx context.Context, subjectID string) error
	Close() error
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type analysisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewAnalysisCache(log *logger.Logger, opts Options) (AnalysisCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "remission"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &analysisCache{
		log:    log.With("service", "RedisAnalysisCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func cacheKey(prefix string, kind Kind, subjectID string) string {
	return prefix + ":" + string(kind) + ":" + subjectID
}

// Entries are hashes holding a single version field.
func (c *analysisCache) Get(ctx context.Context, kind Kind, subjectID, version string) ([]byte, bool, error) {
	raw, err := c.rdb.HGet(ctx, cacheKey(c.prefix, kind, subjectID), version).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *analysisCache) Set(ctx context.Context, kind Kind, subjectID, version string, payload []byte) error {
	key := cacheKey(c.prefix, kind, subjectID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, version, payload)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func (c *analysisCache) Invalidate(ctx context.Context, subjectID string) error {
	keys := make([]string, 0, len(kinds))
	for _, k := range kinds {
		keys = append(keys, cacheKey(c.prefix, k, subjectID))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *analysisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

type noopCache struct{}

// NewNoopCache never hits; used when REDIS_ADDR is unset.
func NewNoopCache() AnalysisCache { return noopCache{} }

func (noopCache) Get(context.Context, Kind, string, string) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, Kind, string, string, []byte) error         { return nil }
func (noopCache) Invalidate(context.Context, string) error                        { return nil }
func (noopCache) Close() error                                                    { return nil }
