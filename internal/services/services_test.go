package services

import (
	"context"
	"sync"
	"testing"

	rediscache "github.com/yungbote/remission-backend/internal/clients/redis"
	"github.com/yungbote/remission-backend/internal/platform/apierr"
)

type cacheEntry struct {
	version string
	payload []byte
}

type memCache struct {
	mu          sync.Mutex
	entries     map[string]cacheEntry
	invalidated []string
}

func newMemCache() *memCache { return &memCache{entries: map[string]cacheEntry{}} }

func (c *memCache) Get(_ context.Context, kind rediscache.Kind, subjectID, version string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[string(kind)+":"+subjectID]
	if !ok || e.version != version {
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *memCache) Set(_ context.Context, kind rediscache.Kind, subjectID, version string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[string(kind)+":"+subjectID] = cacheEntry{version: version, payload: payload}
	return nil
}

func (c *memCache) Invalidate(_ context.Context, subjectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, string(rediscache.KindAnalysis)+":"+subjectID)
	delete(c.entries, string(rediscache.KindTrends)+":"+subjectID)
	c.invalidated = append(c.invalidated, subjectID)
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(kind rediscache.Kind, subjectID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[string(kind)+":"+subjectID]
	return ok
}

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("want api error %d/%s, got %v", status, code, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("api error: want=%d/%s got=%d/%s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool { return &v }
func strp(v string) *string { return &v }
