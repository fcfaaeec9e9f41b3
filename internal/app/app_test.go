package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/remission-backend/internal/platform/logger"
)

func TestNewWiresTestingProfile(t *testing.T) {
	cfg := DefaultConfig(EnvTesting)
	cfg.Model.Dir = t.TempDir()

	a, err := New(context.Background(), logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.Services.Scheduler.Enabled() {
		t.Fatalf("testing profile should not schedule trend refreshes")
	}

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("predict without subject: %d %s", rec.Code, rec.Body.String())
	}
}
