package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

// TrendRefresher is the part of AnalysisService the scheduler drives.
type TrendRefresher interface {
	RefreshTrends(ctx context.Context) (int, error)
}

// TrendScheduler runs RefreshTrends on a cron schedule. An empty schedule
// disables it.
type TrendScheduler struct {
	log       *logger.Logger
	refresher TrendRefresher
	schedule  string
	timeout   time.Duration

	mu      sync.Mutex
	cron    *rcron.Cron
	running sync.Mutex
	cancel  context.CancelFunc
}

func NewTrendScheduler(log *logger.Logger, refresher TrendRefresher, schedule string, timeout time.Duration) (*TrendScheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule != "" {
		if _, err := rcron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid TREND_CRON %q: %w", schedule, err)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &TrendScheduler{
		log:       log.With("service", "TrendScheduler"),
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
	}, nil
}

func (s *TrendScheduler) Enabled() bool { return s != nil && s.schedule != "" }

func (s *TrendScheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := rcron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register trend refresh: %w", err)
	}
	c.Start()
	s.cron = c
	s.cancel = cancel
	s.log.Info("Trend refresh scheduled", "schedule", s.schedule)
	return nil
}

// RunOnce refreshes trends now. Overlapping runs are skipped.
func (s *TrendScheduler) RunOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Warn("Previous trend refresh still running, skipping")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	n, err := s.refresher.RefreshTrends(ctx)
	observability.Current().ObserveTrendRefresh(n, err, time.Since(start))
	if err != nil {
		s.log.Error("Trend refresh finished with errors", "refreshed", n, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.log.Info("Trend refresh finished", "refreshed", n, "duration_ms", time.Since(start).Milliseconds())
}

// Stop cancels a running refresh and waits for the cron loop to exit.
func (s *TrendScheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.cancel = nil
	s.log.Info("Trend refresh stopped")
}
