package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	rediscache "github.com/yungbote/remission-backend/internal/clients/redis"
	"github.com/yungbote/remission-backend/internal/data/repos"
	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/forecast"
	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/apierr"
	"github.com/yungbote/remission-backend/internal/platform/dbctx"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"github.com/yungbote/remission-backend/internal/risk"
)

var ErrModelUnavailable = errors.New("no trained model is loaded")

type AnalysisResult struct {
	SubjectID      string    `json:"user_id"`
	Classification risk.Tag  `json:"classification"`
	Tier           int       `json:"tier"`
	Insights       []string  `json:"insights"`
	SymptomLogID   uuid.UUID `json:"symptom_log_id"`
	LoggedAt       time.Time `json:"logged_at"`
}

type AnalysisService interface {
	Analyze(dbc dbctx.Context, subjectID string) (*AnalysisResult, error)
	Trends(dbc dbctx.Context, subjectID string) (*risk.TrendSummary, error)
	Predict(dbc dbctx.Context, subjectID string) (*forecast.Prediction, error)
	Predictions(dbc dbctx.Context, subjectID string, limit int) ([]*types.Prediction, error)
	LatestTrend(dbc dbctx.Context, subjectID string) (*types.TrendAnalysis, error)
	RefreshTrends(ctx context.Context) (int, error)
}

type AnalysisOptions struct {
	Window      int
	Concurrency int
}

type analysisService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	logRepo     repos.SymptomLogRepo
	predRepo    repos.PredictionRepo
	trendRepo   repos.TrendAnalysisRepo
	cache       rediscache.AnalysisCache
	predictor   forecast.Predictor
	window      int
	concurrency int
}

// NewAnalysisService builds the analysis service. predictor may be nil, in
// which case Predict reports ErrModelUnavailable.
func NewAnalysisService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	logRepo repos.SymptomLogRepo,
	predRepo repos.PredictionRepo,
	trendRepo repos.TrendAnalysisRepo,
	cache rediscache.AnalysisCache,
	predictor forecast.Predictor,
	opts AnalysisOptions,
) AnalysisService {
	if cache == nil {
		cache = rediscache.NewNoopCache()
	}
	if opts.Window <= 0 {
		opts.Window = risk.DefaultWindow
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &analysisService{
		log:         log.With("service", "AnalysisService"),
		userRepo:    userRepo,
		logRepo:     logRepo,
		predRepo:    predRepo,
		trendRepo:   trendRepo,
		cache:       cache,
		predictor:   predictor,
		window:      opts.Window,
		concurrency: opts.Concurrency,
	}
}

func noData(subjectID string) error {
	return apierr.NotFound("no_data", risk.NotFoundError(fmt.Sprintf("symptom records for subject %s", subjectID)))
}

// cacheVersion tags cached results with the log they were computed from.
func cacheVersion(latest *types.SymptomLog) string { return latest.ID.String() }

func (s *analysisService) cached(ctx context.Context, kind rediscache.Kind, subjectID, version string, out any) bool {
	raw, ok, err := s.cache.Get(ctx, kind, subjectID, version)
	if err != nil {
		s.log.Warn("Cache read failed", "kind", kind, "subject_id", subjectID, "error", err)
		return false
	}
	observability.Current().ObserveCache(string(kind), ok)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("Cache entry unreadable", "kind", kind, "subject_id", subjectID, "error", err)
		return false
	}
	return true
}

func (s *analysisService) store(ctx context.Context, kind rediscache.Kind, subjectID, version string, v any) {
	raw, err := json.Marshal(v)
	if err == nil {
		err = s.cache.Set(ctx, kind, subjectID, version, raw)
	}
	if err != nil {
		s.log.Warn("Cache write failed", "kind", kind, "subject_id", subjectID, "error", err)
	}
}

func (s *analysisService) Analyze(dbc dbctx.Context, subjectID string) (*AnalysisResult, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	latest, err := s.logRepo.Latest(dbc.Ctx, dbc.Tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("latest symptom log: %w", err)
	}
	if latest == nil {
		return nil, noData(subjectID)
	}
	version := cacheVersion(latest)
	var hit AnalysisResult
	if s.cached(dbc.Ctx, rediscache.KindAnalysis, subjectID, version, &hit) {
		return &hit, nil
	}
	record := latest.Record()
	c, err := risk.Classify(record)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("stored record %s is invalid: %w", latest.ID, err))
	}
	result := &AnalysisResult{
		SubjectID:      subjectID,
		Classification: c.Tag,
		Tier:           c.Tier,
		Insights:       risk.Insights(record, c),
		SymptomLogID:   latest.ID,
		LoggedAt:       latest.LoggedAt,
	}

	insights, _ := json.Marshal(result.Insights)
	if _, err := s.predRepo.Create(dbc.Ctx, dbc.Tx, &types.Prediction{
		SubjectID:    subjectID,
		SymptomLogID: &latest.ID,
		Source:       types.PredictionSourceRules,
		Result:       string(c.Tag),
		Tier:         c.Tier,
		Insights:     insights,
	}); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	observability.Current().IncClassification(string(c.Tag), c.Tier)
	s.store(dbc.Ctx, rediscache.KindAnalysis, subjectID, version, result)
	return result, nil
}

func (s *analysisService) Trends(dbc dbctx.Context, subjectID string) (*risk.TrendSummary, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	latest, err := s.logRepo.Latest(dbc.Ctx, dbc.Tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("latest symptom log: %w", err)
	}
	if latest != nil {
		var hit risk.TrendSummary
		if s.cached(dbc.Ctx, rediscache.KindTrends, subjectID, cacheVersion(latest), &hit) {
			return &hit, nil
		}
	}
	summary, version, err := s.computeTrends(dbc, subjectID)
	if err != nil {
		return nil, err
	}
	if version != "" {
		s.store(dbc.Ctx, rediscache.KindTrends, subjectID, version, summary)
	}
	return summary, nil
}

// trendAnalyzer is the loaded model when there is one, else the rule table.
func (s *analysisService) trendAnalyzer() forecast.Predictor {
	if s.predictor != nil {
		return s.predictor
	}
	return forecast.RulePredictor{Window: s.window}
}

// computeTrends analyzes the latest window and stores the result when there
// was anything to analyze. version identifies the newest log in the window
// and is empty when there were no logs.
func (s *analysisService) computeTrends(dbc dbctx.Context, subjectID string) (*risk.TrendSummary, string, error) {
	logs, err := s.logRepo.ListBySubject(dbc.Ctx, dbc.Tx, subjectID, repos.OrderDesc, s.window)
	if err != nil {
		return nil, "", fmt.Errorf("list symptom logs: %w", err)
	}
	summary := s.trendAnalyzer().Insights(types.Records(logs))
	if summary.Records == 0 {
		return &summary, "", nil
	}
	flags, _ := json.Marshal(summary.Flags)
	if _, err := s.trendRepo.Create(dbc.Ctx, dbc.Tx, &types.TrendAnalysis{
		SubjectID:   subjectID,
		Summary:     summary.Narrative,
		Flags:       flags,
		WindowSize:  summary.Window,
		RecordCount: summary.Records,
	}); err != nil {
		return nil, "", fmt.Errorf("save trend analysis: %w", err)
	}
	return &summary, cacheVersion(logs[0]), nil
}

func (s *analysisService) Predict(dbc dbctx.Context, subjectID string) (*forecast.Prediction, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	if s.predictor == nil {
		return nil, apierr.Unavailable("model_unavailable", ErrModelUnavailable)
	}
	latest, err := s.logRepo.Latest(dbc.Ctx, dbc.Tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("latest symptom log: %w", err)
	}
	if latest == nil {
		return nil, noData(subjectID)
	}
	p, err := s.predictor.Predict(latest.Record())
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("predict: %w", err))
	}

	result := string(risk.TagRemission)
	if p.Flare {
		result = string(risk.TagFlare)
	}
	suggestions, _ := json.Marshal(p.Suggestions)
	prob := p.Probability
	if _, err := s.predRepo.Create(dbc.Ctx, dbc.Tx, &types.Prediction{
		SubjectID:    subjectID,
		SymptomLogID: &latest.ID,
		Source:       p.Source,
		Result:       result,
		Probability:  &prob,
		Insights:     suggestions,
	}); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	observability.Current().IncPrediction(p.Source, result)
	return &p, nil
}

// Predictions lists stored rule and model results, newest first.
func (s *analysisService) Predictions(dbc dbctx.Context, subjectID string, limit int) ([]*types.Prediction, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	out, err := s.predRepo.ListBySubject(dbc.Ctx, dbc.Tx, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

// LatestTrend returns the last persisted trend analysis, as written by Trends
// or the scheduled refresh, without recomputing it.
func (s *analysisService) LatestTrend(dbc dbctx.Context, subjectID string) (*types.TrendAnalysis, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	out, err := s.trendRepo.Latest(dbc.Ctx, dbc.Tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("latest trend analysis: %w", err)
	}
	if out == nil {
		return nil, noData(subjectID)
	}
	return out, nil
}

// RefreshTrends recomputes trends for every subject with logs. One subject
// failing does not stop the others; all failures are returned joined.
func (s *analysisService) RefreshTrends(ctx context.Context) (int, error) {
	subjects, err := s.userRepo.ListSubjectIDsWithLogs(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("list subjects: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
		done int
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, subjectID := range subjects {
		subjectID := subjectID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			summary, version, err := s.computeTrends(dbctx.Background(ctx), subjectID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("subject %s: %w", subjectID, err))
				return nil
			}
			done++
			if version != "" {
				s.store(ctx, rediscache.KindTrends, subjectID, version, summary)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	s.log.Info("Refreshed trends", "subjects", len(subjects), "refreshed", done, "failed", len(errs))
	return done, errors.Join(errs...)
}
