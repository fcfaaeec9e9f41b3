package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	rediscache "github.com/yungbote/remission-backend/internal/clients/redis"
	"github.com/yungbote/remission-backend/internal/data/repos"
	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/apierr"
	"github.com/yungbote/remission-backend/internal/platform/dbctx"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"github.com/yungbote/remission-backend/internal/risk"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

type SymptomService interface {
	Log(dbc dbctx.Context, draft risk.Draft) (*types.SymptomLog, error)
	History(dbc dbctx.Context, subjectID string, limit int) ([]*types.SymptomLog, error)
	List(dbc dbctx.Context, subjectID string) ([]*types.SymptomLog, error)
}

type symptomService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	logRepo  repos.SymptomLogRepo
	cache    rediscache.AnalysisCache
	now      func() time.Time
}

func NewSymptomService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	logRepo repos.SymptomLogRepo,
	cache rediscache.AnalysisCache,
) SymptomService {
	if cache == nil {
		cache = rediscache.NewNoopCache()
	}
	return &symptomService{
		db:       db,
		log:      log.With("service", "SymptomService"),
		userRepo: userRepo,
		logRepo:  logRepo,
		cache:    cache,
		now:      time.Now,
	}
}

// inTx runs fn in the caller's transaction when there is one, else in a new one.
func inTx(db *gorm.DB, dbc dbctx.Context, fn func(tx *gorm.DB) error) error {
	if dbc.Tx != nil {
		return fn(dbc.Tx)
	}
	return db.WithContext(dbc.Ctx).Transaction(fn)
}

func validationError(err error) error {
	if errors.Is(err, risk.ErrValidation) {
		return apierr.BadRequest("validation_failed", err)
	}
	return err
}

func unknownSubject(subjectID string) error {
	return apierr.NotFound("unknown_subject", risk.NotFoundError(fmt.Sprintf("subject %s", subjectID)))
}

func (s *symptomService) Log(dbc dbctx.Context, draft risk.Draft) (*types.SymptomLog, error) {
	record, err := draft.Record(s.now().UTC())
	if err != nil {
		return nil, validationError(err)
	}

	var created *types.SymptomLog
	err = inTx(s.db, dbc, func(tx *gorm.DB) error {
		exists, err := s.userRepo.SubjectExists(dbc.Ctx, tx, record.SubjectID)
		if err != nil {
			return fmt.Errorf("check subject: %w", err)
		}
		if !exists {
			return unknownSubject(record.SubjectID)
		}
		created, err = s.logRepo.Create(dbc.Ctx, tx, types.NewSymptomLog(record))
		if err != nil {
			return fmt.Errorf("create symptom log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(dbc.Ctx, record.SubjectID); err != nil {
		s.log.Warn("Cache invalidation failed", "subject_id", record.SubjectID, "error", err)
	}
	observability.Current().IncSymptomLog(record.ExerciseDone)
	s.log.Debug("Logged symptoms", "subject_id", record.SubjectID, "id", created.ID)
	return created, nil
}

func requireSubject(subjectID string) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", apierr.BadRequest("invalid_request", errors.New("user_id is required"))
	}
	return subjectID, nil
}

func (s *symptomService) History(dbc dbctx.Context, subjectID string, limit int) ([]*types.SymptomLog, error) {
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
	logs, err := s.logRepo.ListBySubject(dbc.Ctx, dbc.Tx, subjectID, repos.OrderDesc, limit)
	if err != nil {
		return nil, fmt.Errorf("list symptom logs: %w", err)
	}
	return logs, nil
}

func (s *symptomService) List(dbc dbctx.Context, subjectID string) ([]*types.SymptomLog, error) {
	subjectID, err := requireSubject(subjectID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListBySubject(dbc.Ctx, dbc.Tx, subjectID, repos.OrderAsc, 0)
	if err != nil {
		return nil, fmt.Errorf("list symptom logs: %w", err)
	}
	return logs, nil
}
