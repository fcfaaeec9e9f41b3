package symptoms

import (
	"context"
	"errors"

	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type TrendAnalysisRepo interface {
	Create(ctx context.Context, tx *gorm.DB, t *types.TrendAnalysis) (*types.TrendAnalysis, error)
	Latest(ctx context.Context, tx *gorm.DB, subjectID string) (*types.TrendAnalysis, error)
}

type trendAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrendAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) TrendAnalysisRepo {
	repoLog := baseLog.With("repo", "TrendAnalysisRepo")
	return &trendAnalysisRepo{db: db, log: repoLog}
}

func (r *trendAnalysisRepo) Create(ctx context.Context, tx *gorm.DB, t *types.TrendAnalysis) (*types.TrendAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *trendAnalysisRepo) Latest(ctx context.Context, tx *gorm.DB, subjectID string) (*types.TrendAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.TrendAnalysis
	err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("generated_at DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
