package symptoms

import (
	"context"

	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type PredictionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.Prediction) (*types.Prediction, error)
	ListBySubject(ctx context.Context, tx *gorm.DB, subjectID string, limit int) ([]*types.Prediction, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	repoLog := baseLog.With("repo", "PredictionRepo")
	return &predictionRepo{db: db, log: repoLog}
}

func (r *predictionRepo) Create(ctx context.Context, tx *gorm.DB, p *types.Prediction) (*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListBySubject returns the newest predictions first.
func (r *predictionRepo) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID string, limit int) ([]*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("predicted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Prediction
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
