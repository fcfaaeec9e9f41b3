package user

import (
	"context"

	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []string) ([]*types.User, error)
	SubjectExists(ctx context.Context, tx *gorm.DB, subjectID string) (bool, error)
	ListSubjectIDsWithLogs(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (ur *userRepo) GetBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(subjectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("subject_id IN ?", subjectIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) SubjectExists(ctx context.Context, tx *gorm.DB, subjectID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("subject_id = ?", subjectID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) ListSubjectIDsWithLogs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.SymptomLog{}).
		Distinct("subject_id").
		Order("subject_id ASC").
		Pluck("subject_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
