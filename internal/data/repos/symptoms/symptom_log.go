package symptoms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

type SymptomLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, log *types.SymptomLog) (*types.SymptomLog, error)
	Latest(ctx context.Context, tx *gorm.DB, subjectID string) (*types.SymptomLog, error)
	ListBySubject(ctx context.Context, tx *gorm.DB, subjectID string, order Order, limit int) ([]*types.SymptomLog, error)
}

type symptomLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSymptomLogRepo(db *gorm.DB, baseLog *logger.Logger) SymptomLogRepo {
	repoLog := baseLog.With("repo", "SymptomLogRepo")
	return &symptomLogRepo{db: db, log: repoLog}
}

// Create appends a log. logged_at never goes backwards for a subject: a row
// stamped earlier than the current latest is moved up to it. The subject's
// users row is locked first so concurrent inserts for one subject serialize.
func (r *symptomLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.SymptomLog) (*types.SymptomLog, error) {
	if entry == nil {
		return nil, fmt.Errorf("symptom log is nil")
	}
	if tx == nil {
		var created *types.SymptomLog
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			created, err = r.Create(ctx, tx, entry)
			return err
		})
		return created, err
	}

	// A missing subject is left to the foreign key.
	if err := lockSubject(ctx, tx, entry.SubjectID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lock subject: %w", err)
	}
	latest, err := r.Latest(ctx, tx, entry.SubjectID)
	if err != nil {
		return nil, err
	}
	if latest != nil && entry.LoggedAt.Before(latest.LoggedAt) {
		r.log.Debug("Clamped logged_at to latest", "subject_id", entry.SubjectID, "latest", latest.LoggedAt)
		entry.LoggedAt = latest.LoggedAt
	}

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// lockSubject takes a row lock on the subject's users row. sqlite has no row
// locks; there the database write lock already serializes inserts.
func lockSubject(ctx context.Context, tx *gorm.DB, subjectID string) *gorm.DB {
	q := tx.WithContext(ctx).Model(&types.User{})
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row struct{ ID uuid.UUID }
	return q.Select("id").Where("subject_id = ?", subjectID).Take(&row)
}

func (r *symptomLogRepo) Latest(ctx context.Context, tx *gorm.DB, subjectID string) (*types.SymptomLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var out types.SymptomLog
	err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("logged_at DESC").
		Order("created_at DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBySubject returns up to limit logs (limit <= 0 means all). Ties on
// logged_at fall back to insertion order.
func (r *symptomLogRepo) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID string, order Order, limit int) ([]*types.SymptomLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}
	q := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("logged_at " + dir).
		Order("created_at " + dir)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var results []*types.SymptomLog
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
