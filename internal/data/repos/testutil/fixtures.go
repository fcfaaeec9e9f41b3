package testutil

import (
	"context"
	"testing"
	"time"

	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/risk"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, subjectID string) *types.User {
	tb.Helper()
	u := &types.User{SubjectID: subjectID}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSymptomLog(tb testing.TB, ctx context.Context, tx *gorm.DB, r risk.Record) *types.SymptomLog {
	tb.Helper()
	l := types.NewSymptomLog(r)
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed symptom log: %v", err)
	}
	return l
}

// Record builds a valid record; fields can be adjusted by the caller.
func Record(subjectID string, pain, stress int, sleep float64, exercise, meds bool, at time.Time) risk.Record {
	return risk.Record{
		SubjectID:      subjectID,
		PainLevel:      pain,
		StressLevel:    stress,
		SleepHours:     sleep,
		ExerciseDone:   exercise,
		TookMedication: meds,
		LoggedAt:       at,
	}
}
