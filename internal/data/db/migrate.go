package db

import (
	"fmt"

	types "github.com/yungbote/remission-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureIndexes creates the composite read-path indexes. Statements are valid
// on both postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_predictions_subject_predicted", `CREATE INDEX IF NOT EXISTS idx_predictions_subject_predicted ON predictions(subject_id, predicted_at);`},
		{"idx_trend_analysis_subject_generated", `CREATE INDEX IF NOT EXISTS idx_trend_analysis_subject_generated ON trend_analysis(subject_id, generated_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
