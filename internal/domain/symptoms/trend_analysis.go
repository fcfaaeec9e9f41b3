package symptoms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrendAnalysis is a stored trend summary for a subject's recent window.
type TrendAnalysis struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID   string         `gorm:"column:subject_id;size:10;not null;index" json:"user_id"`
	Summary     string         `gorm:"column:summary;type:text;not null" json:"summary"`
	Flags       datatypes.JSON `gorm:"column:flags" json:"flags"`
	WindowSize  int            `gorm:"column:window_size;not null" json:"window_size"`
	RecordCount int            `gorm:"column:record_count;not null" json:"record_count"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null;index" json:"generated_at"`
}

func (TrendAnalysis) TableName() string { return "trend_analysis" }

func (t *TrendAnalysis) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = time.Now().UTC()
	}
	return nil
}
