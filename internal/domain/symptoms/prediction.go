package symptoms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PredictionSourceRules = "rules"
	PredictionSourceModel = "model"
)

// Prediction records what was told to the subject for one symptom log.
type Prediction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID    string     `gorm:"column:subject_id;size:10;not null;index" json:"user_id"`
	SymptomLogID *uuid.UUID `gorm:"type:uuid;column:symptom_log_id;index" json:"symptom_log_id,omitempty"`

	Source      string         `gorm:"column:source;size:16;not null" json:"source"`
	Result      string         `gorm:"column:result;size:16;not null" json:"result"`
	Tier        int            `gorm:"column:tier;not null;default:0" json:"tier"`
	Probability *float64       `gorm:"column:probability" json:"probability,omitempty"`
	Insights    datatypes.JSON `gorm:"column:insights" json:"insights"`

	PredictedAt time.Time `gorm:"column:predicted_at;not null;index" json:"predicted_at"`
}

func (Prediction) TableName() string { return "predictions" }

func (p *Prediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PredictedAt.IsZero() {
		p.PredictedAt = time.Now().UTC()
	}
	return nil
}
