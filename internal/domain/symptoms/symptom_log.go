package symptoms

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/risk"
)

// SymptomLog is one persisted day of symptoms. Rows are append-only.
type SymptomLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID string    `gorm:"column:subject_id;size:10;not null;index:idx_symptom_logs_subject_logged,priority:1" json:"user_id"`

	PainLevel      int     `gorm:"column:pain_level;not null" json:"pain_level"`
	StressLevel    int     `gorm:"column:stress_level;not null" json:"stress_level"`
	SleepHours     float64 `gorm:"column:sleep_hours;not null" json:"sleep_hours"`
	ExerciseDone   bool    `gorm:"column:exercise_done;not null" json:"exercise_done"`
	ExerciseType   *string `gorm:"column:exercise_type;size:20" json:"exercise_type"`
	TookMedication bool    `gorm:"column:took_medication;not null" json:"took_medication"`

	DietTriggers    datatypes.JSON `gorm:"column:diet_triggers" json:"diet_triggers,omitempty"`
	DietNotes       string         `gorm:"column:diet_notes;type:text" json:"diet_notes,omitempty"`
	AdditionalNotes string         `gorm:"column:additional_notes;type:text" json:"additional_notes,omitempty"`

	LoggedAt  time.Time `gorm:"column:logged_at;not null;index:idx_symptom_logs_subject_logged,priority:2" json:"logged_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SymptomLog) TableName() string { return "symptom_logs" }

func (l *SymptomLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func NewSymptomLog(r risk.Record) *SymptomLog {
	l := &SymptomLog{
		SubjectID:       r.SubjectID,
		PainLevel:       r.PainLevel,
		StressLevel:     r.StressLevel,
		SleepHours:      r.SleepHours,
		ExerciseDone:    r.ExerciseDone,
		TookMedication:  r.TookMedication,
		DietNotes:       r.DietNotes,
		AdditionalNotes: r.AdditionalNotes,
		LoggedAt:        r.LoggedAt.UTC(),
	}
	if r.ExerciseType != nil {
		et := string(*r.ExerciseType)
		l.ExerciseType = &et
	}
	if len(r.DietTriggers) > 0 {
		raw, _ := json.Marshal(r.DietTriggers)
		l.DietTriggers = datatypes.JSON(raw)
	}
	return l
}

// Record converts the row back into the core type used by the rules.
func (l *SymptomLog) Record() risk.Record {
	r := risk.Record{
		SubjectID:       l.SubjectID,
		PainLevel:       l.PainLevel,
		StressLevel:     l.StressLevel,
		SleepHours:      l.SleepHours,
		ExerciseDone:    l.ExerciseDone,
		TookMedication:  l.TookMedication,
		LoggedAt:        l.LoggedAt,
		DietNotes:       l.DietNotes,
		AdditionalNotes: l.AdditionalNotes,
	}
	if l.ExerciseType != nil {
		if et, ok := risk.ParseExerciseType(*l.ExerciseType); ok {
			r.ExerciseType = &et
		}
	}
	if len(l.DietTriggers) > 0 {
		_ = json.Unmarshal(l.DietTriggers, &r.DietTriggers)
	}
	return r
}

func Records(logs []*SymptomLog) []risk.Record {
	out := make([]risk.Record, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Record())
	}
	return out
}
