package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/domain/symptoms"
)

// User is an anonymous subject identified by a generated 10-digit id.
// PasswordHash is empty when the subject was created without a password.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID    string         `gorm:"column:subject_id;size:10;not null;uniqueIndex" json:"user_id"`
	PasswordHash string         `gorm:"column:password_hash;not null;default:''" json:"-"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Logs owns the symptom_logs.subject_id foreign key.
	Logs []symptoms.SymptomLog `gorm:"foreignKey:SubjectID;references:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
