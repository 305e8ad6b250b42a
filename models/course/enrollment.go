package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment tracks a user's enrollment in a course with progress
type Enrollment struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID               uuid.UUID  `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID             uuid.UUID  `json:"course_id" gorm:"type:varchar(36);uniqueIndex:idx_enrollment_user_course;not null"`
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
	IsCompleted          bool       `json:"is_completed" gorm:"default:false"`
	LastAccessedAt       *time.Time `json:"last_accessed_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
