package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chapter represents a section within a course. Position is 1-based and dense per course.
type Chapter struct {
	ID            uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	CourseID      uuid.UUID `json:"course_id" gorm:"type:varchar(36);index;not null"`
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description"`
	Position      int       `json:"position" gorm:"not null;default:1"`
	VideosCount   int       `json:"videos_count" gorm:"default:0"`
	TotalDuration int       `json:"total_duration" gorm:"default:0"` // seconds
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ch *Chapter) BeforeCreate(tx *gorm.DB) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	return nil
}
