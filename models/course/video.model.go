package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a lesson attached to a course, either inside a chapter or unfiled (ChapterID nil).
// Position is unique within its scope: (course, chapter) or (course, NULL).
type Video struct {
	ID          uuid.UUID  `json:"id" gorm:"type:varchar(36);primaryKey"`
	CourseID    uuid.UUID  `json:"course_id" gorm:"type:varchar(36);index;not null"`
	ChapterID   *uuid.UUID `json:"chapter_id" gorm:"type:varchar(36);index"`
	AuthorID    uuid.UUID  `json:"author_id" gorm:"type:varchar(36);not null"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Position    int        `json:"position" gorm:"not null;default:1"`

	VideoFilename   string `json:"video_filename"`
	VideoPath       string `json:"video_path"`
	CoverPath       string `json:"cover_path"`
	Duration        string `json:"duration" gorm:"default:'00:00'"`
	DurationSeconds int    `json:"duration_seconds" gorm:"default:0"`
	HasSubtitles    bool   `json:"has_subtitles" gorm:"default:false"`
	HasNotes        bool   `json:"has_notes" gorm:"default:false"`
	FileSize        int64  `json:"file_size" gorm:"default:0"`
	MimeType        string `json:"mime_type"`

	IsApproved bool       `json:"is_approved" gorm:"default:false"`
	ApprovedBy *uuid.UUID `json:"approved_by" gorm:"type:varchar(36)"`
	ApprovedAt *time.Time `json:"approved_at"`
	UploadedBy *uuid.UUID `json:"uploaded_by" gorm:"type:varchar(36)"`

	ViewsCount int64 `json:"views_count" gorm:"default:0"`
	LikesCount int64 `json:"likes_count" gorm:"default:0"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
