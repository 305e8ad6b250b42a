package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course represents a learning course owned by an author
type Course struct {
	ID          uuid.UUID      `json:"id" gorm:"type:varchar(36);primaryKey"`
	AuthorID    uuid.UUID      `json:"author_id" gorm:"type:varchar(36);index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Level       string         `json:"level"`
	Language    string         `json:"language"`
	Tags        datatypes.JSON `json:"tags"`
	CoverPath   string         `json:"cover_path"`
	IsPublished bool           `json:"is_published" gorm:"default:false"`
	IsPublic    bool           `json:"is_public" gorm:"default:true"`

	// Derived counters, refreshed by downstream jobs.
	ChaptersCount int   `json:"chapters_count" gorm:"default:0"`
	VideosCount   int   `json:"videos_count" gorm:"default:0"`
	TotalViews    int64 `json:"total_views" gorm:"default:0"`
	TotalLikes    int64 `json:"total_likes" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
