package structure

import (
	"context"
	"errors"

	"coursehub/apperr"
	courseModels "coursehub/models/course"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the read side the aggregator needs. Implementations must be safe for
// concurrent use because chapter fetches run in parallel.
type Store interface {
	Course(ctx context.Context, courseID uuid.UUID) (*courseModels.Course, error)
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	Chapters(ctx context.Context, courseID uuid.UUID) ([]courseModels.Chapter, error)
	UnfiledVideos(ctx context.Context, courseID uuid.UUID) ([]courseModels.Video, error)
	ChapterVideos(ctx context.Context, courseID, chapterID uuid.UUID) ([]courseModels.Video, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Course(ctx context.Context, courseID uuid.UUID) (*courseModels.Course, error) {
	var c courseModels.Course
	err := s.db.WithContext(ctx).Where("id = ?", courseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.ReasonCourseNotFound, "Course not found")
	}
	if err != nil {
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}
	return &c, nil
}

func (s *GormStore) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) Chapters(ctx context.Context, courseID uuid.UUID) ([]courseModels.Chapter, error) {
	var chapters []courseModels.Chapter
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&chapters).Error
	return chapters, err
}

func (s *GormStore) UnfiledVideos(ctx context.Context, courseID uuid.UUID) ([]courseModels.Video, error) {
	var videos []courseModels.Video
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND chapter_id IS NULL AND is_approved = ?", courseID, true).
		Order("position ASC").
		Find(&videos).Error
	return videos, err
}

func (s *GormStore) ChapterVideos(ctx context.Context, courseID, chapterID uuid.UUID) ([]courseModels.Video, error) {
	var videos []courseModels.Video
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND chapter_id = ? AND is_approved = ?", courseID, chapterID, true).
		Order("position ASC").
		Find(&videos).Error
	return videos, err
}
