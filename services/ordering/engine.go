// Package ordering renumbers sibling chapters and videos and moves videos between scopes.
package ordering

import (
	"context"
	"fmt"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope names a set of siblings whose positions form 1..N.
type Scope struct {
	CourseID  uuid.UUID
	Chapters  bool       // chapters of the course; otherwise videos
	ChapterID *uuid.UUID // videos only; nil means unfiled
}

func ChapterScope(courseID uuid.UUID) Scope {
	return Scope{CourseID: courseID, Chapters: true}
}

func VideoScope(courseID uuid.UUID, chapterID *uuid.UUID) Scope {
	return Scope{CourseID: courseID, ChapterID: chapterID}
}

func (s Scope) String() string {
	switch {
	case s.Chapters:
		return fmt.Sprintf("chapters of %s", s.CourseID)
	case s.ChapterID == nil:
		return fmt.Sprintf("unfiled videos of %s", s.CourseID)
	default:
		return fmt.Sprintf("videos of %s/%s", s.CourseID, *s.ChapterID)
	}
}

// query restricts tx to the rows of the scope.
func (s Scope) query(tx *gorm.DB) *gorm.DB {
	if s.Chapters {
		return tx.Model(&courseModels.Chapter{}).Where("course_id = ?", s.CourseID)
	}
	q := tx.Model(&courseModels.Video{}).Where("course_id = ?", s.CourseID)
	if s.ChapterID == nil {
		return q.Where("chapter_id IS NULL")
	}
	return q.Where("chapter_id = ?", *s.ChapterID)
}

type Engine struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEngine(db *gorm.DB, log *logger.Logger) *Engine {
	return &Engine{db: db, log: log.With("service", "OrderMutationEngine")}
}

// Reorder gives ids[i] position i+1 inside one transaction. Each statement is
// scoped by id and parent, so an id outside the scope updates nothing and fails
// the whole batch. Siblings missing from ids keep their positions.
func (e *Engine) Reorder(ctx context.Context, scope Scope, ids []uuid.UUID) error {
	if err := validateIDs(ids); err != nil {
		return err
	}

	tx := e.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperr.Store(apperr.ReasonStoreFailure, tx.Error)
	}

	for i, id := range ids {
		res := scope.query(tx).Where("id = ?", id).Update("position", i+1)
		if res.Error != nil {
			tx.Rollback()
			e.log.Error("reorder statement failed", "scope", scope.String(), "id", id, "error", res.Error)
			return apperr.Store(apperr.ReasonStoreFailure, res.Error)
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			e.log.Warn("reorder id outside scope", "scope", scope.String(), "id", id)
			return apperr.NotFound(apperr.ReasonItemNotInScope, "Item not found in this scope")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return apperr.Store(apperr.ReasonStoreFailure, err)
	}
	return nil
}

// Relocate moves a video into destChapter (nil for unfiled) at position.
// Siblings in the source and destination scopes are not renumbered.
func (e *Engine) Relocate(ctx context.Context, courseID, videoID uuid.UUID, destChapter *uuid.UUID, position int) error {
	if position < 1 {
		return apperr.Validation(apperr.ReasonInvalidPosition, "order must be a positive integer")
	}
	db := e.db.WithContext(ctx)

	var videoCount int64
	if err := db.Model(&courseModels.Video{}).
		Where("id = ? AND course_id = ?", videoID, courseID).
		Count(&videoCount).Error; err != nil {
		return apperr.Store(apperr.ReasonStoreFailure, err)
	}
	if videoCount == 0 {
		return apperr.NotFound(apperr.ReasonVideoNotFound, "Video not found")
	}

	if destChapter != nil {
		var chapterCount int64
		if err := db.Model(&courseModels.Chapter{}).
			Where("id = ? AND course_id = ?", *destChapter, courseID).
			Count(&chapterCount).Error; err != nil {
			return apperr.Store(apperr.ReasonStoreFailure, err)
		}
		if chapterCount == 0 {
			return apperr.NotFound(apperr.ReasonChapterNotFound, "Chapter not found or doesn't belong to this course")
		}
	}

	res := db.Model(&courseModels.Video{}).
		Where("id = ? AND course_id = ?", videoID, courseID).
		Updates(map[string]interface{}{"chapter_id": destChapter, "position": position})
	if res.Error != nil {
		e.log.Error("relocate failed", "video_id", videoID, "error", res.Error)
		return apperr.Store(apperr.ReasonStoreFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		// Deleted between the check and the update.
		return apperr.NotFound(apperr.ReasonVideoNotFound, "Video not found")
	}
	return nil
}

// NextPosition returns MAX(position)+1 for the scope, or 1 when it is empty.
func NextPosition(ctx context.Context, db *gorm.DB, scope Scope) (int, error) {
	var maxPosition int
	err := scope.query(db.WithContext(ctx)).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error
	if err != nil {
		return 0, err
	}
	return maxPosition + 1, nil
}

// Compact renumbers every row of the scope to 1..N, keeping the current order.
// It is meant to run inside the caller's transaction after a delete.
func Compact(tx *gorm.DB, scope Scope) error {
	var ids []uuid.UUID
	if err := scope.query(tx).Order("position ASC, created_at ASC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	for i, id := range ids {
		if err := scope.query(tx).Where("id = ?", id).Update("position", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

func validateIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return apperr.Validation(apperr.ReasonEmptyList, "Order list is empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return apperr.Validation(apperr.ReasonInvalidID, "Invalid ID in order list")
		}
		if _, dup := seen[id]; dup {
			return apperr.Validation(apperr.ReasonDuplicateID, "Duplicate ID in order list")
		}
		seen[id] = struct{}{}
	}
	return nil
}

