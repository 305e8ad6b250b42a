package controllers

import (
	"errors"

	"coursehub/apperr"
	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/services/ordering"
	"coursehub/storage/blob"
	courseValidator "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// findChapter loads a chapter only if it belongs to the course.
func findChapter(c *fiber.Ctx, courseID, chapterID uuid.UUID) (*courseModels.Chapter, error) {
	var chapter courseModels.Chapter
	err := svc.DB.WithContext(c.UserContext()).
		Where("id = ? AND course_id = ?", chapterID, courseID).
		First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.ReasonChapterNotFound, "Chapter not found or doesn't belong to this course")
	}
	if err != nil {
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}
	return &chapter, nil
}

// CreateChapter appends a chapter at MAX(position)+1.
func CreateChapter(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	reqData := c.Locals("validatedChapter").(*courseValidator.CreateChapterRequest)

	position, err := ordering.NextPosition(ctx, svc.DB, ordering.ChapterScope(course.ID))
	if err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	chapter := courseModels.Chapter{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		Position:    position,
	}
	if err := svc.DB.WithContext(ctx).Create(&chapter).Error; err != nil {
		svc.Log.Error("create chapter failed", "course_id", course.ID, "error", err)
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	if err := svc.Blob.EnsureDir(ctx, blob.CourseDir(course.ID.String(), chapter.ID.String())); err != nil {
		svc.Log.Warn("chapter directory not created", "chapter_id", chapter.ID, "error", err)
	}
	invalidateStructure(ctx, course.ID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Chapter created successfully!", chapter)
}

// UpdateChapter changes title and description. Positions change only through reorder.
func UpdateChapter(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	chapterID := c.Locals("chapterID").(uuid.UUID)
	reqData := c.Locals("validatedChapterUpdate").(*courseValidator.UpdateChapterRequest)

	chapter, err := findChapter(c, course.ID, chapterID)
	if err != nil {
		return respondError(c, err)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if err := svc.DB.WithContext(ctx).Model(chapter).Updates(updates).Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	invalidateStructure(ctx, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter updated successfully!", chapter)
}

// DeleteChapter removes the chapter and its videos, then closes the position gap.
func DeleteChapter(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	chapterID := c.Locals("chapterID").(uuid.UUID)

	if _, err := findChapter(c, course.ID, chapterID); err != nil {
		return respondError(c, err)
	}

	var videos []courseModels.Video
	tx := svc.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, tx.Error))
	}

	if err := tx.Where("course_id = ? AND chapter_id = ?", course.ID, chapterID).Find(&videos).Error; err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := tx.Where("course_id = ? AND chapter_id = ?", course.ID, chapterID).Delete(&courseModels.Video{}).Error; err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := tx.Where("id = ? AND course_id = ?", chapterID, course.ID).Delete(&courseModels.Chapter{}).Error; err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := ordering.Compact(tx, ordering.ChapterScope(course.ID)); err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := tx.Commit().Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	paths := make([]string, 0, len(videos)*2)
	for _, v := range videos {
		paths = append(paths, v.VideoPath, v.CoverPath)
	}
	deleteBlobs(paths...)
	invalidateStructure(ctx, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter deleted successfully!", fiber.Map{"deleted_videos": len(videos)})
}
