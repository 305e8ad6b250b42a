package controllers

import (
	"context"
	"errors"
	"time"

	"coursehub/apperr"
	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"coursehub/services/media"
	"coursehub/services/ordering"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateCourseVideo ingests an unfiled video.
func CreateCourseVideo(c *fiber.Ctx) error {
	return ingest(c, nil)
}

// CreateChapterVideo ingests a video into a chapter of the course.
func CreateChapterVideo(c *fiber.Ctx) error {
	course := currentCourse(c)
	chapterID := c.Locals("chapterID").(uuid.UUID)
	if _, err := findChapter(c, course.ID, chapterID); err != nil {
		return respondError(c, err)
	}
	return ingest(c, &chapterID)
}

func ingest(c *fiber.Ctx, chapterID *uuid.UUID) error {
	ctx := c.UserContext()
	course := currentCourse(c)

	result, err := svc.pipeline.Ingest(ctx, media.Request{
		Course:    course,
		ChapterID: chapterID,
		Requestor: middleware.GetRequestor(c),
		Files:     c.Locals("uploadFiles").([]media.File),
		Meta:      c.Locals("uploadMeta").(media.Metadata),
	})
	if err != nil {
		return respondError(c, err)
	}

	go notifyModeration(result.Video)
	invalidateStructure(ctx, course.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":     true,
		"message":    "Video uploaded successfully",
		"id":         result.ID,
		"video_path": result.VideoPath,
		"file_size":  result.FileSize,
		"cover_path": result.CoverPath,
	})
}

func notifyModeration(v *courseModels.Video) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Moderation.VideoSubmitted(ctx, v); err != nil {
		svc.Log.Warn("moderation notification failed", "video_id", v.ID, "error", err)
	}
}

// UploadRaw stages a single file under the course directory without a video row.
func UploadRaw(c *fiber.Ctx) error {
	files := c.Locals("uploadFiles").([]media.File)
	staged, err := svc.pipeline.Stage(c.UserContext(), currentCourse(c), middleware.GetRequestor(c), files[0])
	if err != nil {
		return respondError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "File uploaded successfully", staged)
}

func findVideo(c *fiber.Ctx, courseID, videoID uuid.UUID) (*courseModels.Video, error) {
	var video courseModels.Video
	err := svc.DB.WithContext(c.UserContext()).
		Where("id = ? AND course_id = ?", videoID, courseID).
		First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.ReasonVideoNotFound, "Video not found")
	}
	if err != nil {
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}
	return &video, nil
}

// DeleteVideo removes a video row and closes the position gap, then deletes its
// files. The course owner, the uploader and elevated users may delete.
func DeleteVideo(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	videoID := c.Locals("videoID").(uuid.UUID)
	req := middleware.GetRequestor(c)

	video, err := findVideo(c, course.ID, videoID)
	if err != nil {
		return respondError(c, err)
	}
	uploader := video.UploadedBy != nil && *video.UploadedBy == req.UserID
	if !access.CanManage(course, req) && !uploader {
		return respondError(c, apperr.Authorization(apperr.ReasonNotOwner, "You don't have permission to delete this video"))
	}

	// The rest of the video's scope is renumbered in the same transaction.
	tx := svc.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, tx.Error))
	}
	if err := tx.Delete(video).Error; err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := ordering.Compact(tx, ordering.VideoScope(course.ID, video.ChapterID)); err != nil {
		tx.Rollback()
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := tx.Commit().Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	deleteBlobs(video.VideoPath, video.CoverPath)
	invalidateStructure(ctx, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video deleted successfully", nil)
}

// ApproveVideo makes a video visible in the course structure.
func ApproveVideo(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	videoID := c.Locals("videoID").(uuid.UUID)
	req := middleware.GetRequestor(c)

	video, err := findVideo(c, course.ID, videoID)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	err = svc.DB.WithContext(ctx).Model(video).Updates(map[string]interface{}{
		"is_approved": true,
		"approved_by": req.UserID,
		"approved_at": now,
	}).Error
	if err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	invalidateStructure(ctx, course.ID)

	svc.Log.Info("video approved", "video_id", video.ID, "approved_by", req.UserID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video approved successfully", video)
}
