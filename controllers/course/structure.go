package controllers

import (
	"encoding/json"
	"strings"

	"coursehub/apperr"
	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/services/access"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseCourseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation(apperr.ReasonInvalidID, "Invalid course ID format")
	}
	return id, nil
}

// GetCourseStructure returns the chapter tree, or the unfiled videos for a course
// without chapters.
func GetCourseStructure(c *fiber.Ctx) error {
	ctx := c.UserContext()
	courseID, err := parseCourseID(c)
	if err != nil {
		return respondError(c, err)
	}

	// Access is decided per request; only the rendered tree is cached.
	if _, err := svc.aggregator.Authorize(ctx, courseID, middleware.GetRequestor(c)); err != nil {
		return respondError(c, err)
	}

	if body, ok, err := svc.Cache.Get(ctx, courseID.String()); err != nil {
		svc.Log.Warn("structure cache read failed", "course_id", courseID, "error", err)
	} else if ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).Send(body)
	}

	// Taken before Build so a mutation committed during the build keeps this tree out of the cache.
	gen, genErr := svc.Cache.Generation(ctx, courseID.String())
	if genErr != nil {
		svc.Log.Warn("structure cache generation read failed", "course_id", courseID, "error", genErr)
	}

	tree, err := svc.aggregator.Build(ctx, courseID)
	if err != nil {
		return respondError(c, err)
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return respondError(c, apperr.Store(apperr.ReasonInternal, err))
	}
	if genErr == nil {
		if err := svc.Cache.Set(ctx, courseID.String(), gen, body); err != nil {
			svc.Log.Warn("structure cache write failed", "course_id", courseID, "error", err)
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

// ListChapters returns the course chapters by position with live video counts.
func ListChapters(c *fiber.Ctx) error {
	ctx := c.UserContext()
	courseID, err := parseCourseID(c)
	if err != nil {
		return respondError(c, err)
	}
	req := middleware.GetRequestor(c)
	course, err := svc.aggregator.Authorize(ctx, courseID, req)
	if err != nil {
		return respondError(c, err)
	}

	var chapters []courseModels.Chapter
	if err := svc.DB.WithContext(ctx).Where("course_id = ?", courseID).Order("position ASC").Find(&chapters).Error; err != nil {
		svc.Log.Error("list chapters failed", "course_id", courseID, "error", err)
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	var counts []struct {
		ChapterID uuid.UUID
		Total     int
	}
	q := svc.DB.WithContext(ctx).Model(&courseModels.Video{}).
		Select("chapter_id, COUNT(*) AS total").
		Where("course_id = ? AND chapter_id IS NOT NULL", courseID)
	if !access.CanManage(course, req) {
		q = q.Where("is_approved = ?", true)
	}
	if err := q.Group("chapter_id").Scan(&counts).Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	byChapter := make(map[uuid.UUID]int, len(counts))
	for _, row := range counts {
		byChapter[row.ChapterID] = row.Total
	}
	for i := range chapters {
		chapters[i].VideosCount = byChapter[chapters[i].ID]
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapters fetched successfully!", chapters)
}

// ListUnfiledVideos returns videos without a chapter. Managers also see unapproved ones.
func ListUnfiledVideos(c *fiber.Ctx) error {
	ctx := c.UserContext()
	courseID, err := parseCourseID(c)
	if err != nil {
		return respondError(c, err)
	}
	req := middleware.GetRequestor(c)
	course, err := svc.aggregator.Authorize(ctx, courseID, req)
	if err != nil {
		return respondError(c, err)
	}

	q := svc.DB.WithContext(ctx).Where("course_id = ? AND chapter_id IS NULL", courseID)
	if !access.CanManage(course, req) {
		q = q.Where("is_approved = ?", true)
	}
	var videos []courseModels.Video
	if err := q.Order("position ASC").Find(&videos).Error; err != nil {
		svc.Log.Error("list videos failed", "course_id", courseID, "error", err)
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Videos fetched successfully!", videos)
}
