package controllers

import (
	"coursehub/middleware"
	"coursehub/services/ordering"
	courseValidator "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func ReorderChapters(c *fiber.Ctx) error {
	course := currentCourse(c)
	ids := c.Locals("orderIDs").([]uuid.UUID)

	if err := svc.engine.Reorder(c.UserContext(), ordering.ChapterScope(course.ID), ids); err != nil {
		return respondError(c, err)
	}
	invalidateStructure(c.UserContext(), course.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter order updated successfully", nil)
}

// ReorderCourseVideos renumbers the unfiled videos of a course.
func ReorderCourseVideos(c *fiber.Ctx) error {
	course := currentCourse(c)
	ids := c.Locals("orderIDs").([]uuid.UUID)

	if err := svc.engine.Reorder(c.UserContext(), ordering.VideoScope(course.ID, nil), ids); err != nil {
		return respondError(c, err)
	}
	invalidateStructure(c.UserContext(), course.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video order updated successfully", nil)
}

func ReorderChapterVideos(c *fiber.Ctx) error {
	course := currentCourse(c)
	chapterID := c.Locals("chapterID").(uuid.UUID)
	ids := c.Locals("orderIDs").([]uuid.UUID)

	if err := svc.engine.Reorder(c.UserContext(), ordering.VideoScope(course.ID, &chapterID), ids); err != nil {
		return respondError(c, err)
	}
	invalidateStructure(c.UserContext(), course.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video order updated successfully", nil)
}

// RelocateVideo moves one video to another chapter (or out of chapters) at a position.
func RelocateVideo(c *fiber.Ctx) error {
	course := currentCourse(c)
	videoID := c.Locals("videoID").(uuid.UUID)
	target := c.Locals("relocation").(courseValidator.RelocationTarget)

	if err := svc.engine.Relocate(c.UserContext(), course.ID, videoID, target.ChapterID, target.Order); err != nil {
		return respondError(c, err)
	}
	invalidateStructure(c.UserContext(), course.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video position updated successfully", nil)
}
