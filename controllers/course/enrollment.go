package controllers

import (
	"context"
	"time"

	"coursehub/apperr"
	"coursehub/middleware"
	courseModels "coursehub/models/course"

	"github.com/gofiber/fiber/v2"
)

func EnrollInCourse(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course := currentCourse(c)
	req := middleware.GetRequestor(c)

	if !course.IsPublished {
		return respondError(c, apperr.NotFound(apperr.ReasonCourseUnavailable, "Course not found or not published"))
	}

	var existing int64
	if err := svc.DB.WithContext(ctx).Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", req.UserID, course.ID).
		Count(&existing).Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if existing > 0 {
		return respondError(c, apperr.Validation(apperr.ReasonAlreadyEnrolled, "Already enrolled in this course"))
	}

	enrollment := courseModels.Enrollment{UserID: req.UserID, CourseID: course.ID}

	tx := svc.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, tx.Error))
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		svc.Log.Error("enrollment failed", "course_id", course.ID, "user_id", req.UserID, "error", err)
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	if err := tx.Commit().Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	if email, _ := c.Locals("email").(string); email != "" {
		go sendEnrollmentEmail(email, course.Title)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Successfully enrolled in course", enrollment)
}

func sendEnrollmentEmail(to, courseTitle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Mailer.SendEnrollmentConfirmation(ctx, to, courseTitle); err != nil {
		svc.Log.Warn("enrollment email failed", "error", err)
	}
}

func UnenrollFromCourse(c *fiber.Ctx) error {
	course := currentCourse(c)
	req := middleware.GetRequestor(c)

	res := svc.DB.WithContext(c.UserContext()).
		Where("user_id = ? AND course_id = ?", req.UserID, course.ID).
		Delete(&courseModels.Enrollment{})
	if res.Error != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, res.Error))
	}
	if res.RowsAffected == 0 {
		return respondError(c, apperr.NotFound(apperr.ReasonNotEnrolled, "Not enrolled in this course"))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Successfully unenrolled from course", nil)
}

// GetEnrollments lists a course's enrollments for its owner.
func GetEnrollments(c *fiber.Ctx) error {
	course := currentCourse(c)

	var enrollments []courseModels.Enrollment
	if err := svc.DB.WithContext(c.UserContext()).
		Where("course_id = ?", course.ID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return respondError(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}
