package middleware

import (
	"coursehub/apperr"
	"coursehub/database"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoadCourse parses :id, loads the course and stores it in c.Locals("course").
func LoadCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidID, "Invalid course ID format"))
	}

	var course courseModels.Course
	err = database.Database.Db.WithContext(c.UserContext()).Where("id = ?", courseID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrorResponse(c, apperr.NotFound(apperr.ReasonCourseNotFound, "Course not found"))
		}
		return ErrorResponse(c, apperr.Store(apperr.ReasonStoreFailure, err))
	}

	c.Locals("courseID", courseID)
	c.Locals("course", &course)
	return c.Next()
}

// CourseOwnerOnly lets the course author and elevated roles through. It expects LoadCourse
// to have run and must precede any handler that touches storage.
func CourseOwnerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		course, ok := c.Locals("course").(*courseModels.Course)
		if !ok {
			return ErrorResponse(c, apperr.NotFound(apperr.ReasonCourseNotFound, "Course not found"))
		}
		if err := access.RequireManage(course, GetRequestor(c)); err != nil {
			return ErrorResponse(c, err)
		}
		return c.Next()
	}
}

// ElevatedOnly restricts a route to the configured elevated roles.
func ElevatedOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetRequestor(c).Elevated {
			return ErrorResponse(c, apperr.Authorization(apperr.ReasonNotElevated, "You do not have permission to access this resource!"))
		}
		return c.Next()
	}
}
