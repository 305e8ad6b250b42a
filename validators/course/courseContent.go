package courseValidator

import (
	"coursehub/apperr"
	"coursehub/middleware"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var invalidTitleChars = regexp.MustCompile(`[<>{}]`)

type CreateChapterRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateChapterRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func CreateChapter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateChapterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidBody, "Invalid request body!"))
		}

		// Normalize and sanitize inputs
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		if invalidTitleChars.MatchString(reqData.Title) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"title": "Title contains invalid characters (e.g., <, >, {, })!",
			})
		}

		c.Locals("validatedChapter", reqData)
		return c.Next()
	}
}

func UpdateChapter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateChapterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidBody, "Invalid request body!"))
		}
		if reqData.Title == nil && reqData.Description == nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonNothingToUpdate, "No fields to update"))
		}
		if reqData.Title != nil {
			trimmed := strings.TrimSpace(*reqData.Title)
			reqData.Title = &trimmed
		}
		if reqData.Description != nil {
			trimmed := strings.TrimSpace(*reqData.Description)
			reqData.Description = &trimmed
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		if reqData.Title != nil && (*reqData.Title == "" || invalidTitleChars.MatchString(*reqData.Title)) {
			return middleware.ValidationErrorResponse(c, map[string]string{"title": "Title is invalid!"})
		}

		c.Locals("validatedChapterUpdate", reqData)
		return c.Next()
	}
}
