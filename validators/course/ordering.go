package courseValidator

import (
	"coursehub/apperr"
	"coursehub/middleware"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type videoOrderRequest struct {
	VideoOrder []string `json:"video_order" validate:"required"`
}

type chapterOrderRequest struct {
	ChapterOrder []string `json:"chapter_order" validate:"required"`
}

// ReorderVideos parses {"video_order": [...]} into c.Locals("orderIDs").
func ReorderVideos() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(videoOrderRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidBody, "Missing or invalid video_order array"))
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		return storeOrder(c, reqData.VideoOrder)
	}
}

// ReorderChapters parses {"chapter_order": [...]} into c.Locals("orderIDs").
func ReorderChapters() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(chapterOrderRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidBody, "Missing or invalid chapter_order array"))
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		return storeOrder(c, reqData.ChapterOrder)
	}
}

func storeOrder(c *fiber.Ctx, raw []string) error {
	if len(raw) == 0 {
		return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonEmptyList, "Order list is empty"))
	}
	ids, err := parseIDs(raw)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	c.Locals("orderIDs", ids)
	return c.Next()
}

// RelocationTarget is where a video should move. ChapterID nil means unfiled.
type RelocationTarget struct {
	ChapterID *uuid.UUID
	Order     int `validate:"min=1"`
}

// RelocateVideo requires both "order" and "chapter_id". A null, empty or "null"
// chapter_id moves the video out of any chapter.
func RelocateVideo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidBody, "Invalid JSON"))
		}
		rawOrder, hasOrder := body["order"]
		rawChapter, hasChapter := body["chapter_id"]
		if !hasOrder || !hasChapter {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonMissingField, "Missing required fields: order, chapter_id"))
		}

		target := RelocationTarget{}
		if err := json.Unmarshal(rawOrder, &target.Order); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidPosition, "order must be a positive integer"))
		}
		if err := validate.Struct(target); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidPosition, "order must be a positive integer"))
		}

		var chapter *string
		if err := json.Unmarshal(rawChapter, &chapter); err != nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidID, "Invalid chapter ID format"))
		}
		if chapter != nil {
			trimmed := strings.TrimSpace(*chapter)
			if trimmed != "" && trimmed != "null" {
				id, err := uuid.Parse(trimmed)
				if err != nil {
					return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidID, "Invalid chapter ID format"))
				}
				target.ChapterID = &id
			}
		}

		c.Locals("relocation", target)
		return c.Next()
	}
}
