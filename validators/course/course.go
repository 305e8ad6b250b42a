package courseValidator

import (
	"coursehub/apperr"
	"coursehub/middleware"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// fieldErrors turns validator errors into the field map the API returns.
func fieldErrors(err error) map[string]string {
	errors := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["body"] = "Invalid request body!"
		return errors
	}
	for _, fe := range validationErrors {
		field := jsonName(fe)
		switch fe.Tag() {
		case "required":
			errors[field] = fmt.Sprintf("%s is required!", field)
		case "max":
			errors[field] = fmt.Sprintf("%s must not exceed %s characters!", field, fe.Param())
		case "min":
			errors[field] = fmt.Sprintf("%s must be at least %s!", field, fe.Param())
		case "uuid":
			errors[field] = fmt.Sprintf("%s must contain valid IDs!", field)
		default:
			errors[field] = fmt.Sprintf("%s is invalid!", field)
		}
	}
	return errors
}

// jsonName strips the index suffix from dive errors, e.g. video_order[2] -> video_order.
func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// uuidParam parses a route parameter and stores it in c.Locals(local).
func uuidParam(param, local, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(strings.TrimSpace(c.Params(param)))
		if err != nil || id == uuid.Nil {
			return middleware.ErrorResponse(c, apperr.Validation(apperr.ReasonInvalidID, "Invalid "+label+" ID format"))
		}
		c.Locals(local, id)
		return c.Next()
	}
}

// ChapterParam validates :chapterId.
func ChapterParam() fiber.Handler {
	return uuidParam("chapterId", "chapterID", "chapter")
}

// VideoParam validates :videoId.
func VideoParam() fiber.Handler {
	return uuidParam("videoId", "videoID", "video")
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, apperr.Validation(apperr.ReasonInvalidID, "Invalid ID format in order list")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
