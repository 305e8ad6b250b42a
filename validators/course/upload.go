package courseValidator

import (
	"coursehub/apperr"
	"coursehub/middleware"
	"coursehub/services/media"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type VideoUploadRequest struct {
	Description     string `validate:"max=5000"`
	Duration        string `validate:"max=16"`
	DurationSeconds int    `validate:"min=0"`
	Order           int    `validate:"min=0"`
}

// VideoUpload parses the multipart form into c.Locals("uploadFiles") and
// c.Locals("uploadMeta"). The title is checked by the pipeline, after staging.
func VideoUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, form, err := multipartFiles(c)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}

		reqData := VideoUploadRequest{
			Description:     strings.TrimSpace(formValue(form, "description")),
			Duration:        strings.TrimSpace(formValue(form, "duration")),
			DurationSeconds: atoiOrZero(formValue(form, "duration_seconds")),
			Order:           atoiOrZero(formValue(form, "order")),
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("uploadFiles", files)
		c.Locals("uploadMeta", media.Metadata{
			Title:           formValue(form, "title"),
			Description:     reqData.Description,
			Position:        reqData.Order,
			Duration:        reqData.Duration,
			DurationSeconds: reqData.DurationSeconds,
			HasSubtitles:    formValue(form, "has_subtitles") == "true",
			HasNotes:        formValue(form, "has_notes") == "true",
		})
		return c.Next()
	}
}

// RawUpload accepts a single file for staging.
func RawUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, _, err := multipartFiles(c)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		c.Locals("uploadFiles", files[:1])
		return c.Next()
	}
}

// multipartFiles returns every uploaded file, ordered by form field name and then
// by position within the field.
func multipartFiles(c *fiber.Ctx) ([]media.File, map[string][]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperr.Validation(apperr.ReasonNoFile, "No video file uploaded or failed to parse request")
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var files []media.File
	for _, field := range fields {
		for _, fh := range form.File[field] {
			files = append(files, media.FromMultipart(fh))
		}
	}
	if len(files) == 0 {
		return nil, nil, apperr.Validation(apperr.ReasonNoFile, "No video file uploaded or failed to parse request")
	}
	return files, form.Value, nil
}

func formValue(form map[string][]string, key string) string {
	if v := form[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
