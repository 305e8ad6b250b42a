package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes registers the course content routes. Fixed segments such as
// /chapters/order are registered ahead of their :chapterId siblings.
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses/:id")

	owner := []fiber.Handler{middleware.JWTMiddleware, middleware.LoadCourse, middleware.CourseOwnerOnly()}
	withOwner := func(h ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, owner...), h...)
	}

	// Read views (anonymous allowed on public courses)
	courseGroup.Get("/structure", middleware.OptionalJWTMiddleware, controllers.GetCourseStructure)
	courseGroup.Get("/chapters", middleware.OptionalJWTMiddleware, controllers.ListChapters)
	courseGroup.Get("/videos", middleware.OptionalJWTMiddleware, controllers.ListUnfiledVideos)

	// Ordering
	courseGroup.Put("/chapters/order", withOwner(validators.ReorderChapters(), controllers.ReorderChapters)...)
	courseGroup.Put("/videos/order", withOwner(validators.ReorderVideos(), controllers.ReorderCourseVideos)...)
	courseGroup.Put("/chapters/:chapterId/videos/order", withOwner(validators.ChapterParam(), validators.ReorderVideos(), controllers.ReorderChapterVideos)...)
	courseGroup.Put("/videos/:videoId/position", withOwner(validators.VideoParam(), validators.RelocateVideo(), controllers.RelocateVideo)...)

	// Chapters
	courseGroup.Post("/chapters", withOwner(validators.CreateChapter(), controllers.CreateChapter)...)
	courseGroup.Put("/chapters/:chapterId", withOwner(validators.ChapterParam(), validators.UpdateChapter(), controllers.UpdateChapter)...)
	courseGroup.Delete("/chapters/:chapterId", withOwner(validators.ChapterParam(), controllers.DeleteChapter)...)

	// Videos
	courseGroup.Post("/videos", withOwner(validators.VideoUpload(), controllers.CreateCourseVideo)...)
	courseGroup.Post("/chapters/:chapterId/videos", withOwner(validators.ChapterParam(), validators.VideoUpload(), controllers.CreateChapterVideo)...)
	courseGroup.Post("/upload", withOwner(validators.RawUpload(), controllers.UploadRaw)...)
	courseGroup.Delete("/videos/:videoId", middleware.JWTMiddleware, middleware.LoadCourse, validators.VideoParam(), controllers.DeleteVideo)
	courseGroup.Put("/videos/:videoId/approve", middleware.JWTMiddleware, middleware.ElevatedOnly(), middleware.LoadCourse, validators.VideoParam(), controllers.ApproveVideo)

	// Enrollment
	courseGroup.Post("/enroll", middleware.JWTMiddleware, middleware.LoadCourse, controllers.EnrollInCourse)
	courseGroup.Delete("/enroll", middleware.JWTMiddleware, middleware.LoadCourse, controllers.UnenrollFromCourse)
	courseGroup.Get("/enrollments", withOwner(controllers.GetEnrollments)...)
}
