package controllers

import (
	"context"
	"time"

	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/services/media"
	"coursehub/services/ordering"
	"coursehub/services/structure"
	"coursehub/storage/blob"
	"coursehub/storage/cache"
	"coursehub/utils"
	"coursehub/utils/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the course handlers share.
type Dependencies struct {
	DB         *gorm.DB
	Blob       blob.Store
	Cache      cache.StructureCache
	Mailer     utils.Mailer
	Moderation utils.ModerationNotifier
	Log        *logger.Logger
}

type services struct {
	Dependencies
	aggregator *structure.Aggregator
	engine     *ordering.Engine
	pipeline   *media.Pipeline
}

var svc services

// Configure wires the handlers. It must run before routes are served.
func Configure(d Dependencies) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Mailer == nil {
		d.Mailer = utils.NewMailer("", "", d.Log)
	}
	if d.Moderation == nil {
		d.Moderation = utils.NewModerationNotifier("")
	}
	svc = services{
		Dependencies: d,
		aggregator:   structure.NewAggregator(structure.NewGormStore(d.DB), d.Log),
		engine:       ordering.NewEngine(d.DB, d.Log),
		pipeline:     media.NewPipeline(d.Blob, media.NewGormRecorder(d.DB), d.Log),
	}
}

func currentCourse(c *fiber.Ctx) *courseModels.Course {
	course, _ := c.Locals("course").(*courseModels.Course)
	return course
}

// invalidateStructure drops the cached structure after a hierarchy change.
func invalidateStructure(ctx context.Context, courseID uuid.UUID) {
	if err := svc.Cache.Invalidate(ctx, courseID.String()); err != nil {
		svc.Log.Warn("structure cache invalidation failed", "course_id", courseID, "error", err)
	}
}

// deleteBlobs removes files after their rows are gone. Failures leave orphans for the scanner.
func deleteBlobs(paths ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := svc.Blob.Delete(ctx, p); err != nil {
			svc.Log.Warn("blob delete failed", "path", p, "error", err)
		}
	}
}

func respondError(c *fiber.Ctx, err error) error {
	return middleware.ErrorResponse(c, err)
}
