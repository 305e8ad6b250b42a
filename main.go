package main

import (
	"context"
	"log"
	"time"

	"coursehub/config"
	controllers "coursehub/controllers/course"
	"coursehub/database"
	courseRoutes "coursehub/routers/courseRoutes"
	"coursehub/storage/blob"
	"coursehub/storage/cache"
	"coursehub/utils"
	appLogger "coursehub/utils/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := appLogger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb()

	store := newBlobStore(cfg, appLog)
	structureCache := newStructureCache(cfg, appLog)

	controllers.Configure(controllers.Dependencies{
		DB:         database.Database.Db,
		Blob:       store,
		Cache:      structureCache,
		Mailer:     utils.NewMailer(cfg.SendgridAPIKey, cfg.EmailSender, appLog),
		Moderation: utils.NewModerationNotifier(cfg.ModerationWebhookURL),
		Log:        appLog,
	})

	scanner := utils.NewOrphanScanner(database.Database.Db, store, appLog)
	scheduler, err := utils.StartOrphanScheduler(cfg.OrphanScanCron, scanner)
	if err != nil {
		appLog.Fatal("orphan scheduler not started", "schedule", cfg.OrphanScanCron, "error", err)
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadMB * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Uploaded media is served directly when stored on local disk
	if _, ok := store.(*blob.LocalStore); ok {
		app.Static("/uploads", cfg.UploadBasePath)
	}

	courseRoutes.SetupCourseRoutes(app)

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

func newBlobStore(cfg *config.Config, appLog *appLogger.Logger) blob.Store {
	if cfg.BlobBackend == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		store, err := blob.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			appLog.Fatal("s3 blob store unavailable", "bucket", cfg.S3Bucket, "error", err)
		}
		appLog.Info("using s3 blob store", "bucket", cfg.S3Bucket, "region", cfg.S3Region)
		return store
	}
	appLog.Info("using local blob store", "base", cfg.UploadBasePath)
	return blob.NewLocalStore(cfg.UploadBasePath)
}

// newStructureCache falls back to no caching when Redis is absent or unreachable.
func newStructureCache(cfg *config.Config, appLog *appLogger.Logger) cache.StructureCache {
	if cfg.RedisURL == "" {
		return cache.Noop{}
	}
	ttl := time.Duration(cfg.StructureCacheTTLSeconds) * time.Second
	c, err := cache.NewRedis(cfg.RedisURL, ttl)
	if err != nil {
		appLog.Warn("redis unavailable, structure cache disabled", "error", err)
		return cache.Noop{}
	}
	return c
}
