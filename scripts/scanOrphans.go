package main

import (
	"context"
	"encoding/csv"
	"log"
	"os"
	"time"

	"coursehub/config"
	"coursehub/database"
	"coursehub/storage/blob"
	"coursehub/utils"
	"coursehub/utils/logger"
)

// Runs one orphan scan and writes the unreferenced paths as CSV, to the file named
// by the first argument or to stdout.
func main() {
	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()
	cfg := config.AppConfig

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var store blob.Store = blob.NewLocalStore(cfg.UploadBasePath)
	if cfg.BlobBackend == "s3" {
		s3Store, err := blob.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			log.Fatalf("Failed to open S3 bucket %s: %v", cfg.S3Bucket, err)
		}
		store = s3Store
	}

	scanner := utils.NewOrphanScanner(database.Database.Db, store, logger.Nop())
	orphans, err := scanner.Scan(ctx)
	if err != nil {
		log.Fatalf("Orphan scan failed: %v", err)
	}

	out := os.Stdout
	if len(os.Args) > 1 {
		file, err := os.Create(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to create report: %v", err)
		}
		defer file.Close()
		out = file
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"path"}); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	for _, p := range orphans {
		if err := writer.Write([]string{p}); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	log.Printf("Orphan scan complete. Found %d unreferenced files", len(orphans))
}
