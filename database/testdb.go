package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// OpenTest opens an isolated in-memory sqlite database with all migrations applied.
func OpenTest(tb testing.TB) *gorm.DB {
	tb.Helper()

	// Named shared-cache DSN so every pooled connection sees the same in-memory database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// One writer keeps sqlite transactions from tripping over "database is locked".
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := RunMigrations(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}
