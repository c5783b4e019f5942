package testutil

import (
	"testing"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB opens an in-memory SQLite database with the full schema.
// The pool is pinned to one connection so every query sees the same database.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.Country{}, &models.Meta{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

func StrPtr(s string) *string { return &s }

func Int64Ptr(n int64) *int64 { return &n }

func Float64Ptr(f float64) *float64 { return &f }
