// Package testutil builds throwaway sqlite databases for package tests.
package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"polltree/internal/platform/database"
	"polltree/internal/repository/gormrepo"
)

// NewDB returns a migrated in-memory database closed when t ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormrepo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
