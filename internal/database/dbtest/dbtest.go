// Package dbtest opens throwaway SQLite databases carrying the full schema
// and reference rows, for use in package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iliyamo/cinema-backoffice/internal/database"
	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// Open returns a migrated and seeded database file living in t.TempDir().
// A file rather than ":memory:" keeps every pooled connection on the same data.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	if err := database.Migrate(ctx, db, model.Registry()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}
