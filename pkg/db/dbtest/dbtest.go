// Package dbtest opens isolated in-memory sqlite databases for package tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// New returns a migrated sqlite connection unique to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := db.GormConfig()
	cfg.DisableForeignKeyConstraintWhenMigrating = true
	conn, err := gorm.Open(sqlite.Open("file:kp_"+uuid.NewString()+"?mode=memory&cache=shared"), cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps New in a db.Client.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.Wrap(New(t))
}
