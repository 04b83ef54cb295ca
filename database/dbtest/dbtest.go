// Package dbtest opens an isolated in-memory database with the full schema for package tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"storefront/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storefront_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection serialises writers the way row locks would on a server database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}
