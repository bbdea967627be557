// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"nyx/internal/config"
	"nyx/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewSQLiteDB returns a migrated, private in-memory database that is closed
// when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	dialector, err := database.Dialector(&config.Config{DBDriver: config.DriverSQLite, DBPath: dsn})
	require.NoError(t, err)

	db, err := gorm.Open(dialector, database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewMockDB returns a GORM postgres handle backed by sqlmock. Expectations are
// checked when the test ends.
func NewMockDB(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.GormConfig())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db, mock
}
