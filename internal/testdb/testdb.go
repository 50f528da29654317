// Package testdb opens migrated in-memory sqlite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/models"
	pkgdb "github.com/Skotchmaster/bizadmin/pkg/db"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate tables")

	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}
