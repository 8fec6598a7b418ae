// Package repotest opens throwaway in-memory stores for tests.
package repotest

import (
	"context"
	"strings"
	"testing"

	"parkingapp/database"
	"parkingapp/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewStore returns a GormStore on a fresh SQLite database that is closed
// when the test ends.
func NewStore(t testing.TB) *repository.GormStore {
	t.Helper()
	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := database.OpenMemory(context.Background(), name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return repository.NewGormStore(db)
}
