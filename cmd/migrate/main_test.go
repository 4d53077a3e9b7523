package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"002_schedules.up.sql", "001_routes.up.sql",
		"001_routes.down.sql", "002_schedules.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}

	up, err := migrationFiles(dir, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "001_routes.up.sql"),
		filepath.Join(dir, "002_schedules.up.sql"),
	}, up)

	down, err := migrationFiles(dir, "down")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "002_schedules.down.sql"),
		filepath.Join(dir, "001_routes.down.sql"),
	}, down)
}

func TestMigrationFiles_Errors(t *testing.T) {
	_, err := migrationFiles(t.TempDir(), "sideways")
	assert.ErrorContains(t, err, "unknown command")

	_, err = migrationFiles(t.TempDir(), "up")
	assert.ErrorContains(t, err, "no up migrations")
}

func TestRepositoryMigrationsPair(t *testing.T) {
	up, err := migrationFiles("../../migrations", "up")
	require.NoError(t, err)
	down, err := migrationFiles("../../migrations", "down")
	require.NoError(t, err)
	assert.Len(t, down, len(up))
}
