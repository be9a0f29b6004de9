package main

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicapi/db/migrations"
)

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// this file lives in cmd/migrate/, so repo root is ../..
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	dir := filepath.Join(repoRoot, "db", "migrations")

	ms, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.Len(t, ms, 3)
}

func TestCollectMigrations_Embedded(t *testing.T) {
	goose.SetBaseFS(migrations.FS)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	ms, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, int64(1), ms[0].Version)
	assert.Equal(t, int64(2), ms[1].Version)
	assert.Equal(t, int64(3), ms[2].Version)
}
