package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("NODE_ENV", "test")
	t.Setenv("PORT", "0")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "users.db"))
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "storage"))
	t.Setenv("PUBLIC_DIR", filepath.Join(dir, "public"))
	t.Setenv("LOG_OUTPUT_PATH", "stderr")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "2")
	return dir
}

func TestNew_RunsStartupSequence(t *testing.T) {
	dir := setEnv(t)

	a, err := New(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", a.Config.App.Environment)
	_, err = os.Stat(filepath.Join(dir, "storage"))
	assert.NoError(t, err)
	assert.True(t, a.Container.DB.Migrator().HasTable("users"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_StartupFailure(t *testing.T) {
	dir := setEnv(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	t.Setenv("STORAGE_PATH", filepath.Join(blocker, "storage"))

	_, err := New(context.Background())
	assert.ErrorContains(t, err, "storage directory")
}
