package cleanup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/brandportal/internal/cleanup"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(p, mt, mt))
	return p
}

func TestRunOnceRemovesOnlyOldArtifacts(t *testing.T) {
	dir := t.TempDir()
	old := touch(t, dir, "brand-123.pdf", 2*time.Hour)
	fresh := touch(t, dir, "brand-456.png", time.Minute)
	other := touch(t, dir, "keep-me.txt", 48*time.Hour)

	c := &cleanup.Cleaner{TempDir: dir, MaxAge: time.Hour}
	assert.Equal(t, 1, c.RunOnce(time.Now()))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := &cleanup.Cleaner{TempDir: t.TempDir(), MaxAge: time.Hour, Schedule: "whenever"}
	assert.Error(t, c.Start())
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "brand-1.zip", 3*time.Hour)

	c := &cleanup.Cleaner{TempDir: dir, MaxAge: time.Hour, Schedule: "@every 1h"}
	require.NoError(t, c.Start())
	c.Stop()

	left, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}
