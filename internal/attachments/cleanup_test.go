package attachments

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"postsuggest-bot/internal/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	referenced := filepath.Join(dir, "pending.jpg")
	orphan := filepath.Join(dir, "orphan.mp4")
	fresh := filepath.Join(dir, "fresh.jpg")
	writeAged(t, referenced, 48*time.Hour)
	writeAged(t, orphan, 48*time.Hour)
	writeAged(t, fresh, time.Minute)

	posts := new(mocks.MockStore)
	posts.On("ListAttachmentPaths", ctx).Return([]string{referenced}, nil)

	janitor := NewJanitor(NewStore(dir), posts, 24*time.Hour)
	removed, err := janitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.FileExists(t, referenced)
	assert.FileExists(t, fresh)
	assert.NoFileExists(t, orphan)
	posts.AssertExpectations(t)
}

func TestSweepListFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orphan := filepath.Join(dir, "orphan.jpg")
	writeAged(t, orphan, 48*time.Hour)

	posts := new(mocks.MockStore)
	posts.On("ListAttachmentPaths", ctx).Return(nil, errors.New("db down"))

	removed, err := NewJanitor(NewStore(dir), posts, time.Hour).Sweep(ctx)
	assert.Error(t, err)
	assert.Zero(t, removed)
	assert.FileExists(t, orphan, "nothing may be removed when references are unknown")
}

func TestJanitorStartRejectsBadSchedule(t *testing.T) {
	janitor := NewJanitor(NewStore(t.TempDir()), new(mocks.MockStore), time.Hour)
	assert.Error(t, janitor.Start("not a schedule"))
}

func TestJanitorStartStop(t *testing.T) {
	janitor := NewJanitor(NewStore(t.TempDir()), new(mocks.MockStore), time.Hour)
	require.NoError(t, janitor.Start("@hourly"))
	janitor.Stop()
}
