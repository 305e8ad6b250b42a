package blob

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreWriteDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	dir := CourseDir("c1", "")
	require.NoError(t, store.EnsureDir(ctx, dir))

	n, err := store.Write(ctx, dir+"/a.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, len("video-bytes"), n)

	ok, err := store.Exists(ctx, dir+"/a.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, dir+"/a.mp4"))
	ok, err = store.Exists(ctx, dir+"/a.mp4")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(ctx, dir+"/a.mp4"))
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	for _, p := range []string{"", "/etc/passwd", "../outside", "courses/../../x"} {
		_, err := store.Write(ctx, p, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestLocalStoreListAndRelativePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewLocalStore(base)

	_, err := store.Write(ctx, "courses/c1/videos/v.mp4", strings.NewReader("v"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "courses/c1/covers/c.png", strings.NewReader("c"))
	require.NoError(t, err)

	files, err := store.List(ctx, "courses")
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{"courses/c1/covers/c.png", "courses/c1/videos/v.mp4"}, files)

	full, err := store.FullPath("courses/c1/videos/v.mp4")
	require.NoError(t, err)
	_, err = os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, "courses/c1/videos/v.mp4", store.RelativePath(full))

	missing, err := store.List(ctx, "courses/none")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDirectoryLayout(t *testing.T) {
	assert.Equal(t, "courses/c1/videos", CourseDir("c1", ""))
	assert.Equal(t, "courses/c1/chapters/ch1/videos", CourseDir("c1", "ch1"))
	assert.Equal(t, "courses/c1/covers", CoversDir(CourseDir("c1", "")))
	assert.Equal(t, "courses/c1/chapters/ch1/covers", CoversDir(CourseDir("c1", "ch1")))
}
