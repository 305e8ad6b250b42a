package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"coursehub/apperr"
	"coursehub/database"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"coursehub/storage/blob"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func memFile(name, body string) File {
	return File{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

type failingRecorder struct{ err error }

func (f failingRecorder) NextPosition(context.Context, uuid.UUID, *uuid.UUID) (int, error) {
	return 1, nil
}

func (f failingRecorder) InsertVideo(context.Context, *courseModels.Video) error { return f.err }

// coverFailStore fails every write into a covers directory and can fail deletes.
type coverFailStore struct {
	*blob.LocalStore
	failDeletes bool
	writes      int
}

func (s *coverFailStore) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	s.writes++
	if strings.Contains(p, "/covers/") {
		return 0, errors.New("disk full")
	}
	return s.LocalStore.Write(ctx, p, r)
}

func (s *coverFailStore) Delete(ctx context.Context, p string) error {
	if s.failDeletes {
		return errors.New("permission denied")
	}
	return s.LocalStore.Delete(ctx, p)
}

type env struct {
	store  *blob.LocalStore
	course *courseModels.Course
	author access.Requestor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	author := uuid.New()
	return &env{
		store:  blob.NewLocalStore(t.TempDir()),
		course: &courseModels.Course{ID: uuid.New(), AuthorID: author, Title: "Go"},
		author: access.Requestor{UserID: author},
	}
}

func (e *env) files(t *testing.T) []string {
	t.Helper()
	files, err := e.store.List(context.Background(), "courses")
	require.NoError(t, err)
	return files
}

func TestIngestHappyPathWithCover(t *testing.T) {
	e := newEnv(t)
	db := database.OpenTest(t)
	require.NoError(t, db.Create(e.course).Error)
	p := NewPipeline(e.store, NewGormRecorder(db), logger.Nop())

	res, err := p.Ingest(context.Background(), Request{
		Course:    e.course,
		Requestor: e.author,
		Files:     []File{memFile("poster.png", "img"), memFile("lesson.mp4", "video-data")},
		Meta:      Metadata{Title: "  Intro  "},
	})
	require.NoError(t, err)
	assert.EqualValues(t, len("video-data"), res.FileSize)
	assert.True(t, strings.HasPrefix(res.VideoPath, "courses/"+e.course.ID.String()+"/videos/"))
	assert.True(t, strings.HasPrefix(res.CoverPath, "courses/"+e.course.ID.String()+"/covers/"))
	assert.Len(t, e.files(t), 2)

	var stored courseModels.Video
	require.NoError(t, db.First(&stored, "id = ?", res.ID).Error)
	assert.Equal(t, "Intro", stored.Title)
	assert.Equal(t, 1, stored.Position)
	assert.Equal(t, "video/mp4", stored.MimeType)
	assert.False(t, stored.IsApproved)
	assert.Nil(t, stored.ChapterID)
	require.NotNil(t, stored.UploadedBy)
	assert.Equal(t, e.author.UserID, *stored.UploadedBy)

	// A second upload appends to the scope.
	res2, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("b.webm", "x")},
		Meta:  Metadata{Title: "Second"},
	})
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, "id = ?", res2.ID).Error)
	assert.Equal(t, 2, stored.Position)
}

func TestIngestChapterScopeUsesChapterDirectory(t *testing.T) {
	e := newEnv(t)
	chapterID := uuid.New()
	p := NewPipeline(e.store, failingRecorder{}, logger.Nop())

	res, err := p.Ingest(context.Background(), Request{
		Course: e.course, ChapterID: &chapterID, Requestor: e.author,
		Files: []File{memFile("lesson.mov", "v"), memFile("thumb.jpg", "c")},
		Meta:  Metadata{Title: "T", Position: 4},
	})
	require.NoError(t, err)
	prefix := "courses/" + e.course.ID.String() + "/chapters/" + chapterID.String()
	assert.True(t, strings.HasPrefix(res.VideoPath, prefix+"/videos/"))
	assert.True(t, strings.HasPrefix(res.CoverPath, prefix+"/covers/"))
	assert.Equal(t, 4, res.Video.Position)
}

func TestIngestMissingTitleLeavesNoStagedFiles(t *testing.T) {
	e := newEnv(t)
	p := NewPipeline(e.store, failingRecorder{}, logger.Nop())

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("lesson.mp4", "v"), memFile("cover.png", "c")},
		Meta:  Metadata{Title: "   "},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperr.As(err).Status())
	assert.Equal(t, apperr.ReasonTitleRequired, apperr.As(err).Reason)
	assert.Empty(t, e.files(t))
}

func TestIngestInsertFailureCompensates(t *testing.T) {
	e := newEnv(t)
	p := NewPipeline(e.store, failingRecorder{err: errors.New("duplicate key")}, logger.Nop())

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("lesson.mp4", "v"), memFile("cover.png", "c")},
		Meta:  Metadata{Title: "T"},
	})
	require.Error(t, err)
	assert.Equal(t, 500, apperr.As(err).Status())
	assert.NotContains(t, apperr.As(err).Message, "duplicate key")
	assert.Empty(t, e.files(t))
}

func TestIngestCompensationFailureKeepsPrimaryError(t *testing.T) {
	e := newEnv(t)
	store := &coverFailStore{LocalStore: e.store, failDeletes: true}
	core, logs := observer.New(zap.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	p := NewPipeline(store, failingRecorder{err: errors.New("db down")}, log)

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("lesson.mp4", "v")},
		Meta:  Metadata{Title: "T"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonStoreFailure, apperr.As(err).Reason)
	// The orphan stays behind and is left for the scanner to report.
	assert.Len(t, e.files(t), 1)

	failed := logs.FilterMessage("compensating delete failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "permission denied", fields["error"])
	assert.Equal(t, "video", fields["kind"])
	assert.NotContains(t, fields, "err")
}

func TestIngestCoverFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	db := database.OpenTest(t)
	store := &coverFailStore{LocalStore: e.store}
	p := NewPipeline(store, NewGormRecorder(db), logger.Nop())

	res, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("lesson.mp4", "v"), memFile("cover.png", "c")},
		Meta:  Metadata{Title: "T"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.CoverPath)
	assert.Equal(t, 2, store.writes)
}

func TestIngestRejectsNonOwnerBeforeTouchingStorage(t *testing.T) {
	e := newEnv(t)
	store := &coverFailStore{LocalStore: e.store}
	p := NewPipeline(store, failingRecorder{}, logger.Nop())

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: access.Requestor{UserID: uuid.New()},
		Files: []File{memFile("lesson.mp4", "v")},
		Meta:  Metadata{Title: "T"},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	assert.Zero(t, store.writes)
}

func TestIngestWithoutVideoFile(t *testing.T) {
	e := newEnv(t)
	p := NewPipeline(e.store, failingRecorder{}, logger.Nop())

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("notes.txt", "hello")},
		Meta:  Metadata{Title: "T"},
	})
	assert.Equal(t, apperr.ReasonNoFile, apperr.As(err).Reason)
	assert.Empty(t, e.files(t))
}

func TestIngestRejectsSecondVideoFile(t *testing.T) {
	e := newEnv(t)
	store := &coverFailStore{LocalStore: e.store}
	p := NewPipeline(store, failingRecorder{}, logger.Nop())

	_, err := p.Ingest(context.Background(), Request{
		Course: e.course, Requestor: e.author,
		Files: []File{memFile("part1.mp4", "v"), memFile("cover.jpg", "c"), memFile("part2.webm", "v")},
		Meta:  Metadata{Title: "T"},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, apperr.ReasonMultipleVideos, apperr.As(err).Reason)
	assert.Zero(t, store.writes)
	assert.Empty(t, e.files(t))
}

func TestSelection(t *testing.T) {
	files := []File{memFile("image-of-lesson.mp4", "v"), memFile("a.png", "x"), memFile("my-cover.jpg", "c")}
	primary, mt := selectPrimary(files)
	assert.Equal(t, 0, primary)
	assert.Equal(t, "video/mp4", mt)
	// Keyword match wins over extension order, and the primary is never the cover.
	assert.Equal(t, 2, selectCover(files, primary))

	assert.Equal(t, 1, selectCover([]File{memFile("v.mp4", "v"), memFile("b.webp", "x")}, 0))
	assert.Equal(t, -1, selectCover([]File{memFile("v.mp4", "v"), memFile("doc.pdf", "x")}, 0))
}

func TestStageWritesRawFile(t *testing.T) {
	e := newEnv(t)
	p := NewPipeline(e.store, failingRecorder{}, logger.Nop())

	staged, err := p.Stage(context.Background(), e.course, e.author, memFile("raw.mkv", "abc"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, staged.Size)
	assert.Equal(t, "video/x-matroska", staged.MimeType)
	ok, err := e.store.Exists(context.Background(), staged.Path)
	require.NoError(t, err)
	assert.True(t, ok)
}
