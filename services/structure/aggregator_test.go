package structure

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"coursehub/apperr"
	"coursehub/database"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves canned rows and lets each chapter fetch be delayed or failed.
type fakeStore struct {
	course   *courseModels.Course
	enrolled bool
	chapters []courseModels.Chapter
	unfiled  []courseModels.Video
	videos   map[uuid.UUID][]courseModels.Video
	delay    map[uuid.UUID]time.Duration
	fail     map[uuid.UUID]error
	block    map[uuid.UUID]bool

	chapterQueries atomic.Int32
	videoQueries   atomic.Int32
	released       atomic.Int32
}

func (f *fakeStore) Course(ctx context.Context, id uuid.UUID) (*courseModels.Course, error) {
	if f.course == nil || f.course.ID != id {
		return nil, apperr.NotFound(apperr.ReasonCourseNotFound, "Course not found")
	}
	return f.course, nil
}

func (f *fakeStore) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	return f.enrolled, nil
}

func (f *fakeStore) Chapters(ctx context.Context, courseID uuid.UUID) ([]courseModels.Chapter, error) {
	f.chapterQueries.Add(1)
	return f.chapters, nil
}

func (f *fakeStore) UnfiledVideos(ctx context.Context, courseID uuid.UUID) ([]courseModels.Video, error) {
	f.videoQueries.Add(1)
	return f.unfiled, nil
}

func (f *fakeStore) ChapterVideos(ctx context.Context, courseID, chapterID uuid.UUID) ([]courseModels.Video, error) {
	f.videoQueries.Add(1)
	if f.block[chapterID] {
		<-ctx.Done()
		f.released.Add(1)
		return nil, ctx.Err()
	}
	if d := f.delay[chapterID]; d > 0 {
		time.Sleep(d)
	}
	if err := f.fail[chapterID]; err != nil {
		return nil, err
	}
	return f.videos[chapterID], nil
}

func video(courseID uuid.UUID, chapterID *uuid.UUID, pos int) courseModels.Video {
	return courseModels.Video{
		ID:         uuid.New(),
		CourseID:   courseID,
		ChapterID:  chapterID,
		Title:      "v",
		Position:   pos,
		VideoPath:  "courses/x/videos/" + uuid.NewString() + ".mp4",
		IsApproved: true,
	}
}

func newChapters(courseID uuid.UUID, n int) []courseModels.Chapter {
	out := make([]courseModels.Chapter, n)
	for i := range out {
		out[i] = courseModels.Chapter{ID: uuid.New(), CourseID: courseID, Title: "ch", Position: i + 1}
	}
	return out
}

func TestBuildWithoutChapters(t *testing.T) {
	courseID := uuid.New()
	store := &fakeStore{unfiled: []courseModels.Video{video(courseID, nil, 2), video(courseID, nil, 1)}}
	agg := NewAggregator(store, logger.Nop())

	s, err := agg.Build(context.Background(), courseID)
	require.NoError(t, err)
	require.Nil(t, s.Chapters)
	require.Len(t, s.VideosWithoutChapters, 2)
	assert.Equal(t, 1, s.VideosWithoutChapters[0].Position)
	assert.EqualValues(t, 1, store.videoQueries.Load())

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &shape))
	assert.Contains(t, shape, "videos_without_chapters")
	assert.NotContains(t, shape, "chapters")
}

func TestBuildEmptyCourseRendersEmptyList(t *testing.T) {
	agg := NewAggregator(&fakeStore{}, logger.Nop())
	s, err := agg.Build(context.Background(), uuid.New())
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"videos_without_chapters":[]}`, string(raw))
}

func TestBuildJoinsOutOfOrderCompletions(t *testing.T) {
	courseID := uuid.New()
	chapters := newChapters(courseID, 4)
	store := &fakeStore{
		chapters: chapters,
		videos:   map[uuid.UUID][]courseModels.Video{},
		delay:    map[uuid.UUID]time.Duration{},
	}
	for i, ch := range chapters {
		id := ch.ID
		store.videos[id] = []courseModels.Video{video(courseID, &id, 2), video(courseID, &id, 1)}
		// First chapter finishes last.
		store.delay[id] = time.Duration(len(chapters)-i) * 10 * time.Millisecond
	}
	agg := NewAggregator(store, logger.Nop())

	s, err := agg.Build(context.Background(), courseID)
	require.NoError(t, err)
	require.Len(t, s.Chapters, 4)
	for i, node := range s.Chapters {
		assert.Equal(t, i+1, node.Position)
		require.Len(t, node.Videos, 2)
		assert.Equal(t, 1, node.Videos[0].Position)
		assert.Equal(t, 2, node.Videos[1].Position)
	}
	assert.EqualValues(t, 4, store.videoQueries.Load())
}

func TestBuildSkipsMalformedRows(t *testing.T) {
	courseID := uuid.New()
	chapters := newChapters(courseID, 1)
	id := chapters[0].ID
	good := video(courseID, &id, 1)
	noPath := video(courseID, &id, 2)
	noPath.VideoPath = ""
	noID := video(courseID, &id, 3)
	noID.ID = uuid.Nil

	store := &fakeStore{
		chapters: chapters,
		videos:   map[uuid.UUID][]courseModels.Video{id: {good, noPath, noID}},
	}
	s, err := NewAggregator(store, logger.Nop()).Build(context.Background(), courseID)
	require.NoError(t, err)
	require.Len(t, s.Chapters[0].Videos, 1)
	assert.Equal(t, good.ID, s.Chapters[0].Videos[0].ID)
}

func TestBuildFailsFastWithoutWaitingForStragglers(t *testing.T) {
	courseID := uuid.New()
	chapters := newChapters(courseID, 3)
	store := &fakeStore{
		chapters: chapters,
		fail:     map[uuid.UUID]error{chapters[1].ID: errors.New("connection reset")},
		block:    map[uuid.UUID]bool{chapters[0].ID: true, chapters[2].ID: true},
	}
	agg := NewAggregator(store, logger.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := agg.Build(context.Background(), courseID)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, apperr.ReasonStoreFailure, apperr.As(err).Reason)
		assert.NotContains(t, apperr.As(err).Message, "connection reset")
	case <-time.After(2 * time.Second):
		t.Fatal("Build waited for blocked fetches")
	}

	// The blocked fetches are released by cancellation and exit on their own.
	require.Eventually(t, func() bool { return store.released.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestBuildReturnsExactlyOnceForManyChapters(t *testing.T) {
	courseID := uuid.New()
	chapters := newChapters(courseID, 50)
	store := &fakeStore{chapters: chapters, videos: map[uuid.UUID][]courseModels.Video{}}
	agg := NewAggregator(store, logger.Nop())

	first, err := agg.Build(context.Background(), courseID)
	require.NoError(t, err)
	second, err := agg.Build(context.Background(), courseID)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Len(t, first.Chapters, 50)
}

func TestAuthorizeRunsBeforeAnyContentQuery(t *testing.T) {
	courseID := uuid.New()
	store := &fakeStore{course: &courseModels.Course{ID: courseID, AuthorID: uuid.New(), IsPublished: false, IsPublic: true}}
	agg := NewAggregator(store, logger.Nop())

	_, err := agg.Authorize(context.Background(), courseID, access.Requestor{UserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonNotPublished, apperr.As(err).Reason)
	assert.Zero(t, store.chapterQueries.Load())
	assert.Zero(t, store.videoQueries.Load())

	_, err = agg.Authorize(context.Background(), uuid.New(), access.Requestor{})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGormStoreFiltersApprovedAndScope(t *testing.T) {
	db := database.OpenTest(t)
	ctx := context.Background()

	c := courseModels.Course{AuthorID: uuid.New(), Title: "Go", IsPublished: true, IsPublic: true}
	require.NoError(t, db.Create(&c).Error)
	ch2 := courseModels.Chapter{CourseID: c.ID, Title: "B", Position: 2}
	ch1 := courseModels.Chapter{CourseID: c.ID, Title: "A", Position: 1}
	require.NoError(t, db.Create(&ch2).Error)
	require.NoError(t, db.Create(&ch1).Error)

	approved := video(c.ID, &ch1.ID, 1)
	approved.ID = uuid.Nil
	pending := video(c.ID, &ch1.ID, 2)
	pending.ID = uuid.Nil
	unfiled := video(c.ID, nil, 1)
	unfiled.ID = uuid.Nil
	require.NoError(t, db.Create(&approved).Error)
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Model(&pending).Update("is_approved", false).Error)
	require.NoError(t, db.Create(&unfiled).Error)

	store := NewGormStore(db)
	agg := NewAggregator(store, logger.Nop())

	s, err := agg.Build(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, s.Chapters, 2)
	assert.Equal(t, "A", s.Chapters[0].Title)
	require.Len(t, s.Chapters[0].Videos, 1)
	assert.Equal(t, approved.ID, s.Chapters[0].Videos[0].ID)
	assert.Empty(t, s.Chapters[1].Videos)

	// Unfiled videos are ignored once a course has chapters.
	raw, _ := json.Marshal(s)
	assert.NotContains(t, string(raw), "videos_without_chapters")

	enrolled, err := store.IsEnrolled(ctx, uuid.New(), c.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}
