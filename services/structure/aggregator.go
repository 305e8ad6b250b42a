// Package structure assembles the chapter/video tree of a course.
package structure

import (
	"context"
	"encoding/json"
	"sort"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"coursehub/utils/logger"

	"github.com/google/uuid"
)

// ChapterNode is a chapter with its approved videos attached.
type ChapterNode struct {
	courseModels.Chapter
	Videos []courseModels.Video `json:"videos"`
}

// Structure has exactly one populated shape: Chapters when the course has any,
// otherwise VideosWithoutChapters.
type Structure struct {
	Chapters              []ChapterNode
	VideosWithoutChapters []courseModels.Video
}

func (s Structure) MarshalJSON() ([]byte, error) {
	if s.Chapters != nil {
		return json.Marshal(map[string]interface{}{"chapters": s.Chapters})
	}
	videos := s.VideosWithoutChapters
	if videos == nil {
		videos = []courseModels.Video{}
	}
	return json.Marshal(map[string]interface{}{"videos_without_chapters": videos})
}

type Aggregator struct {
	store Store
	log   *logger.Logger
}

func NewAggregator(store Store, log *logger.Logger) *Aggregator {
	return &Aggregator{store: store, log: log.With("service", "StructureAggregator")}
}

// Authorize loads the course and applies the read rules. No chapter or video
// query is issued when it fails.
func (a *Aggregator) Authorize(ctx context.Context, courseID uuid.UUID, req access.Requestor) (*courseModels.Course, error) {
	c, err := a.store.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	err = access.CheckView(c, req, func() (bool, error) {
		return a.store.IsEnrolled(ctx, req.UserID, courseID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Build fetches chapters, then fans out one video fetch per chapter and joins them.
// The first failed fetch ends the call; fetches still in flight are cancelled and
// their results dropped.
func (a *Aggregator) Build(ctx context.Context, courseID uuid.UUID) (*Structure, error) {
	chapters, err := a.store.Chapters(ctx, courseID)
	if err != nil {
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}

	if len(chapters) == 0 {
		videos, err := a.store.UnfiledVideos(ctx, courseID)
		if err != nil {
			return nil, apperr.Store(apperr.ReasonStoreFailure, err)
		}
		return &Structure{VideosWithoutChapters: a.keepWellFormed(videos)}, nil
	}

	nodes := make([]ChapterNode, len(chapters))
	for i, ch := range chapters {
		nodes[i] = ChapterNode{Chapter: ch, Videos: []courseModels.Video{}}
	}

	fan := newFanIn(ctx, len(nodes))
	defer fan.cancel()
	for i := range nodes {
		chapterID := nodes[i].ID
		fan.launch(i, func(ctx context.Context) ([]courseModels.Video, error) {
			return a.store.ChapterVideos(ctx, courseID, chapterID)
		})
	}

	err = fan.wait(func(index int, videos []courseModels.Video) {
		nodes[index].Videos = a.keepWellFormed(videos)
	})
	if err != nil {
		a.log.Error("chapter video fetch failed", "course_id", courseID, "error", err)
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}

	// Completion order is arbitrary; positions decide the output order.
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Position < nodes[j].Position })
	return &Structure{Chapters: nodes}, nil
}

// keepWellFormed drops rows that cannot be rendered and sorts the rest by position.
func (a *Aggregator) keepWellFormed(videos []courseModels.Video) []courseModels.Video {
	out := make([]courseModels.Video, 0, len(videos))
	for _, v := range videos {
		if v.ID == uuid.Nil || v.VideoPath == "" || v.Position < 1 {
			a.log.Warn("skipping malformed video row", "video_id", v.ID, "course_id", v.CourseID)
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
