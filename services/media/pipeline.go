// Package media ingests uploaded lesson videos: files go to the blob store first,
// then the row is inserted, and staged files are deleted if anything after the
// write fails.
package media

import (
	"context"
	"path"
	"strings"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
	"coursehub/services/access"
	"coursehub/services/ordering"
	"coursehub/storage/blob"
	"coursehub/utils"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recorder persists video rows.
type Recorder interface {
	NextPosition(ctx context.Context, courseID uuid.UUID, chapterID *uuid.UUID) (int, error)
	InsertVideo(ctx context.Context, v *courseModels.Video) error
}

type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) NextPosition(ctx context.Context, courseID uuid.UUID, chapterID *uuid.UUID) (int, error) {
	return ordering.NextPosition(ctx, r.db, ordering.VideoScope(courseID, chapterID))
}

func (r *GormRecorder) InsertVideo(ctx context.Context, v *courseModels.Video) error {
	return r.db.WithContext(ctx).Create(v).Error
}

type Metadata struct {
	Title           string
	Description     string
	Position        int // 0 appends to the scope
	Duration        string
	DurationSeconds int
	HasSubtitles    bool
	HasNotes        bool
}

type Request struct {
	Course    *courseModels.Course
	ChapterID *uuid.UUID
	Requestor access.Requestor
	Files     []File
	Meta      Metadata
}

type Result struct {
	ID        uuid.UUID           `json:"id"`
	VideoPath string              `json:"video_path"`
	FileSize  int64               `json:"file_size"`
	CoverPath string              `json:"cover_path,omitempty"`
	Video     *courseModels.Video `json:"-"`
}

// StagedUpload describes a file stored without a metadata row.
type StagedUpload struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type Pipeline struct {
	store    blob.Store
	recorder Recorder
	log      *logger.Logger
}

func NewPipeline(store blob.Store, recorder Recorder, log *logger.Logger) *Pipeline {
	return &Pipeline{store: store, recorder: recorder, log: log.With("service", "MediaIngestionPipeline")}
}

// Ingest stores the primary video (and an optional cover), then inserts the row.
// It is not idempotent: every call stages new files.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	if err := access.RequireManage(req.Course, req.Requestor); err != nil {
		return nil, err
	}
	if countVideoNames(req.Files) > 1 {
		return nil, apperr.Validation(apperr.ReasonMultipleVideos, "Only one video file may be uploaded per request")
	}
	primary, mimeType := selectPrimary(req.Files)
	if primary < 0 {
		return nil, apperr.Validation(apperr.ReasonNoFile, "No video file uploaded")
	}

	chapterDir := ""
	if req.ChapterID != nil {
		chapterDir = req.ChapterID.String()
	}
	videoDir := blob.CourseDir(req.Course.ID.String(), chapterDir)
	if err := p.store.EnsureDir(ctx, videoDir); err != nil {
		p.log.Error("ensure video dir failed", "dir", videoDir, "error", err)
		return nil, apperr.Store(apperr.ReasonBlobFailure, err)
	}

	sg := &saga{store: p.store, log: p.log}

	videoFile := req.Files[primary]
	videoName := utils.GenerateFilename(videoFile.Name)
	videoPath := path.Join(videoDir, videoName)
	size, err := p.write(ctx, videoFile, videoPath)
	if err != nil {
		p.log.Error("write video failed", "path", videoPath, "error", err)
		return nil, apperr.Store(apperr.ReasonBlobFailure, err)
	}
	sg.stage("video", videoPath)

	coverPath := p.writeCover(ctx, sg, req.Files, primary, blob.CoversDir(videoDir))

	title := strings.TrimSpace(req.Meta.Title)
	if title == "" {
		sg.compensate(ctx)
		return nil, apperr.Validation(apperr.ReasonTitleRequired, "Title is required")
	}

	position := req.Meta.Position
	if position < 1 {
		position, err = p.recorder.NextPosition(ctx, req.Course.ID, req.ChapterID)
		if err != nil {
			sg.compensate(ctx)
			p.log.Error("next position failed", "course_id", req.Course.ID, "error", err)
			return nil, apperr.Store(apperr.ReasonStoreFailure, err)
		}
	}

	duration := strings.TrimSpace(req.Meta.Duration)
	if duration == "" {
		duration = "00:00"
	}
	uploader := req.Requestor.UserID
	video := &courseModels.Video{
		CourseID:        req.Course.ID,
		ChapterID:       req.ChapterID,
		AuthorID:        req.Course.AuthorID,
		Title:           title,
		Description:     req.Meta.Description,
		Position:        position,
		VideoFilename:   videoName,
		VideoPath:       videoPath,
		CoverPath:       coverPath,
		Duration:        duration,
		DurationSeconds: req.Meta.DurationSeconds,
		HasSubtitles:    req.Meta.HasSubtitles,
		HasNotes:        req.Meta.HasNotes,
		FileSize:        size,
		MimeType:        mimeType,
		UploadedBy:      &uploader,
	}
	if err := p.recorder.InsertVideo(ctx, video); err != nil {
		sg.compensate(ctx)
		p.log.Error("insert video failed", "course_id", req.Course.ID, "error", err)
		return nil, apperr.Store(apperr.ReasonStoreFailure, err)
	}

	p.log.Info("video ingested", "video_id", video.ID, "course_id", video.CourseID, "size", size)
	return &Result{ID: video.ID, VideoPath: videoPath, FileSize: size, CoverPath: coverPath, Video: video}, nil
}

// Stage stores a single file under the course's video directory with no row.
// The result is a staged file until something references it.
func (p *Pipeline) Stage(ctx context.Context, c *courseModels.Course, r access.Requestor, f File) (*StagedUpload, error) {
	if err := access.RequireManage(c, r); err != nil {
		return nil, err
	}
	dir := blob.CourseDir(c.ID.String(), "")
	if err := p.store.EnsureDir(ctx, dir); err != nil {
		return nil, apperr.Store(apperr.ReasonBlobFailure, err)
	}
	name := utils.GenerateFilename(f.Name)
	target := path.Join(dir, name)
	size, err := p.write(ctx, f, target)
	if err != nil {
		p.log.Error("stage upload failed", "path", target, "error", err)
		return nil, apperr.Store(apperr.ReasonBlobFailure, err)
	}
	return &StagedUpload{Filename: name, Path: target, Size: size, MimeType: utils.MediaTypeFromName(f.Name)}, nil
}

// writeCover is best effort; any failure leaves the video without a cover.
func (p *Pipeline) writeCover(ctx context.Context, sg *saga, files []File, primary int, coversDir string) string {
	idx := selectCover(files, primary)
	if idx < 0 {
		return ""
	}
	if err := p.store.EnsureDir(ctx, coversDir); err != nil {
		p.log.Warn("cover dir unavailable, continuing without cover", "dir", coversDir, "error", err)
		return ""
	}
	coverPath := path.Join(coversDir, utils.GenerateFilename(files[idx].Name))
	if _, err := p.write(ctx, files[idx], coverPath); err != nil {
		p.log.Warn("cover write failed, continuing without cover", "path", coverPath, "error", err)
		return ""
	}
	sg.stage("cover", coverPath)
	return coverPath
}

func (p *Pipeline) write(ctx context.Context, f File, target string) (int64, error) {
	src, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return p.store.Write(ctx, target, src)
}
