// Package blob is the file side of media ingestion. Paths handed to and returned
// from a Store are always slash-separated and relative to the store root, e.g.
// "courses/<course>/videos/<uuid>.mp4". That relative form is what gets persisted
// in video_path and cover_path.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidPath is returned for empty, absolute or escaping paths.
var ErrInvalidPath = errors.New("blob: invalid path")

// Store is the minimal contract media ingestion and the orphan scanner need.
// None of the operations participate in a database transaction.
type Store interface {
	// EnsureDir creates dir and its parents. Backends without directories treat it as a no-op.
	EnsureDir(ctx context.Context, dir string) error
	// Write streams r into p and returns the number of bytes stored.
	Write(ctx context.Context, p string, r io.Reader) (int64, error)
	// Delete removes p. Deleting a missing file is not an error.
	Delete(ctx context.Context, p string) error
	Exists(ctx context.Context, p string) (bool, error)
	// List returns every file path below prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// CourseDir returns the directory that holds a course's (or a chapter's) video files.
func CourseDir(courseID, chapterID string) string {
	if chapterID == "" {
		return path.Join("courses", courseID, "videos")
	}
	return path.Join("courses", courseID, "chapters", chapterID, "videos")
}

// CoversDir returns the covers directory sitting next to a videos directory.
func CoversDir(videoDir string) string {
	return path.Join(path.Dir(videoDir), "covers")
}

// Clean normalises p and rejects anything that would leave the store root.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
