package utils

import (
	"context"
	"fmt"
	"time"

	courseModels "coursehub/models/course"

	"github.com/go-resty/resty/v2"
)

// ModerationNotifier tells the moderation queue that a video is waiting for approval.
type ModerationNotifier interface {
	VideoSubmitted(ctx context.Context, v *courseModels.Video) error
}

type webhookNotifier struct {
	client *resty.Client
	url    string
}

// NewModerationNotifier posts to url, or does nothing when url is empty.
func NewModerationNotifier(url string) ModerationNotifier {
	if url == "" {
		return noopNotifier{}
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &webhookNotifier{client: client, url: url}
}

type moderationPayload struct {
	Event     string `json:"event"`
	VideoID   string `json:"video_id"`
	CourseID  string `json:"course_id"`
	ChapterID string `json:"chapter_id,omitempty"`
	Title     string `json:"title"`
	VideoPath string `json:"video_path"`
	MimeType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
}

func (n *webhookNotifier) VideoSubmitted(ctx context.Context, v *courseModels.Video) error {
	payload := moderationPayload{
		Event:     "video.submitted",
		VideoID:   v.ID.String(),
		CourseID:  v.CourseID.String(),
		Title:     v.Title,
		VideoPath: v.VideoPath,
		MimeType:  v.MimeType,
		FileSize:  v.FileSize,
	}
	if v.ChapterID != nil {
		payload.ChapterID = v.ChapterID.String()
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("moderation webhook returned %d", resp.StatusCode())
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) VideoSubmitted(context.Context, *courseModels.Video) error { return nil }
