package utils

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	courseModels "coursehub/models/course"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationWebhookPostsVideo(t *testing.T) {
	var got moderationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	chapterID := uuid.New()
	v := &courseModels.Video{ID: uuid.New(), CourseID: uuid.New(), ChapterID: &chapterID, Title: "Intro", VideoPath: "courses/c/videos/a.mp4", FileSize: 42}

	n := NewModerationNotifier(srv.URL)
	require.NoError(t, n.VideoSubmitted(context.Background(), v))
	assert.Equal(t, "video.submitted", got.Event)
	assert.Equal(t, v.ID.String(), got.VideoID)
	assert.Equal(t, chapterID.String(), got.ChapterID)
	assert.EqualValues(t, 42, got.FileSize)
}

func TestModerationWebhookReportsServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewModerationNotifier(srv.URL).VideoSubmitted(context.Background(), &courseModels.Video{})
	assert.Error(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestModerationNotifierDisabledWithoutURL(t *testing.T) {
	assert.NoError(t, NewModerationNotifier("").VideoSubmitted(context.Background(), &courseModels.Video{}))
}

func TestSendgridMailerSendsEnrollmentMail(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := &SendgridMailer{apiKey: "SG.test", sender: "no-reply@example.com", host: srv.URL}
	require.NoError(t, m.SendEnrollmentConfirmation(context.Background(), "student@example.com", "Go <Basics>"))
	assert.Contains(t, body, "student@example.com")
	assert.True(t, strings.Contains(body, "Go \\u003cBasics\\u003e") || strings.Contains(body, "Go <Basics>"))
}

func TestSendgridMailerSurfacesRejections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := &SendgridMailer{apiKey: "bad", sender: "no-reply@example.com", host: srv.URL}
	assert.Error(t, m.SendEnrollmentConfirmation(context.Background(), "a@example.com", "Go"))
}

func TestNewMailerWithoutKeyIsNoop(t *testing.T) {
	m := NewMailer("", "x@example.com", logger.Nop())
	assert.NoError(t, m.SendEnrollmentConfirmation(context.Background(), "a@example.com", "Go"))
}
