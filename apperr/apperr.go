// Package apperr carries the error taxonomy shared by services and handlers.
// Every error has a stable machine reason; the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindNotFound
	KindStore
)

// Reasons surfaced to callers.
const (
	ReasonInvalidID         = "invalid_id"
	ReasonInvalidBody       = "invalid_body"
	ReasonEmptyList         = "empty_list"
	ReasonDuplicateID       = "duplicate_id"
	ReasonMissingField      = "missing_field"
	ReasonInvalidPosition   = "invalid_position"
	ReasonNoFile            = "no_file"
	ReasonMultipleVideos    = "multiple_video_files"
	ReasonTitleRequired     = "title_required"
	ReasonNotOwner          = "not_owner"
	ReasonNotElevated       = "not_elevated"
	ReasonNotPublished      = "course_not_published"
	ReasonPrivate           = "course_private"
	ReasonUnauthorized      = "unauthorized"
	ReasonCourseNotFound    = "course_not_found"
	ReasonChapterNotFound   = "chapter_not_found"
	ReasonVideoNotFound     = "video_not_found"
	ReasonItemNotInScope    = "item_not_in_scope"
	ReasonAlreadyEnrolled   = "already_enrolled"
	ReasonNotEnrolled       = "not_enrolled"
	ReasonStoreFailure      = "store_failure"
	ReasonBlobFailure       = "blob_failure"
	ReasonInternal          = "internal_error"
	ReasonUploadTooLarge    = "upload_too_large"
	ReasonUnsupportedMedia  = "unsupported_media"
	ReasonNothingToUpdate   = "nothing_to_update"
	ReasonCourseUnavailable = "course_unavailable"
)

type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(reason, message string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message}
}

func Authorization(reason, message string) *Error {
	return &Error{Kind: KindAuthorization, Reason: reason, Message: message}
}

func NotFound(reason, message string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason, Message: message}
}

func Store(reason string, err error) *Error {
	return &Error{Kind: KindStore, Reason: reason, Message: "Internal server error", Err: err}
}

// As unwraps err into an *Error. Errors outside the taxonomy become internal store errors.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Store(ReasonInternal, err)
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
