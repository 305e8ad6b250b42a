// Package access decides who may read or manage a course.
package access

import (
	"coursehub/apperr"
	courseModels "coursehub/models/course"

	"github.com/google/uuid"
)

// Requestor is the caller identity taken from the bearer token.
// A zero UserID means the request is anonymous.
type Requestor struct {
	UserID   uuid.UUID
	Role     string
	Elevated bool
}

func (r Requestor) Anonymous() bool { return r.UserID == uuid.Nil }

// IsAuthor reports whether r authored the course.
func (r Requestor) IsAuthor(c *courseModels.Course) bool {
	return !r.Anonymous() && c.AuthorID == r.UserID
}

// CanManage is true for the author and for elevated roles.
func CanManage(c *courseModels.Course, r Requestor) bool {
	return r.Elevated || r.IsAuthor(c)
}

// RequireManage fails with not_owner unless r may change the course.
func RequireManage(c *courseModels.Course, r Requestor) error {
	if !CanManage(c, r) {
		return apperr.Authorization(apperr.ReasonNotOwner, "Access denied")
	}
	return nil
}

// CheckView applies the read rules. enrolled is consulted only for private courses,
// so callers can pass a lazy lookup.
func CheckView(c *courseModels.Course, r Requestor, enrolled func() (bool, error)) error {
	manager := CanManage(c, r)
	if !c.IsPublished && !manager {
		return apperr.Authorization(apperr.ReasonNotPublished, "Course not published")
	}
	if c.IsPublic || manager {
		return nil
	}
	if r.Anonymous() || enrolled == nil {
		return apperr.Authorization(apperr.ReasonPrivate, "Course is private")
	}
	ok, err := enrolled()
	if err != nil {
		return apperr.Store(apperr.ReasonStoreFailure, err)
	}
	if !ok {
		return apperr.Authorization(apperr.ReasonPrivate, "Course is private")
	}
	return nil
}
