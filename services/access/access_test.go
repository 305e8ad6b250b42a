package access

import (
	"errors"
	"testing"

	"coursehub/apperr"
	courseModels "coursehub/models/course"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckView(t *testing.T) {
	author := uuid.New()
	stranger := uuid.New()

	never := func() (bool, error) { t.Fatal("enrollment lookup not expected"); return false, nil }
	yes := func() (bool, error) { return true, nil }
	no := func() (bool, error) { return false, nil }
	broken := func() (bool, error) { return false, errors.New("db down") }

	cases := []struct {
		name      string
		published bool
		public    bool
		req       Requestor
		enrolled  func() (bool, error)
		reason    string
	}{
		{"published public anonymous", true, true, Requestor{}, never, ""},
		{"unpublished stranger", false, true, Requestor{UserID: stranger}, never, apperr.ReasonNotPublished},
		{"unpublished author", false, false, Requestor{UserID: author}, never, ""},
		{"unpublished elevated", false, false, Requestor{UserID: stranger, Elevated: true}, never, ""},
		{"private anonymous", true, false, Requestor{}, never, apperr.ReasonPrivate},
		{"private enrolled", true, false, Requestor{UserID: stranger}, yes, ""},
		{"private not enrolled", true, false, Requestor{UserID: stranger}, no, apperr.ReasonPrivate},
		{"private lookup fails", true, false, Requestor{UserID: stranger}, broken, apperr.ReasonStoreFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &courseModels.Course{AuthorID: author, IsPublished: tc.published, IsPublic: tc.public}
			err := CheckView(c, tc.req, tc.enrolled)
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.reason, apperr.As(err).Reason)
		})
	}
}

func TestRequireManage(t *testing.T) {
	author := uuid.New()
	c := &courseModels.Course{AuthorID: author}

	assert.NoError(t, RequireManage(c, Requestor{UserID: author}))
	assert.NoError(t, RequireManage(c, Requestor{UserID: uuid.New(), Elevated: true}))

	err := RequireManage(c, Requestor{UserID: uuid.New()})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	assert.Error(t, RequireManage(c, Requestor{}))
}
