package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/middleware"
	"github.com/madrasah-labs/class-review-api/internal/models"
	"github.com/madrasah-labs/class-review-api/internal/service"
)

type fakeVideoRepo struct {
	video *models.Video
}

func (f *fakeVideoRepo) Create(ctx context.Context, video *models.Video) error { return nil }

func (f *fakeVideoRepo) FindByID(ctx context.Context, id string) (*models.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.video, nil
}

func (f *fakeVideoRepo) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	return nil, 0, nil
}

func (f *fakeVideoRepo) AssignReviewer(ctx context.Context, id, reviewerID string, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeVideoRepo) SetReview(ctx context.Context, id, reviewerID string, payload []byte, language bool, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeVideoRepo) Publish(ctx context.Context, id string, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeVideoRepo) SetTeacherComment(ctx context.Context, id, teacherID string, payload []byte, now time.Time) (bool, error) {
	return false, nil
}

type fakeVideoUserRepo struct{}

func (fakeVideoUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func newVideoHandler(repo *fakeVideoRepo) *VideoHandler {
	return NewVideoHandler(service.NewVideoService(repo, fakeVideoUserRepo{}, nil, nil, nil, nil))
}

func videoContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	return c, rec
}

func TestVideoHandlerCreateWithoutClaims(t *testing.T) {
	handler := newVideoHandler(&fakeVideoRepo{})

	c, rec := videoContext(t, http.MethodPost, "/videos", `{}`)
	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVideoHandlerGetNotFound(t *testing.T) {
	handler := newVideoHandler(&fakeVideoRepo{})

	c, rec := videoContext(t, http.MethodGet, "/videos/absent", "")
	c.Params = gin.Params{{Key: "id", Value: "absent"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVideoHandlerGetCollapsedReferences(t *testing.T) {
	handler := newVideoHandler(&fakeVideoRepo{video: &models.Video{
		ID:          "v1",
		TeacherID:   "t1",
		TeacherName: "Ustadh Bilal",
		Status:      models.StatusUnassigned,
	}})

	c, rec := videoContext(t, http.MethodGet, "/videos/v1?expand=false", "")
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"t1"`)
	assert.NotContains(t, rec.Body.String(), "Ustadh Bilal")
}

func TestVideoHandlerTeacherCommentRequiresClaims(t *testing.T) {
	handler := newVideoHandler(&fakeVideoRepo{})

	c, rec := videoContext(t, http.MethodPost, "/videos/v1/teacher-comment", `{"comment":"thanks"}`)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.TeacherComment(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVideoHandlerMyAssignedUsesClaims(t *testing.T) {
	handler := newVideoHandler(&fakeVideoRepo{})

	c, rec := videoContext(t, http.MethodGet, "/videos/my-assigned", "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "r1", Roles: []string{string(models.RoleAdmin)}})
	handler.MyAssigned(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
