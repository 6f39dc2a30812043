package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
)

type fakeCardSrv struct {
	card   *dto.CourseCard
	err    error
	lastID int64
}

func (f *fakeCardSrv) GetCourseCard(_ context.Context, courseID int64) (*dto.CourseCard, error) {
	f.lastID = courseID
	return f.card, f.err
}

func TestCourseCardSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCardSrv{card: &dto.CourseCard{Course: models.Course{ID: 12, Name: "Biology"}}}
	handler := NewCourseHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/12/card", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}}

	handler.Card(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), srv.lastID)
}

func TestCourseCardInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(&fakeCardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/abc/card", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Card(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseCardNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(&fakeCardSrv{err: appErrors.ErrNotFound})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/99/card", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	handler.Card(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
