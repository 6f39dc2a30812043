package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/middleware"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/response"
)

type fakeDashboardSrv struct {
	data       *dto.DashboardData
	err        error
	hit        bool
	lastUserID int64
}

func (f *fakeDashboardSrv) GetDashboardData(_ context.Context, userID int64) (*dto.DashboardData, bool, error) {
	f.lastUserID = userID
	return f.data, f.hit, f.err
}

type fakePredictionSrv struct {
	result dto.PredictionData
}

func (f *fakePredictionSrv) Calculate(*dto.DashboardData) dto.PredictionData {
	return f.result
}

func authedContext(t *testing.T, rec *httptest.ResponseRecorder, path string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	c.Set(middleware.ContextUserKey, &models.SessionClaims{UserID: 42, UserName: "Test Student"})
	return c
}

func TestDashboardHandlerRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{}, &fakePredictionSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Dashboard(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		data: &dto.DashboardData{Summary: dto.SemesterSummary{TotalCourses: 3}},
		hit:  true,
	}
	handler := NewDashboardHandler(srv, &fakePredictionSrv{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "/dashboard")

	handler.Dashboard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), srv.lastUserID)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var data dto.DashboardData
	require.NoError(t, json.Unmarshal(payload, &data))
	assert.Equal(t, 3, data.Summary.TotalCourses)
}

func TestDashboardHandlerUpstreamError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.ErrUpstream}, &fakePredictionSrv{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "/dashboard")

	handler.Dashboard(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPredictionHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(
		&fakeDashboardSrv{data: &dto.DashboardData{}},
		&fakePredictionSrv{result: dto.PredictionData{PredictedScore: 91.5, PredictedLetterGrade: "A-", Available: true}},
	)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "/dashboard/prediction")

	handler.Prediction(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var prediction dto.PredictionData
	require.NoError(t, json.Unmarshal(payload, &prediction))
	assert.True(t, prediction.Available)
	assert.Equal(t, "A-", prediction.PredictedLetterGrade)
}

func TestPredictionHandlerUnavailableIsStillOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{data: &dto.DashboardData{}}, &fakePredictionSrv{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "/dashboard/prediction")

	handler.Prediction(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
