package canvas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdash/canvas-dashboard-api/pkg/config"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CanvasConfig{BaseURL: srv.URL, Timeout: time.Second, PerPage: 50}, nil)
}

func TestClientSendsBearerTokenAndPerPage(t *testing.T) {
	var gotAuth, gotPerPage string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	ctx := WithToken(context.Background(), "tok-123")
	_, err := client.ActiveCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "50", gotPerPage)
}

func TestClientDecodesCourses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("enrollment_state"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":101,"name":"Data Structures","course_code":"CC2008","workflow_state":"available"}]`))
	})

	courses, err := client.ActiveCourses(WithToken(context.Background(), "tok"))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(101), courses[0].ID)
	assert.Equal(t, "CC2008", courses[0].CourseCode)
}

func TestClientDecodesEnrollmentGrades(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"course_id":101,"enrollment_state":"active","grades":{"current_score":91.5,"final_score":88.2,"current_grade":"A-"}}]`))
	})

	enrollments, err := client.Enrollments(WithToken(context.Background(), "tok"))
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.NotNil(t, enrollments[0].Grades.CurrentScore)
	assert.InDelta(t, 91.5, *enrollments[0].Grades.CurrentScore, 0.001)
	require.NotNil(t, enrollments[0].Grades.CurrentGrade)
	assert.Equal(t, "A-", *enrollments[0].Grades.CurrentGrade)
}

func TestClientDecodesNullableAssignmentFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":7,"name":"Lab 1","due_at":"2026-09-08T23:59:00Z","points_possible":25,"assignment_group_id":3,"workflow_state":"published"},{"id":8,"name":"Survey","due_at":null,"points_possible":null,"assignment_group_id":null,"workflow_state":"published"}]`))
	})

	assignments, err := client.Assignments(WithToken(context.Background(), "tok"), 101)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NotNil(t, assignments[0].DueAt)
	assert.Equal(t, 2026, assignments[0].DueAt.Year())
	assert.Nil(t, assignments[1].DueAt)
	assert.Nil(t, assignments[1].PointsPossible)
	assert.Nil(t, assignments[1].AssignmentGroupID)
}

func TestClientMissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent without a token")
	})

	_, err := client.ActiveCourses(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestClientRejectedToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Self(WithToken(context.Background(), "bad"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestClientUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Submissions(WithToken(context.Background(), "tok"), 101)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
