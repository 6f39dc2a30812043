package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
)

type fakeRecordProvider struct {
	mu          sync.Mutex
	courses     []models.Course
	enrollments []models.Enrollment
	assignments map[int64][]models.Assignment
	submissions map[int64][]models.Submission
	groups      map[int64][]models.AssignmentGroup
	failCourses map[int64]error
	calls       int
}

func (f *fakeRecordProvider) countCall() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeRecordProvider) ListActiveCourses(ctx context.Context) ([]models.Course, error) {
	f.countCall()
	return f.courses, nil
}

func (f *fakeRecordProvider) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	f.countCall()
	return f.enrollments, nil
}

func (f *fakeRecordProvider) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	f.countCall()
	if err := f.failCourses[courseID]; err != nil {
		return nil, err
	}
	return f.assignments[courseID], nil
}

func (f *fakeRecordProvider) ListSubmissions(ctx context.Context, courseID int64) ([]models.Submission, error) {
	f.countCall()
	return f.submissions[courseID], nil
}

func (f *fakeRecordProvider) ListAssignmentGroups(ctx context.Context, courseID int64) ([]models.AssignmentGroup, error) {
	f.countCall()
	return f.groups[courseID], nil
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	m.entries = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

func newTestDashboardService(records RecordProvider, cache *CacheService) *DashboardService {
	grades := NewGradeService(5, nil)
	courses := NewCourseService(grades, NewCategoryService(), CourseServiceConfig{}, nil)
	return NewDashboardService(DashboardServiceParams{
		Records: records,
		Courses: courses,
		Grades:  grades,
		Cache:   cache,
	})
}

func TestGetDashboardDataDropsFailingCourse(t *testing.T) {
	provider := &fakeRecordProvider{
		assignments: map[int64][]models.Assignment{},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
		failCourses: map[int64]error{7: appErrors.ErrUpstream},
	}
	for i := 1; i <= 10; i++ {
		id := int64(i)
		provider.courses = append(provider.courses, models.Course{ID: id, Name: "Course", WorkflowState: "available"})
		provider.assignments[id] = []models.Assignment{pointsAssignment(id*100, 100)}
	}

	svc := newTestDashboardService(provider, nil)

	data, cached, err := svc.GetDashboardData(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, data)
	assert.Len(t, data.CourseCards, 9)
	for _, card := range data.CourseCards {
		assert.NotEqual(t, int64(7), card.Course.ID)
	}
}

func TestGetDashboardDataMergesUpcoming(t *testing.T) {
	now := time.Now()
	provider := &fakeRecordProvider{
		assignments: map[int64][]models.Assignment{},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
	}
	// Three courses, six upcoming assignments each; only the ten soonest
	// survive the merge.
	var assignmentID int64
	for c := 1; c <= 3; c++ {
		courseID := int64(c)
		provider.courses = append(provider.courses, models.Course{ID: courseID, Name: "Course"})
		for a := 0; a < 6; a++ {
			assignmentID++
			due := now.Add(time.Duration(assignmentID) * time.Hour)
			assignment := pointsAssignment(assignmentID, 20)
			assignment.CourseID = courseID
			assignment.DueAt = tm(due)
			provider.assignments[courseID] = append(provider.assignments[courseID], assignment)
		}
	}

	svc := newTestDashboardService(provider, nil)

	data, _, err := svc.GetDashboardData(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, data.UpcomingAssignments, 10)
	for i := 1; i < len(data.UpcomingAssignments); i++ {
		prev := data.UpcomingAssignments[i-1].DueAt
		curr := data.UpcomingAssignments[i].DueAt
		assert.False(t, curr.Before(*prev), "merged upcoming list must be sorted ascending")
	}
	assert.Equal(t, int64(1), data.UpcomingAssignments[0].ID)
}

func TestGetDashboardDataSummary(t *testing.T) {
	provider := &fakeRecordProvider{
		courses: []models.Course{{ID: 1, Name: "Math"}, {ID: 2, Name: "History"}},
		enrollments: []models.Enrollment{
			{CourseID: 1, EnrollmentState: "active", CurrentScore: f64(90)},
			{CourseID: 2, EnrollmentState: "active", CurrentScore: f64(80)},
			{CourseID: 3, EnrollmentState: "active"},
		},
		assignments: map[int64][]models.Assignment{
			1: {pointsAssignment(1, 100)},
			2: {pointsAssignment(2, 50)},
		},
		submissions: map[int64][]models.Submission{
			1: {gradedSubmission(1, 95, day(0))},
			2: {gradedSubmission(2, 40, day(1))},
		},
		groups: map[int64][]models.AssignmentGroup{},
	}

	svc := newTestDashboardService(provider, nil)

	data, _, err := svc.GetDashboardData(context.Background(), 1)

	require.NoError(t, err)
	summary := data.Summary
	assert.Equal(t, 2, summary.TotalCourses)
	// Null scores are excluded from the overall mean.
	assert.InDelta(t, 85.0, summary.OverallPercentage, 1e-9)
	assert.Equal(t, 2, summary.TotalCompletedAssignments)
	assert.InDelta(t, 135.0, summary.TotalGradedPoints, 1e-9)
	assert.InDelta(t, 150.0, summary.TotalGradedPointsPossible, 1e-9)
	assert.InDelta(t, 90.0, summary.TotalGradedPercentage, 1e-9)
	assert.InDelta(t, 135.0, summary.TotalSemesterPoints, 1e-9)
	assert.InDelta(t, 150.0, summary.TotalSemesterPointsPossible, 1e-9)
}

func TestGetDashboardDataSummaryCountsAllGradedWork(t *testing.T) {
	// Seven graded assignments exceed the recent-grade window of five; the
	// summary still counts every one of them, and the semester totals include
	// the ungraded 50-point assignment.
	assignments := []models.Assignment{pointsAssignment(100, 50)}
	submissions := []models.Submission{}
	for i := 1; i <= 7; i++ {
		id := int64(i)
		assignments = append(assignments, pointsAssignment(id, 10))
		submissions = append(submissions, gradedSubmission(id, 8, day(i)))
	}
	provider := &fakeRecordProvider{
		courses:     []models.Course{{ID: 1, Name: "Math"}},
		assignments: map[int64][]models.Assignment{1: assignments},
		submissions: map[int64][]models.Submission{1: submissions},
		groups:      map[int64][]models.AssignmentGroup{},
	}

	svc := newTestDashboardService(provider, nil)

	data, _, err := svc.GetDashboardData(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, data.CourseCards, 1)
	assert.Len(t, data.CourseCards[0].RecentGrades, 5)
	summary := data.Summary
	assert.Equal(t, 7, summary.TotalCompletedAssignments)
	assert.InDelta(t, 56.0, summary.TotalGradedPoints, 1e-9)
	assert.InDelta(t, 70.0, summary.TotalGradedPointsPossible, 1e-9)
	assert.InDelta(t, 56.0, summary.TotalSemesterPoints, 1e-9)
	assert.InDelta(t, 120.0, summary.TotalSemesterPointsPossible, 1e-9)
}

func TestGetDashboardDataCacheRoundTrip(t *testing.T) {
	provider := &fakeRecordProvider{
		courses:     []models.Course{{ID: 1, Name: "Math"}},
		assignments: map[int64][]models.Assignment{1: {pointsAssignment(1, 100)}},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)

	svc := newTestDashboardService(provider, cache)

	first, cached, err := svc.GetDashboardData(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, cached)

	provider.mu.Lock()
	callsAfterFirst := provider.calls
	provider.mu.Unlock()

	second, cached, err := svc.GetDashboardData(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, len(first.CourseCards), len(second.CourseCards))

	provider.mu.Lock()
	assert.Equal(t, callsAfterFirst, provider.calls, "cache hit must not touch the provider")
	provider.mu.Unlock()
}

func TestGetCourseCard(t *testing.T) {
	provider := &fakeRecordProvider{
		courses:     []models.Course{{ID: 5, Name: "Physics"}},
		enrollments: []models.Enrollment{{CourseID: 5, CurrentScore: f64(88)}},
		assignments: map[int64][]models.Assignment{5: {pointsAssignment(1, 100)}},
		submissions: map[int64][]models.Submission{5: {gradedSubmission(1, 88, day(0))}},
		groups:      map[int64][]models.AssignmentGroup{},
	}

	svc := newTestDashboardService(provider, nil)

	card, err := svc.GetCourseCard(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "Physics", card.Course.Name)
	require.NotNil(t, card.Enrollment)
	assert.Equal(t, 88.0, *card.Enrollment.CurrentScore)
	require.Len(t, card.RecentGrades, 1)
}

func TestGetCourseCardNotFound(t *testing.T) {
	provider := &fakeRecordProvider{
		assignments: map[int64][]models.Assignment{},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
	}

	svc := newTestDashboardService(provider, nil)

	_, err := svc.GetCourseCard(context.Background(), 99)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetCourseCardUpstreamFailure(t *testing.T) {
	provider := &fakeRecordProvider{
		courses:     []models.Course{{ID: 3, Name: "Biology"}},
		assignments: map[int64][]models.Assignment{},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
		failCourses: map[int64]error{3: appErrors.ErrUpstream},
	}

	svc := newTestDashboardService(provider, nil)

	_, err := svc.GetCourseCard(context.Background(), 3)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

type panickyProvider struct {
	*fakeRecordProvider
	panicCourses map[int64]bool
}

func (p *panickyProvider) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	if p.panicCourses[courseID] {
		panic("assignment feed corrupted")
	}
	return p.fakeRecordProvider.ListAssignments(ctx, courseID)
}

func TestGetDashboardDataSurvivesProviderPanic(t *testing.T) {
	inner := &fakeRecordProvider{
		courses: []models.Course{
			{ID: 1, Name: "Math"},
			{ID: 2, Name: "History"},
			{ID: 3, Name: "Physics"},
		},
		assignments: map[int64][]models.Assignment{
			1: {pointsAssignment(1, 100)},
			3: {pointsAssignment(3, 100)},
		},
		submissions: map[int64][]models.Submission{
			1: {gradedSubmission(1, 90, day(0))},
			3: {gradedSubmission(3, 80, day(1))},
		},
		groups: map[int64][]models.AssignmentGroup{},
	}
	provider := &panickyProvider{
		fakeRecordProvider: inner,
		panicCourses:       map[int64]bool{2: true},
	}

	svc := newTestDashboardService(provider, nil)

	var data *dto.DashboardData
	var err error
	require.NotPanics(t, func() {
		data, _, err = svc.GetDashboardData(context.Background(), 1)
	})

	require.NoError(t, err)
	// The panicking feed degrades to empty data for its course.
	require.Len(t, data.CourseCards, 3)
	for _, card := range data.CourseCards {
		if card.Course.ID == 2 {
			assert.Empty(t, card.RecentGrades)
		}
	}
}

func TestDroppedCourseMetricCountsDashboardOnly(t *testing.T) {
	provider := &fakeRecordProvider{
		courses: []models.Course{{ID: 1, Name: "Math"}, {ID: 2, Name: "History"}},
		assignments: map[int64][]models.Assignment{
			1: {pointsAssignment(1, 100)},
		},
		submissions: map[int64][]models.Submission{},
		groups:      map[int64][]models.AssignmentGroup{},
		failCourses: map[int64]error{2: appErrors.ErrUpstream},
	}
	metrics := NewMetricsService()
	grades := NewGradeService(5, nil)
	courses := NewCourseService(grades, NewCategoryService(), CourseServiceConfig{}, nil)
	svc := NewDashboardService(DashboardServiceParams{
		Records: provider,
		Courses: courses,
		Grades:  grades,
		Metrics: metrics,
	})

	// A single-card failure surfaces as an error without touching the
	// dashboard drop counter.
	_, err := svc.GetCourseCard(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.droppedCourses))

	// Dropping a course from the dashboard does count.
	data, _, err := svc.GetDashboardData(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, data.CourseCards, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.droppedCourses))
}
