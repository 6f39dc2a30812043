package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/pool"
)

// RecordProvider supplies the five read-only record feeds every dashboard is
// built from. Both the live Canvas client and the snapshot database satisfy it.
type RecordProvider interface {
	ListActiveCourses(ctx context.Context) ([]models.Course, error)
	ListEnrollments(ctx context.Context) ([]models.Enrollment, error)
	ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error)
	ListSubmissions(ctx context.Context, courseID int64) ([]models.Submission, error)
	ListAssignmentGroups(ctx context.Context, courseID int64) ([]models.AssignmentGroup, error)
}

// DashboardServiceConfig tunes aggregation behaviour.
type DashboardServiceConfig struct {
	UpcomingLimit int
	CacheTTL      time.Duration
}

// DashboardService fans record fetches out across courses and folds the
// results into one semester-wide view. A single course's failure never fails
// the whole call; the course is dropped and logged.
type DashboardService struct {
	records RecordProvider
	courses *CourseService
	grades  *GradeService
	cache   *CacheService
	metrics *MetricsService
	pool    *pool.Pool
	logger  *zap.Logger
	cfg     DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Records RecordProvider
	Courses *CourseService
	Grades  *GradeService
	Cache   *CacheService
	Metrics *MetricsService
	Pool    *pool.Pool
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		records: params.Records,
		courses: params.Courses,
		grades:  params.Grades,
		cache:   params.Cache,
		metrics: params.Metrics,
		pool:    params.Pool,
		logger:  logger,
		cfg:     cfg,
	}
}

// courseRecords collects the three per-course fetch results.
type courseRecords struct {
	assignments []models.Assignment
	submissions []models.Submission
	groups      []models.AssignmentGroup
	err         error
}

// GetDashboardData aggregates every enrolled course into one dashboard
// payload. The boolean reports cache utilisation. Provider failures degrade
// to partial results; the returned payload is always structurally valid.
func (s *DashboardService) GetDashboardData(ctx context.Context, userID int64) (*dto.DashboardData, bool, error) {
	cacheKey := fmt.Sprintf("dash:user:%d", userID)
	if s.cache != nil {
		var cached dto.DashboardData
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	courses, enrollments := s.fetchCoursesAndEnrollments(ctx)

	cards := s.buildCards(ctx, courses, enrollments)

	upcoming := s.mergeUpcoming(cards)
	summary := s.semesterSummary(cards, enrollments)

	data := &dto.DashboardData{
		CourseCards:         cards,
		UpcomingAssignments: upcoming,
		Summary:             summary,
		GeneratedAt:         time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return data, false, nil
}

// GetCourseCard builds the consolidated view for a single course.
func (s *DashboardService) GetCourseCard(ctx context.Context, courseID int64) (*dto.CourseCard, error) {
	courses, enrollments := s.fetchCoursesAndEnrollments(ctx)

	var course *models.Course
	for i := range courses {
		if courses[i].ID == courseID {
			course = &courses[i]
			break
		}
	}
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", courseID))
	}

	records := s.fetchCourseRecords(ctx, courseID)
	if records.err != nil {
		// The dropped-course counter tracks dashboard aggregation only; a
		// single-card failure surfaces as an error instead.
		s.logger.Warn("course records fetch failed",
			zap.Int64("course_id", courseID),
			zap.Error(records.err),
		)
		return nil, appErrors.Wrap(records.err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "course records unavailable")
	}

	card := s.courses.BuildCard(*course, enrollmentFor(enrollments, courseID), records.assignments, records.submissions, records.groups)
	return &card, nil
}

// fetchCoursesAndEnrollments runs the two top-level fetches concurrently and
// waits for both. Either failing degrades to an empty slice.
func (s *DashboardService) fetchCoursesAndEnrollments(ctx context.Context) ([]models.Course, []models.Enrollment) {
	var courses []models.Course
	var enrollments []models.Enrollment

	g := pool.NewGroup(s.pool)
	g.Go(ctx, func(taskCtx context.Context) {
		start := time.Now()
		result, err := s.records.ListActiveCourses(taskCtx)
		s.metrics.ObserveFetch("courses", err, time.Since(start))
		if err != nil {
			s.logger.Warn("course list fetch failed", zap.Error(err))
			return
		}
		courses = result
	})
	g.Go(ctx, func(taskCtx context.Context) {
		start := time.Now()
		result, err := s.records.ListEnrollments(taskCtx)
		s.metrics.ObserveFetch("enrollments", err, time.Since(start))
		if err != nil {
			s.logger.Warn("enrollment list fetch failed", zap.Error(err))
			return
		}
		enrollments = result
	})
	g.Wait()

	return courses, enrollments
}

// buildCards fans out one task per course and waits for all of them. Each
// course task runs its three record fetches concurrently on the shared pool,
// then builds the card. A failed course contributes nothing.
func (s *DashboardService) buildCards(ctx context.Context, courses []models.Course, enrollments []models.Enrollment) []dto.CourseCard {
	results := make([]*dto.CourseCard, len(courses))

	var wg sync.WaitGroup
	for i := range courses {
		wg.Add(1)
		go func(idx int, course models.Course) {
			defer wg.Done()
			// A panic while aggregating one course drops that course, the
			// same as a fetch failure.
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("course aggregation panicked",
						zap.Int64("course_id", course.ID),
						zap.Any("panic", r),
					)
					s.metrics.RecordDroppedCourse()
				}
			}()
			records := s.fetchCourseRecords(ctx, course.ID)
			if records.err != nil {
				s.logger.Warn("dropping course from dashboard",
					zap.Int64("course_id", course.ID),
					zap.String("course", course.Name),
					zap.Error(records.err),
				)
				s.metrics.RecordDroppedCourse()
				return
			}
			card := s.courses.BuildCard(course, enrollmentFor(enrollments, course.ID), records.assignments, records.submissions, records.groups)
			results[idx] = &card
		}(i, courses[i])
	}
	wg.Wait()

	cards := make([]dto.CourseCard, 0, len(courses))
	for _, card := range results {
		if card != nil {
			cards = append(cards, *card)
		}
	}
	return cards
}

// fetchCourseRecords runs the three per-course fetches on the worker pool
// behind one barrier. The first error wins; partial data is discarded so the
// caller sees the course as a unit.
func (s *DashboardService) fetchCourseRecords(ctx context.Context, courseID int64) courseRecords {
	var records courseRecords
	var mu sync.Mutex

	setErr := func(err error) {
		mu.Lock()
		if records.err == nil {
			records.err = err
		}
		mu.Unlock()
	}

	g := pool.NewGroup(s.pool)
	g.Go(ctx, func(taskCtx context.Context) {
		start := time.Now()
		assignments, err := s.records.ListAssignments(taskCtx, courseID)
		s.metrics.ObserveFetch("assignments", err, time.Since(start))
		if err != nil {
			setErr(err)
			return
		}
		records.assignments = assignments
	})
	g.Go(ctx, func(taskCtx context.Context) {
		start := time.Now()
		submissions, err := s.records.ListSubmissions(taskCtx, courseID)
		s.metrics.ObserveFetch("submissions", err, time.Since(start))
		if err != nil {
			setErr(err)
			return
		}
		records.submissions = submissions
	})
	g.Go(ctx, func(taskCtx context.Context) {
		start := time.Now()
		groups, err := s.records.ListAssignmentGroups(taskCtx, courseID)
		s.metrics.ObserveFetch("assignment_groups", err, time.Since(start))
		if err != nil {
			setErr(err)
			return
		}
		records.groups = groups
	})
	g.Wait()

	return records
}

// mergeUpcoming unions every card's upcoming assignments, soonest first,
// capped at the configured limit.
func (s *DashboardService) mergeUpcoming(cards []dto.CourseCard) []models.Assignment {
	merged := make([]models.Assignment, 0)
	for _, card := range cards {
		merged = append(merged, card.UpcomingAssignments...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DueAt.Before(*merged[j].DueAt)
	})
	if len(merged) > s.cfg.UpcomingLimit {
		merged = merged[:s.cfg.UpcomingLimit]
	}
	return merged
}

// semesterSummary folds all cards and enrollments into the top-line widgets.
func (s *DashboardService) semesterSummary(cards []dto.CourseCard, enrollments []models.Enrollment) dto.SemesterSummary {
	var scoreSum float64
	var scoreCount int
	for _, enrollment := range enrollments {
		if enrollment.CurrentScore != nil {
			scoreSum += *enrollment.CurrentScore
			scoreCount++
		}
	}
	var overall float64
	if scoreCount > 0 {
		overall = scoreSum / float64(scoreCount)
	}

	var upcomingCount, completed int
	var gradedPoints, gradedPossible, semesterPoints, semesterPossible, upcomingPoints float64
	for _, card := range cards {
		upcomingCount += len(card.UpcomingAssignments)
		completed += card.CompletedAssignments
		gradedPoints += card.GradedPointsSummary.PointsEarned
		gradedPossible += card.GradedPointsSummary.PointsTotal
		semesterPoints += card.PointsSummary.PointsEarned
		semesterPossible += card.PointsSummary.PointsTotal
		for _, assignment := range card.UpcomingAssignments {
			if assignment.PointsPossible != nil {
				upcomingPoints += *assignment.PointsPossible
			}
		}
	}

	var gradedPercentage float64
	if gradedPossible > 0 {
		gradedPercentage = (gradedPoints / gradedPossible) * 100
	}

	return dto.SemesterSummary{
		OverallPercentage:           overall,
		TotalCourses:                len(cards),
		UpcomingCount:               upcomingCount,
		OverallTrend:                s.grades.OverallTrend(cards),
		TotalCompletedAssignments:   completed,
		TotalGradedPoints:           gradedPoints,
		TotalGradedPointsPossible:   gradedPossible,
		TotalGradedPercentage:       gradedPercentage,
		TotalUpcomingPoints:         upcomingPoints,
		TotalSemesterPoints:         semesterPoints,
		TotalSemesterPointsPossible: semesterPossible,
	}
}

func enrollmentFor(enrollments []models.Enrollment, courseID int64) *models.Enrollment {
	for i := range enrollments {
		if enrollments[i].CourseID == courseID {
			return &enrollments[i]
		}
	}
	return nil
}
