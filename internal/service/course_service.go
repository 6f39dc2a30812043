package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// CourseServiceConfig tunes card construction.
type CourseServiceConfig struct {
	UpcomingWindow time.Duration
}

// CourseService builds the consolidated per-course view from raw records.
// Construction never fails; missing data degrades to empty collections or
// zero values.
type CourseService struct {
	grades     *GradeService
	categories *CategoryService
	logger     *zap.Logger
	now        func() time.Time
	cfg        CourseServiceConfig
}

// NewCourseService constructs a CourseService.
func NewCourseService(grades *GradeService, categories *CategoryService, cfg CourseServiceConfig, logger *zap.Logger) *CourseService {
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		grades:     grades,
		categories: categories,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// BuildCard assembles one CourseCard from a course, its optional enrollment
// and the course's raw records.
func (s *CourseService) BuildCard(course models.Course, enrollment *models.Enrollment, assignments []models.Assignment, submissions []models.Submission, groups []models.AssignmentGroup) dto.CourseCard {
	recentGrades := s.grades.RecentGrades(assignments, submissions)
	breakdown := s.categories.Breakdown(groups, assignments, submissions)

	return dto.CourseCard{
		Course:                course,
		Enrollment:            enrollment,
		RecentGrades:          recentGrades,
		CategoryBreakdown:     breakdown,
		CategoryContributions: s.categories.Contributions(breakdown),
		UpcomingAssignments:   s.UpcomingAssignments(assignments),
		Trend:                 s.grades.Trend(recentGrades),
		RemainingPercent:      s.remainingPercent(assignments, submissions),
		CompletedAssignments:  s.grades.CompletedCount(submissions),
		PointsSummary:         s.grades.PointsSummary(assignments, submissions),
		GradedPointsSummary:   s.grades.GradedPointsSummary(assignments, submissions),
	}
}

// UpcomingAssignments returns assignments due strictly within the configured
// window from now, soonest first.
func (s *CourseService) UpcomingAssignments(assignments []models.Assignment) []models.Assignment {
	now := s.now()
	limit := now.Add(s.cfg.UpcomingWindow)

	upcoming := make([]models.Assignment, 0)
	for _, assignment := range assignments {
		if assignment.DueAt == nil {
			continue
		}
		if assignment.DueAt.After(now) && assignment.DueAt.Before(limit) {
			upcoming = append(upcoming, assignment)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueAt.Before(*upcoming[j].DueAt)
	})
	return upcoming
}

// remainingPercent is the share of course points not yet graded, on a 0-100
// scale so every course reads on the same axis.
func (s *CourseService) remainingPercent(assignments []models.Assignment, submissions []models.Submission) float64 {
	var totalPossible, gradedPossible float64
	for _, assignment := range assignments {
		if assignment.PointsPossible == nil {
			continue
		}
		totalPossible += *assignment.PointsPossible
		for _, sub := range submissions {
			if sub.AssignmentID == assignment.ID && sub.Score != nil {
				gradedPossible += *assignment.PointsPossible
				break
			}
		}
	}
	if totalPossible == 0 {
		return 0
	}
	return ((totalPossible - gradedPossible) / totalPossible) * 100
}
