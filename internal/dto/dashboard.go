package dto

import (
	"time"

	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// Trend classifies the direction of a grade series.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// RecentGrade pairs a graded submission with its assignment.
type RecentGrade struct {
	Submission models.Submission `json:"submission"`
	Assignment models.Assignment `json:"assignment"`
}

// Percentage returns the grade as a percentage and whether the pair carries
// enough data to compute one.
func (g RecentGrade) Percentage() (float64, bool) {
	if g.Submission.Score == nil || g.Assignment.PointsPossible == nil || *g.Assignment.PointsPossible <= 0 {
		return 0, false
	}
	return (*g.Submission.Score / *g.Assignment.PointsPossible) * 100, true
}

// CategoryBreakdown is one assignment-group row of the per-course grade
// breakdown. Groups with no eligible assignments emit a zero row.
type CategoryBreakdown struct {
	Group                models.AssignmentGroup `json:"group"`
	Percentage           float64                `json:"percentage"`
	PointsEarned         float64                `json:"pointsEarned"`
	PointsTotal          float64                `json:"pointsTotal"`
	CompletedAssignments int                    `json:"completedAssignments"`
	TotalAssignments     int                    `json:"totalAssignments"`
}

// CourseCard is the consolidated per-course view. It is rebuilt on every
// request and never persisted.
type CourseCard struct {
	Course                models.Course       `json:"course"`
	Enrollment            *models.Enrollment  `json:"enrollment,omitempty"`
	RecentGrades          []RecentGrade       `json:"recentGrades"`
	CategoryBreakdown     []CategoryBreakdown `json:"categoryBreakdown"`
	CategoryContributions map[string]float64  `json:"categoryContributions"`
	UpcomingAssignments   []models.Assignment `json:"upcomingAssignments"`
	Trend                 string              `json:"trend"`
	RemainingPercent      float64             `json:"remainingPercent"`
	CompletedAssignments  int                 `json:"completedAssignments"`
	PointsSummary         PointsSummary       `json:"pointsSummary"`
	GradedPointsSummary   PointsSummary       `json:"gradedPointsSummary"`
}

// PointsSummary totals earned and possible points for one course.
type PointsSummary struct {
	PointsEarned float64 `json:"pointsEarned"`
	PointsTotal  float64 `json:"pointsTotal"`
	Percentage   float64 `json:"percentage"`
}

// SemesterSummary aggregates every course card into the top-line widgets.
type SemesterSummary struct {
	OverallPercentage           float64 `json:"overallPercentage"`
	TotalCourses                int     `json:"totalCourses"`
	UpcomingCount               int     `json:"upcomingCount"`
	OverallTrend                string  `json:"overallTrend"`
	TotalCompletedAssignments   int     `json:"totalCompletedAssignments"`
	TotalGradedPoints           float64 `json:"totalGradedPoints"`
	TotalGradedPointsPossible   float64 `json:"totalGradedPointsPossible"`
	TotalGradedPercentage       float64 `json:"totalGradedPercentage"`
	TotalUpcomingPoints         float64 `json:"totalUpcomingPoints"`
	TotalSemesterPoints         float64 `json:"totalSemesterPoints"`
	TotalSemesterPointsPossible float64 `json:"totalSemesterPointsPossible"`
}

// DashboardData is the full aggregation result.
type DashboardData struct {
	CourseCards         []CourseCard        `json:"courseCards"`
	UpcomingAssignments []models.Assignment `json:"upcomingAssignments"`
	Summary             SemesterSummary     `json:"summary"`
	GeneratedAt         time.Time           `json:"generatedAt"`
}
