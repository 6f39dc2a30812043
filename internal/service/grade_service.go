package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

const trendThreshold = 5.0

// GradeService derives grade views from raw assignment and submission
// records. Every method is a pure function of its inputs.
type GradeService struct {
	recentMax int
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService. recentMax caps the recent-grade
// window (default 5).
func NewGradeService(recentMax int, logger *zap.Logger) *GradeService {
	if recentMax <= 0 {
		recentMax = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{recentMax: recentMax, logger: logger}
}

// RecentGrades returns the most recently graded submissions paired with
// their assignments, newest first. Submissions whose assignment is missing
// from the fetched set are skipped, not errored.
func (s *GradeService) RecentGrades(assignments []models.Assignment, submissions []models.Submission) []dto.RecentGrade {
	graded := make([]models.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if sub.GradedAt != nil {
			graded = append(graded, sub)
		}
	}
	sort.SliceStable(graded, func(i, j int) bool {
		return graded[i].GradedAt.After(*graded[j].GradedAt)
	})

	byID := make(map[int64]models.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
	}

	grades := make([]dto.RecentGrade, 0, s.recentMax)
	for _, sub := range graded {
		if len(grades) == s.recentMax {
			break
		}
		assignment, ok := byID[sub.AssignmentID]
		if !ok {
			continue
		}
		grades = append(grades, dto.RecentGrade{Submission: sub, Assignment: assignment})
	}
	return grades
}

// Trend classifies a grade series as up, down or stable by comparing the
// average of its first half against its second half. The split point is
// size/2; entries without a usable percentage are skipped first.
func (s *GradeService) Trend(grades []dto.RecentGrade) string {
	percentages := make([]float64, 0, len(grades))
	for _, g := range grades {
		if pct, ok := g.Percentage(); ok {
			percentages = append(percentages, pct)
		}
	}
	if len(percentages) < 2 {
		return dto.TrendStable
	}

	midpoint := len(percentages) / 2
	firstAvg := average(percentages[:midpoint])
	secondAvg := average(percentages[midpoint:])

	difference := secondAvg - firstAvg
	switch {
	case difference > trendThreshold:
		return dto.TrendUp
	case difference < -trendThreshold:
		return dto.TrendDown
	default:
		return dto.TrendStable
	}
}

// OverallTrend is the majority vote of per-course up/down trends. Ties and
// all-stable inputs resolve to stable.
func (s *GradeService) OverallTrend(cards []dto.CourseCard) string {
	var up, down int
	for _, card := range cards {
		switch card.Trend {
		case dto.TrendUp:
			up++
		case dto.TrendDown:
			down++
		}
	}
	switch {
	case up > down:
		return dto.TrendUp
	case down > up:
		return dto.TrendDown
	default:
		return dto.TrendStable
	}
}

// PointsSummary totals every assignment with known points against the first
// submission score found for it.
func (s *GradeService) PointsSummary(assignments []models.Assignment, submissions []models.Submission) dto.PointsSummary {
	var earned, total float64
	for _, assignment := range assignments {
		if assignment.PointsPossible == nil {
			continue
		}
		total += *assignment.PointsPossible
		if sub := firstSubmissionFor(submissions, assignment.ID); sub != nil && sub.Score != nil {
			earned += *sub.Score
		}
	}
	return newPointsSummary(earned, total)
}

// GradedPointsSummary totals only assignments whose submission has been
// graded.
func (s *GradeService) GradedPointsSummary(assignments []models.Assignment, submissions []models.Submission) dto.PointsSummary {
	var earned, total float64
	for _, assignment := range assignments {
		if assignment.PointsPossible == nil {
			continue
		}
		sub := firstSubmissionFor(submissions, assignment.ID)
		if sub == nil || !sub.Graded() {
			continue
		}
		total += *assignment.PointsPossible
		earned += *sub.Score
	}
	return newPointsSummary(earned, total)
}

// CompletedCount counts graded submissions.
func (s *GradeService) CompletedCount(submissions []models.Submission) int {
	var count int
	for _, sub := range submissions {
		if sub.Graded() {
			count++
		}
	}
	return count
}

// firstSubmissionFor resolves the submission for an assignment. When the
// provider returns duplicates the first in provider order wins.
func firstSubmissionFor(submissions []models.Submission, assignmentID int64) *models.Submission {
	for i := range submissions {
		if submissions[i].AssignmentID == assignmentID {
			return &submissions[i]
		}
	}
	return nil
}

func newPointsSummary(earned, total float64) dto.PointsSummary {
	summary := dto.PointsSummary{PointsEarned: earned, PointsTotal: total}
	if total > 0 {
		summary.Percentage = (earned / total) * 100
	}
	return summary
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
