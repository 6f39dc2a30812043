package service

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// PredictionService projects a final grade from graded history using
// ordinary least squares over percentage scores against days elapsed.
type PredictionService struct {
	minSamples int
	logger     *zap.Logger
	now        func() time.Time
}

// NewPredictionService constructs a PredictionService. minSamples is the
// minimum number of graded entries required before a forecast is attempted
// (default 5).
func NewPredictionService(minSamples int, logger *zap.Logger) *PredictionService {
	if minSamples <= 0 {
		minSamples = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{minSamples: minSamples, logger: logger, now: time.Now}
}

type regressionPoint struct {
	x float64
	y float64
}

// Calculate derives the grade forecast from every card's recent grades and
// upcoming assignments. When the data cannot support a forecast the
// unavailable sentinel is returned; that is a valid terminal state, not an
// error.
func (s *PredictionService) Calculate(data *dto.DashboardData) dto.PredictionData {
	if data == nil {
		return dto.PredictionData{}
	}

	graded := make([]dto.RecentGrade, 0)
	allAssignments := make([]models.Assignment, 0)
	seen := make(map[int64]struct{})
	for _, card := range data.CourseCards {
		graded = append(graded, card.RecentGrades...)
		for _, g := range card.RecentGrades {
			if _, ok := seen[g.Assignment.ID]; !ok {
				seen[g.Assignment.ID] = struct{}{}
				allAssignments = append(allAssignments, g.Assignment)
			}
		}
		for _, a := range card.UpcomingAssignments {
			if _, ok := seen[a.ID]; !ok {
				seen[a.ID] = struct{}{}
				allAssignments = append(allAssignments, a)
			}
		}
	}

	if len(graded) < s.minSamples {
		return dto.PredictionData{}
	}

	sort.SliceStable(graded, func(i, j int) bool {
		return graded[i].Submission.GradedAt.Before(*graded[j].Submission.GradedAt)
	})
	firstGradedAt := *graded[0].Submission.GradedAt

	progression := s.gradeProgression(graded)

	points := make([]regressionPoint, 0, len(graded))
	for _, g := range graded {
		if g.Assignment.PointsPossible == nil || *g.Assignment.PointsPossible <= 0 || g.Submission.Score == nil {
			continue
		}
		points = append(points, regressionPoint{
			x: daysBetween(firstGradedAt, *g.Submission.GradedAt),
			y: (*g.Submission.Score / *g.Assignment.PointsPossible) * 100,
		})
	}
	if len(points) < s.minSamples {
		return dto.PredictionData{}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumX2 += p.x * p.x
	}
	n := float64(len(points))
	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		// All samples graded the same day; no slope to fit.
		return dto.PredictionData{}
	}
	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	gradedIDs := make(map[int64]struct{}, len(graded))
	for _, g := range graded {
		gradedIDs[g.Assignment.ID] = struct{}{}
	}

	var predictedPoints float64
	for _, assignment := range allAssignments {
		if _, ok := gradedIDs[assignment.ID]; ok {
			continue
		}
		if assignment.PointsPossible == nil || *assignment.PointsPossible <= 0 {
			continue
		}
		at := s.now()
		if assignment.DueAt != nil {
			at = *assignment.DueAt
		}
		predicted := slope*daysBetween(firstGradedAt, at) + intercept
		predicted = clamp(predicted, 0, 100)
		predictedPoints += (predicted / 100) * *assignment.PointsPossible
	}

	var earnedPoints float64
	for _, g := range graded {
		if g.Submission.Score != nil {
			earnedPoints += *g.Submission.Score
		}
	}

	var totalPossible float64
	for _, assignment := range allAssignments {
		if assignment.PointsPossible != nil {
			totalPossible += *assignment.PointsPossible
		}
	}
	if totalPossible == 0 {
		return dto.PredictionData{}
	}

	finalPercentage := ((earnedPoints + predictedPoints) / totalPossible) * 100
	return dto.PredictionData{
		PredictedScore:       finalPercentage,
		PredictedLetterGrade: letterGrade(finalPercentage),
		GradeProgression:     progression,
		Available:            true,
	}
}

// gradeProgression builds the cumulative running-percentage series over the
// chronologically sorted graded entries. Entries missing a score or points
// are skipped without advancing the counter.
func (s *PredictionService) gradeProgression(graded []dto.RecentGrade) []dto.ChartDataPoint {
	progression := make([]dto.ChartDataPoint, 0, len(graded))
	var cumulativeScore, cumulativePossible float64
	var count int

	for _, g := range graded {
		if g.Submission.Score == nil || g.Assignment.PointsPossible == nil {
			continue
		}
		count++
		cumulativeScore += *g.Submission.Score
		cumulativePossible += *g.Assignment.PointsPossible
		if cumulativePossible > 0 {
			progression = append(progression, dto.ChartDataPoint{
				Label: fmt.Sprintf("Assign. %d", count),
				Value: (cumulativeScore / cumulativePossible) * 100,
			})
		}
	}
	return progression
}

func daysBetween(from, to time.Time) float64 {
	return float64(int64(to.Sub(from).Hours() / 24))
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func letterGrade(percentage float64) string {
	switch {
	case percentage >= 93:
		return "A"
	case percentage >= 90:
		return "A-"
	case percentage >= 87:
		return "B+"
	case percentage >= 83:
		return "B"
	case percentage >= 80:
		return "B-"
	case percentage >= 77:
		return "C+"
	case percentage >= 73:
		return "C"
	case percentage >= 70:
		return "C-"
	case percentage >= 67:
		return "D+"
	case percentage >= 63:
		return "D"
	case percentage >= 60:
		return "D-"
	default:
		return "F"
	}
}
