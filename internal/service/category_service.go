package service

import (
	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// CategoryService computes per-assignment-group grade breakdowns.
type CategoryService struct{}

// NewCategoryService constructs a CategoryService.
func NewCategoryService() *CategoryService {
	return &CategoryService{}
}

// Breakdown emits one row per assignment group, including groups with no
// eligible assignments (zero counts, zero percentage). An assignment only
// contributes when it has known points and a submission with a score; the
// first submission in provider order wins.
func (s *CategoryService) Breakdown(groups []models.AssignmentGroup, assignments []models.Assignment, submissions []models.Submission) []dto.CategoryBreakdown {
	breakdowns := make([]dto.CategoryBreakdown, 0, len(groups))
	for _, group := range groups {
		var earned, total float64
		var completed, members int

		for _, assignment := range assignments {
			if assignment.AssignmentGroupID == nil || *assignment.AssignmentGroupID != group.ID {
				continue
			}
			members++
			if assignment.PointsPossible == nil {
				continue
			}
			sub := firstSubmissionFor(submissions, assignment.ID)
			if sub == nil || sub.Score == nil {
				continue
			}
			earned += *sub.Score
			total += *assignment.PointsPossible
			completed++
		}

		var percentage float64
		if total > 0 {
			percentage = (earned / total) * 100
		}

		breakdowns = append(breakdowns, dto.CategoryBreakdown{
			Group:                group,
			Percentage:           percentage,
			PointsEarned:         earned,
			PointsTotal:          total,
			CompletedAssignments: completed,
			TotalAssignments:     members,
		})
	}
	return breakdowns
}

// Contributions maps each weighted group to its contribution toward the
// final grade: percentage/100 x groupWeight. Unweighted groups are omitted.
func (s *CategoryService) Contributions(breakdowns []dto.CategoryBreakdown) map[string]float64 {
	contributions := make(map[string]float64)
	for _, b := range breakdowns {
		if b.Group.GroupWeight == nil {
			continue
		}
		contributions[b.Group.Name] = (b.Percentage / 100) * *b.Group.GroupWeight
	}
	return contributions
}
