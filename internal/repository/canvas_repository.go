package repository

import (
	"context"

	"github.com/campusdash/canvas-dashboard-api/internal/canvas"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// CanvasRepository implements the five record providers against the Canvas
// REST API. It is read only; failures bubble to the caller, which treats them
// as empty data for the affected course.
type CanvasRepository struct {
	client *canvas.Client
}

// NewCanvasRepository constructs the repository.
func NewCanvasRepository(client *canvas.Client) *CanvasRepository {
	return &CanvasRepository{client: client}
}

// ListActiveCourses returns the current user's active courses.
func (r *CanvasRepository) ListActiveCourses(ctx context.Context) ([]models.Course, error) {
	payloads, err := r.client.ActiveCourses(ctx)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(payloads))
	for _, p := range payloads {
		courses = append(courses, models.Course{
			ID:            p.ID,
			Name:          p.Name,
			CourseCode:    p.CourseCode,
			WorkflowState: p.WorkflowState,
		})
	}
	return courses, nil
}

// ListEnrollments returns the current user's enrollments with Canvas-computed
// grades.
func (r *CanvasRepository) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	payloads, err := r.client.Enrollments(ctx)
	if err != nil {
		return nil, err
	}
	enrollments := make([]models.Enrollment, 0, len(payloads))
	for _, p := range payloads {
		enrollments = append(enrollments, models.Enrollment{
			CourseID:        p.CourseID,
			EnrollmentState: p.EnrollmentState,
			CurrentScore:    p.Grades.CurrentScore,
			FinalScore:      p.Grades.FinalScore,
			CurrentGrade:    p.Grades.CurrentGrade,
		})
	}
	return enrollments, nil
}

// ListAssignments returns assignments for one course.
func (r *CanvasRepository) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	payloads, err := r.client.Assignments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	assignments := make([]models.Assignment, 0, len(payloads))
	for _, p := range payloads {
		assignments = append(assignments, models.Assignment{
			ID:                p.ID,
			CourseID:          courseID,
			Name:              p.Name,
			DueAt:             p.DueAt,
			PointsPossible:    p.PointsPossible,
			AssignmentGroupID: p.AssignmentGroupID,
			WorkflowState:     p.WorkflowState,
		})
	}
	return assignments, nil
}

// ListSubmissions returns the current user's submissions for one course.
func (r *CanvasRepository) ListSubmissions(ctx context.Context, courseID int64) ([]models.Submission, error) {
	payloads, err := r.client.Submissions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	submissions := make([]models.Submission, 0, len(payloads))
	for _, p := range payloads {
		submissions = append(submissions, models.Submission{
			AssignmentID:  p.AssignmentID,
			Score:         p.Score,
			WorkflowState: p.WorkflowState,
			GradedAt:      p.GradedAt,
			Late:          p.Late,
		})
	}
	return submissions, nil
}

// ListAssignmentGroups returns grading categories for one course.
func (r *CanvasRepository) ListAssignmentGroups(ctx context.Context, courseID int64) ([]models.AssignmentGroup, error) {
	payloads, err := r.client.AssignmentGroups(ctx, courseID)
	if err != nil {
		return nil, err
	}
	groups := make([]models.AssignmentGroup, 0, len(payloads))
	for _, p := range payloads {
		groups = append(groups, models.AssignmentGroup{
			ID:          p.ID,
			CourseID:    courseID,
			Name:        p.Name,
			Position:    p.Position,
			GroupWeight: p.GroupWeight,
		})
	}
	return groups, nil
}
