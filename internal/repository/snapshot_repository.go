package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campusdash/canvas-dashboard-api/internal/models"
)

// SnapshotRepository serves the five record kinds from a read-only Postgres
// snapshot of Canvas data. Used for local development and demos where no
// Canvas instance is reachable.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ListActiveCourses returns courses in the available workflow state.
func (r *SnapshotRepository) ListActiveCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, course_code, workflow_state
FROM courses
WHERE workflow_state = 'available'
ORDER BY id`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListEnrollments returns every enrollment in the snapshot.
func (r *SnapshotRepository) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT course_id, enrollment_state, current_score, final_score, current_grade
FROM enrollments
ORDER BY course_id`
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ListAssignments returns assignments for one course.
func (r *SnapshotRepository) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	const query = `SELECT id, course_id, name, due_at, points_possible, assignment_group_id, workflow_state
FROM assignments
WHERE course_id = $1
ORDER BY id`
	assignments := []models.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListSubmissions returns submissions for one course. Provider order is the
// insertion order of the snapshot; duplicate submissions for an assignment
// resolve first-in-order downstream.
func (r *SnapshotRepository) ListSubmissions(ctx context.Context, courseID int64) ([]models.Submission, error) {
	const query = `SELECT s.assignment_id, s.score, s.workflow_state, s.graded_at, s.late
FROM submissions s
JOIN assignments a ON a.id = s.assignment_id
WHERE a.course_id = $1
ORDER BY s.id`
	submissions := []models.Submission{}
	if err := r.db.SelectContext(ctx, &submissions, query, courseID); err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListAssignmentGroups returns grading categories for one course.
func (r *SnapshotRepository) ListAssignmentGroups(ctx context.Context, courseID int64) ([]models.AssignmentGroup, error) {
	const query = `SELECT id, course_id, name, position, group_weight
FROM assignment_groups
WHERE course_id = $1
ORDER BY position, id`
	groups := []models.AssignmentGroup{}
	if err := r.db.SelectContext(ctx, &groups, query, courseID); err != nil {
		return nil, err
	}
	return groups, nil
}
