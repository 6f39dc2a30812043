package models

import "time"

// Course is one Canvas course record. IDs are stable for the lifetime of the
// upstream provider.
type Course struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	CourseCode    string `db:"course_code" json:"course_code"`
	WorkflowState string `db:"workflow_state" json:"workflow_state"`
}

// Enrollment carries the Canvas-computed grade for the current user in one
// course. At most one per course; duplicates resolve first-in-provider-order.
type Enrollment struct {
	CourseID        int64    `db:"course_id" json:"course_id"`
	EnrollmentState string   `db:"enrollment_state" json:"enrollment_state"`
	CurrentScore    *float64 `db:"current_score" json:"current_score"`
	FinalScore      *float64 `db:"final_score" json:"final_score"`
	CurrentGrade    *string  `db:"current_grade" json:"current_grade"`
}

// Assignment is one Canvas assignment. Optional upstream fields stay
// pointers so "skip if absent" rules are explicit.
type Assignment struct {
	ID                int64      `db:"id" json:"id"`
	CourseID          int64      `db:"course_id" json:"course_id"`
	Name              string     `db:"name" json:"name"`
	DueAt             *time.Time `db:"due_at" json:"due_at"`
	PointsPossible    *float64   `db:"points_possible" json:"points_possible"`
	AssignmentGroupID *int64     `db:"assignment_group_id" json:"assignment_group_id"`
	WorkflowState     string     `db:"workflow_state" json:"workflow_state"`
}

// AssignmentGroup is one Canvas grading category.
type AssignmentGroup struct {
	ID          int64    `db:"id" json:"id"`
	CourseID    int64    `db:"course_id" json:"course_id"`
	Name        string   `db:"name" json:"name"`
	Position    int      `db:"position" json:"position"`
	GroupWeight *float64 `db:"group_weight" json:"group_weight"`
}

// Submission is the current user's submission for one assignment.
type Submission struct {
	AssignmentID  int64      `db:"assignment_id" json:"assignment_id"`
	Score         *float64   `db:"score" json:"score"`
	WorkflowState string     `db:"workflow_state" json:"workflow_state"`
	GradedAt      *time.Time `db:"graded_at" json:"graded_at"`
	Late          *bool      `db:"late" json:"late"`
}

// Graded reports whether the submission has been scored by the grader.
func (s Submission) Graded() bool {
	return s.GradedAt != nil && s.Score != nil
}
