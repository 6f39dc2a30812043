package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshotMock(t *testing.T) (*SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSnapshotRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestSnapshotListActiveCourses(t *testing.T) {
	repo, mock := newSnapshotMock(t)
	rows := sqlmock.NewRows([]string{"id", "name", "course_code", "workflow_state"}).
		AddRow(101, "Data Structures", "CC2008", "available").
		AddRow(102, "Databases", "CC3301", "available")
	mock.ExpectQuery(`SELECT id, name, course_code, workflow_state\s+FROM courses`).WillReturnRows(rows)

	courses, err := repo.ListActiveCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, int64(101), courses[0].ID)
	assert.Equal(t, "CC3301", courses[1].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotListEnrollmentsNullableScores(t *testing.T) {
	repo, mock := newSnapshotMock(t)
	rows := sqlmock.NewRows([]string{"course_id", "enrollment_state", "current_score", "final_score", "current_grade"}).
		AddRow(101, "active", 91.5, 88.0, "A-").
		AddRow(102, "active", nil, nil, nil)
	mock.ExpectQuery(`SELECT course_id, enrollment_state, current_score, final_score, current_grade\s+FROM enrollments`).WillReturnRows(rows)

	enrollments, err := repo.ListEnrollments(context.Background())
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.NotNil(t, enrollments[0].CurrentScore)
	assert.InDelta(t, 91.5, *enrollments[0].CurrentScore, 0.001)
	assert.Nil(t, enrollments[1].CurrentScore)
	assert.Nil(t, enrollments[1].CurrentGrade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotListAssignmentsScopesByCourse(t *testing.T) {
	repo, mock := newSnapshotMock(t)
	due := time.Date(2026, 9, 8, 23, 59, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "name", "due_at", "points_possible", "assignment_group_id", "workflow_state"}).
		AddRow(7, 101, "Lab 1", due, 25.0, 3, "published").
		AddRow(8, 101, "Survey", nil, nil, nil, "published")
	mock.ExpectQuery(`FROM assignments\s+WHERE course_id = \$1`).WithArgs(int64(101)).WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NotNil(t, assignments[0].DueAt)
	assert.True(t, assignments[0].DueAt.Equal(due))
	assert.Nil(t, assignments[1].PointsPossible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotListSubmissionsJoinsAssignments(t *testing.T) {
	repo, mock := newSnapshotMock(t)
	graded := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"assignment_id", "score", "workflow_state", "graded_at", "late"}).
		AddRow(7, 22.0, "graded", graded, false).
		AddRow(8, nil, "submitted", nil, nil)
	mock.ExpectQuery(`FROM submissions s\s+JOIN assignments a ON a.id = s.assignment_id\s+WHERE a.course_id = \$1`).
		WithArgs(int64(101)).WillReturnRows(rows)

	submissions, err := repo.ListSubmissions(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	assert.True(t, submissions[0].Graded())
	assert.False(t, submissions[1].Graded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotListAssignmentGroups(t *testing.T) {
	repo, mock := newSnapshotMock(t)
	rows := sqlmock.NewRows([]string{"id", "course_id", "name", "position", "group_weight"}).
		AddRow(3, 101, "Assignments", 1, 50.0).
		AddRow(4, 101, "Labs", 2, nil)
	mock.ExpectQuery(`FROM assignment_groups\s+WHERE course_id = \$1`).WithArgs(int64(101)).WillReturnRows(rows)

	groups, err := repo.ListAssignmentGroups(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.NotNil(t, groups[0].GroupWeight)
	assert.InDelta(t, 50.0, *groups[0].GroupWeight, 0.001)
	assert.Nil(t, groups[1].GroupWeight)
	assert.NoError(t, mock.ExpectationsWereMet())
}
