package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/pkg/config"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
)

// Client is a thin read-only Canvas REST client. Every call authenticates
// with the token carried in the request context.
type Client struct {
	baseURL string
	perPage int
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient builds a Canvas client from configuration.
func NewClient(cfg config.CanvasConfig, logger *zap.Logger) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		perPage: perPage,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CoursePayload mirrors the Canvas course resource.
type CoursePayload struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CourseCode    string `json:"course_code"`
	WorkflowState string `json:"workflow_state"`
}

// EnrollmentPayload mirrors the Canvas enrollment resource with its nested
// grades object.
type EnrollmentPayload struct {
	CourseID        int64  `json:"course_id"`
	EnrollmentState string `json:"enrollment_state"`
	Grades          struct {
		CurrentScore *float64 `json:"current_score"`
		FinalScore   *float64 `json:"final_score"`
		CurrentGrade *string  `json:"current_grade"`
	} `json:"grades"`
}

// AssignmentPayload mirrors the Canvas assignment resource.
type AssignmentPayload struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	DueAt             *time.Time `json:"due_at"`
	PointsPossible    *float64   `json:"points_possible"`
	AssignmentGroupID *int64     `json:"assignment_group_id"`
	WorkflowState     string     `json:"workflow_state"`
}

// SubmissionPayload mirrors the Canvas submission resource.
type SubmissionPayload struct {
	AssignmentID  int64      `json:"assignment_id"`
	Score         *float64   `json:"score"`
	WorkflowState string     `json:"workflow_state"`
	GradedAt      *time.Time `json:"graded_at"`
	Late          *bool      `json:"late"`
}

// AssignmentGroupPayload mirrors the Canvas assignment group resource.
type AssignmentGroupPayload struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Position    int      `json:"position"`
	GroupWeight *float64 `json:"group_weight"`
}

// UserPayload mirrors the Canvas self profile resource.
type UserPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ActiveCourses lists the current user's active courses.
func (c *Client) ActiveCourses(ctx context.Context) ([]CoursePayload, error) {
	var payload []CoursePayload
	query := url.Values{"enrollment_state": {"active"}}
	if err := c.get(ctx, "/api/v1/courses", query, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Enrollments lists the current user's enrollments across courses.
func (c *Client) Enrollments(ctx context.Context) ([]EnrollmentPayload, error) {
	var payload []EnrollmentPayload
	if err := c.get(ctx, "/api/v1/users/self/enrollments", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Assignments lists assignments for one course.
func (c *Client) Assignments(ctx context.Context, courseID int64) ([]AssignmentPayload, error) {
	var payload []AssignmentPayload
	path := fmt.Sprintf("/api/v1/courses/%d/assignments", courseID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Submissions lists the current user's submissions for one course.
func (c *Client) Submissions(ctx context.Context, courseID int64) ([]SubmissionPayload, error) {
	var payload []SubmissionPayload
	path := fmt.Sprintf("/api/v1/courses/%d/students/submissions", courseID)
	query := url.Values{"student_id": {"self"}}
	if err := c.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AssignmentGroups lists grading categories for one course.
func (c *Client) AssignmentGroups(ctx context.Context, courseID int64) ([]AssignmentGroupPayload, error) {
	var payload []AssignmentGroupPayload
	path := fmt.Sprintf("/api/v1/courses/%d/assignment_groups", courseID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Self fetches the profile of the token owner. Used to verify a token at
// session creation.
func (c *Client) Self(ctx context.Context) (*UserPayload, error) {
	var payload UserPayload
	if err := c.get(ctx, "/api/v1/users/self", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	token, ok := TokenFrom(ctx)
	if !ok {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing canvas token")
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.perPage))

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build canvas request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "canvas request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("canvas request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrInvalidToken, "")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Wrap(
			fmt.Errorf("canvas returned %d: %s", resp.StatusCode, string(body)),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "canvas request failed",
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode canvas response")
	}
	return nil
}
