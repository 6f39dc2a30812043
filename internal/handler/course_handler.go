package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/response"
)

type courseCardService interface {
	GetCourseCard(ctx context.Context, courseID int64) (*dto.CourseCard, error)
}

// CourseHandler exposes single-course endpoints.
type CourseHandler struct {
	cards courseCardService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(cards courseCardService) *CourseHandler {
	return &CourseHandler{cards: cards}
}

// Card godoc
// @Summary Consolidated course card
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/card [get]
func (h *CourseHandler) Card(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || courseID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	card, err := h.cards.GetCourseCard(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, card, nil)
}
