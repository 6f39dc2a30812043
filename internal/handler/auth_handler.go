package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/service"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// CreateSession godoc
// @Summary Create a dashboard session
// @Description Exchange a Canvas personal access token for a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.SessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/session [post]
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	res, err := h.service.CreateSession(c.Request.Context(), req.CanvasToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
