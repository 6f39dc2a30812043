package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/service"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/response"
)

type reportService interface {
	SemesterReport(ctx context.Context, userID int64, format string) (*service.Report, error)
	OpenArchived(token string) (*os.File, string, error)
}

// ReportHandler exposes downloadable report endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs the handler and registers the export format
// binding rule.
func NewReportHandler(reports reportService) *ReportHandler {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Registration is idempotent; re-registering overwrites.
		_ = v.RegisterValidation("exportformat", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "", service.FormatCSV, service.FormatPDF:
				return true
			}
			return false
		})
	}
	return &ReportHandler{reports: reports}
}

// Semester godoc
// @Summary Semester grade report download
// @Tags Reports
// @Produce text/csv
// @Param format query string false "Export format (csv or pdf)" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reports/semester [get]
func (h *ReportHandler) Semester(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}

	report, err := h.reports.SemesterReport(c.Request.Context(), claims.UserID, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Header("X-Report-ID", report.ID)
	if report.DownloadToken != "" {
		c.Header("X-Download-Token", report.DownloadToken)
	}
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

// Download godoc
// @Summary Re-download an archived report
// @Tags Reports
// @Produce text/csv
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, contentType, err := h.reports.OpenArchived(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report unreadable"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
