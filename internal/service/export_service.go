package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/export"
	"github.com/campusdash/canvas-dashboard-api/pkg/storage"
)

// Export formats accepted by the report endpoint.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Report carries a rendered semester report ready for download. When an
// archive is configured the report is also persisted and DownloadToken grants
// time-limited re-download access.
type Report struct {
	ID                string
	FileName          string
	ContentType       string
	Content           []byte
	DownloadToken     string
	DownloadExpiresAt time.Time
}

// dashboardSource supplies the aggregated data a report is built from.
type dashboardSource interface {
	GetDashboardData(ctx context.Context, userID int64) (*dto.DashboardData, bool, error)
}

// ExportService renders semester grade reports as CSV or PDF.
type ExportService struct {
	dashboards dashboardSource
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	archive    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	now        func() time.Time
}

// ExportServiceParams groups constructor dependencies. Archive and Signer are
// optional; without them reports are rendered inline only.
type ExportServiceParams struct {
	Dashboards dashboardSource
	Archive    *storage.LocalStorage
	Signer     *storage.SignedURLSigner
	Logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		dashboards: params.Dashboards,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		archive:    params.Archive,
		signer:     params.Signer,
		logger:     logger,
		now:        time.Now,
	}
}

// SemesterReport renders the caller's semester overview in the requested
// format. An empty format defaults to CSV.
func (s *ExportService) SemesterReport(ctx context.Context, userID int64, format string) (*Report, error) {
	data, _, err := s.dashboards.GetDashboardData(ctx, userID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	dataset := buildSemesterDataset(data)
	reportID := uuid.NewString()
	stamp := s.now().UTC().Format("2006-01-02")

	var report *Report
	switch format {
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Semester Grade Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf render failed")
		}
		report = &Report{
			ID:          reportID,
			FileName:    fmt.Sprintf("semester-report-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}
	case FormatCSV, "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv render failed")
		}
		report = &Report{
			ID:          reportID,
			FileName:    fmt.Sprintf("semester-report-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	s.archiveReport(userID, report)
	return report, nil
}

// archiveReport persists the rendered report when an archive is configured.
// Archive failures are logged, not surfaced; the inline download still works.
func (s *ExportService) archiveReport(userID int64, report *Report) {
	if s.archive == nil || s.signer == nil {
		return
	}
	relPath := path.Join(strconv.FormatInt(userID, 10), report.ID+"-"+report.FileName)
	if _, err := s.archive.Save(relPath, report.Content); err != nil {
		s.logger.Warn("report archive write failed", zap.String("report_id", report.ID), zap.Error(err))
		return
	}
	token, expiresAt, err := s.signer.Generate(report.ID, relPath)
	if err != nil {
		s.logger.Warn("report token signing failed", zap.String("report_id", report.ID), zap.Error(err))
		return
	}
	report.DownloadToken = token
	report.DownloadExpiresAt = expiresAt
}

// OpenArchived resolves a signed download token to the stored report file.
func (s *ExportService) OpenArchived(token string) (*os.File, string, error) {
	if s.archive == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report archive disabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}
	file, err := s.archive.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return file, contentType, nil
}

// CleanupArchive removes archived reports older than ttl.
func (s *ExportService) CleanupArchive(ttl time.Duration) {
	if s.archive == nil {
		return
	}
	deleted, err := s.archive.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("report archive cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("report archive cleaned", zap.Int("deleted", len(deleted)))
	}
}

// buildSemesterDataset flattens course cards into one row per course plus a
// semester total row.
func buildSemesterDataset(data *dto.DashboardData) export.Dataset {
	headers := []string{"Course", "Code", "Current Score", "Letter Grade", "Trend", "Completed", "Upcoming", "Remaining %"}
	rows := make([]map[string]string, 0, len(data.CourseCards)+1)

	for _, card := range data.CourseCards {
		score := "-"
		letter := "-"
		if card.Enrollment != nil {
			if card.Enrollment.CurrentScore != nil {
				score = formatPercent(*card.Enrollment.CurrentScore)
			}
			if card.Enrollment.CurrentGrade != nil {
				letter = *card.Enrollment.CurrentGrade
			}
		}
		rows = append(rows, map[string]string{
			"Course":        card.Course.Name,
			"Code":          card.Course.CourseCode,
			"Current Score": score,
			"Letter Grade":  letter,
			"Trend":         card.Trend,
			"Completed":     strconv.Itoa(card.CompletedAssignments),
			"Upcoming":      strconv.Itoa(len(card.UpcomingAssignments)),
			"Remaining %":   formatPercent(card.RemainingPercent),
		})
	}

	summary := data.Summary
	rows = append(rows, map[string]string{
		"Course":        "Semester Total",
		"Code":          "",
		"Current Score": formatPercent(summary.OverallPercentage),
		"Letter Grade":  "",
		"Trend":         summary.OverallTrend,
		"Completed":     strconv.Itoa(summary.TotalCompletedAssignments),
		"Upcoming":      strconv.Itoa(summary.UpcomingCount),
		"Remaining %":   "",
	})

	return export.Dataset{Headers: headers, Rows: rows}
}

func formatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}
