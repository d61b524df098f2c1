package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/models"
	"github.com/madrasah-labs/class-review-api/internal/service"
	"github.com/madrasah-labs/class-review-api/pkg/response"
)

// ReportHandler exposes the reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

func dateRange(c *gin.Context) models.DateRange {
	var dr models.DateRange
	if from, err := time.Parse("2006-01-02", c.Query("dateFrom")); err == nil {
		dr.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("dateTo")); err == nil {
		dr.To = &to
	}
	return dr
}

// StatusDistribution godoc
// @Summary Video status distribution
// @Tags Reports
// @Produce json
// @Param dateFrom query string false "Lesson date lower bound (YYYY-MM-DD)"
// @Param dateTo query string false "Lesson date upper bound (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/status-distribution [get]
func (h *ReportHandler) StatusDistribution(c *gin.Context) {
	report, err := h.reports.StatusDistribution(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "status distribution", report)
}

// TurnaroundTime godoc
// @Summary Lifecycle turnaround intervals
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/turnaround-time [get]
func (h *ReportHandler) TurnaroundTime(c *gin.Context) {
	report, err := h.reports.TurnaroundTime(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "turnaround time", report)
}

// TeacherPerformance godoc
// @Summary Teacher rubric performance
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/teacher-performance [get]
func (h *ReportHandler) TeacherPerformance(c *gin.Context) {
	report, err := h.reports.TeacherPerformance(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "teacher performance", report)
}

// ReviewerProductivity godoc
// @Summary Reviewer workload and pace
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/reviewer-productivity [get]
func (h *ReportHandler) ReviewerProductivity(c *gin.Context) {
	report, err := h.reports.ReviewerProductivity(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "reviewer productivity", report)
}

// SubjectAnalytics godoc
// @Summary Per-subject analytics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/subject-analytics [get]
func (h *ReportHandler) SubjectAnalytics(c *gin.Context) {
	report, err := h.reports.SubjectAnalytics(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "subject analytics", report)
}

// ClassAnalytics godoc
// @Summary Per-class analytics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/class-analytics [get]
func (h *ReportHandler) ClassAnalytics(c *gin.Context) {
	report, err := h.reports.ClassAnalytics(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "class analytics", report)
}

// LanguageCompliance godoc
// @Summary Language rubric compliance
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/language-review-compliance [get]
func (h *ReportHandler) LanguageCompliance(c *gin.Context) {
	report, err := h.reports.LanguageCompliance(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "language review compliance", report)
}

// TimeTrends godoc
// @Summary Time-bucketed lifecycle trends
// @Tags Reports
// @Produce json
// @Param granularity query string false "daily, weekly or monthly"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/time-trends [get]
func (h *ReportHandler) TimeTrends(c *gin.Context) {
	report, err := h.reports.TimeTrends(c.Request.Context(), dateRange(c), c.Query("granularity"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "time trends", report)
}

// OperationalEfficiency godoc
// @Summary Queue sizes and SLA breaches
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/operational-efficiency [get]
func (h *ReportHandler) OperationalEfficiency(c *gin.Context) {
	report, err := h.reports.OperationalEfficiency(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "operational efficiency", report)
}

// QualityMetrics godoc
// @Summary Review quality metrics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/quality-metrics [get]
func (h *ReportHandler) QualityMetrics(c *gin.Context) {
	report, err := h.reports.QualityMetrics(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "quality metrics", report)
}

// Dashboard godoc
// @Summary Management dashboard
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	report, err := h.reports.Dashboard(c.Request.Context(), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "dashboard", report)
}

// Export godoc
// @Summary Export a report
// @Description Download a report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param report path string true "Report name"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/{report}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	result, err := h.exports.Export(c.Request.Context(), c.Param("report"), c.Query("format"), dateRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
