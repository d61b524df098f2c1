package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
	"github.com/madrasah-labs/class-review-api/pkg/export"
)

// ExportResult is a rendered report document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders reports as downloadable CSV or PDF documents.
type ExportService struct {
	reports *ReportService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(reports *ReportService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Export renders the named report in the requested format. Reports that do
// not flatten into a table (dashboard) cannot be exported.
func (s *ExportService) Export(ctx context.Context, report, format string, dr models.DateRange) (*ExportResult, error) {
	var (
		dataset export.Dataset
		title   string
		err     error
	)

	switch report {
	case "status-distribution":
		title = "Status Distribution"
		dataset, err = s.statusDistributionDataset(ctx, dr)
	case "turnaround-time":
		title = "Turnaround Time"
		dataset, err = s.turnaroundDataset(ctx, dr)
	case "teacher-performance":
		title = "Teacher Performance"
		dataset, err = s.teacherPerformanceDataset(ctx, dr)
	case "reviewer-productivity":
		title = "Reviewer Productivity"
		dataset, err = s.reviewerProductivityDataset(ctx, dr)
	case "subject-analytics":
		title = "Subject Analytics"
		dataset, err = s.subjectAnalyticsDataset(ctx, dr)
	case "class-analytics":
		title = "Class Analytics"
		dataset, err = s.classAnalyticsDataset(ctx, dr)
	case "language-review-compliance":
		title = "Language Review Compliance"
		dataset, err = s.languageComplianceDataset(ctx, dr)
	case "quality-metrics":
		title = "Quality Metrics"
		dataset, err = s.qualityMetricsDataset(ctx, dr)
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "unknown or non-exportable report")
	}
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    report + ".csv",
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    report + ".pdf",
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "format must be csv or pdf")
	}
}

func (s *ExportService) statusDistributionDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.StatusDistribution(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Scope", "Status", "Count", "Percentage"}}
	for _, bucket := range report.Overall {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Scope":      "overall",
			"Status":     string(bucket.Status),
			"Count":      strconv.Itoa(bucket.Count),
			"Percentage": formatFloat(bucket.Percentage),
		})
	}
	for _, class := range report.ByClass {
		for _, bucket := range class.Statuses {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Scope":      class.ClassName,
				"Status":     string(bucket.Status),
				"Count":      strconv.Itoa(bucket.Count),
				"Percentage": formatFloat(bucket.Percentage),
			})
		}
	}
	return dataset, nil
}

func (s *ExportService) turnaroundDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.TurnaroundTime(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Interval", "Average", "Min", "Max", "Median"}}
	for _, interval := range report.Intervals {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Interval": interval.Interval,
			"Average":  formatFloat(interval.Average),
			"Min":      formatFloat(interval.Min),
			"Max":      formatFloat(interval.Max),
			"Median":   formatFloat(interval.Median),
		})
	}
	return dataset, nil
}

func (s *ExportService) teacherPerformanceDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.TeacherPerformance(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Teacher", "Average Rating", "Published", "Comment Rate"}}
	for _, teacher := range report.Teachers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Teacher":        teacher.TeacherName,
			"Average Rating": formatFloat(teacher.AverageRating),
			"Published":      strconv.Itoa(teacher.PublishedCount),
			"Comment Rate":   formatFloat(teacher.CommentRate),
		})
	}
	return dataset, nil
}

func (s *ExportService) reviewerProductivityDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.ReviewerProductivity(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Reviewer", "Total", "Completed", "Pending", "Avg Days", "This Month", "Last Month"}}
	for _, reviewer := range report.Reviewers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reviewer":   reviewer.ReviewerName,
			"Total":      strconv.Itoa(reviewer.TotalAssigned),
			"Completed":  strconv.Itoa(reviewer.Completed),
			"Pending":    strconv.Itoa(reviewer.Pending),
			"Avg Days":   formatFloat(reviewer.AverageCompletionDays),
			"This Month": strconv.Itoa(reviewer.ThisMonth),
			"Last Month": strconv.Itoa(reviewer.LastMonth),
		})
	}
	return dataset, nil
}

func (s *ExportService) subjectAnalyticsDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.SubjectAnalytics(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	return groupAnalyticsDataset("Subject", report.Subjects), nil
}

func (s *ExportService) classAnalyticsDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.ClassAnalytics(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	return groupAnalyticsDataset("Class", report.Classes), nil
}

func (s *ExportService) languageComplianceDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.LanguageCompliance(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Criterion", "Yes", "No", "Yes Rate"}}
	for _, criterion := range report.Criteria {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Criterion": criterion.Criterion,
			"Yes":       strconv.Itoa(criterion.YesCount),
			"No":        strconv.Itoa(criterion.NoCount),
			"Yes Rate":  formatFloat(criterion.YesRate),
		})
	}
	return dataset, nil
}

func (s *ExportService) qualityMetricsDataset(ctx context.Context, dr models.DateRange) (export.Dataset, error) {
	report, err := s.reports.QualityMetrics(ctx, dr)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Metric", "Value"}}
	for _, bin := range report.RatingHistogram {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": fmt.Sprintf("ratings of %d", bin.Rating),
			"Value":  strconv.Itoa(bin.Count),
		})
	}
	for _, field := range []string{"overall", "strengths", "improvements", "suggestions"} {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": field + " fill rate",
			"Value":  formatFloat(report.FreeTextFillRates[field]),
		})
	}
	dataset.Rows = append(dataset.Rows,
		map[string]string{"Metric": "teacher comment rate", "Value": formatFloat(report.TeacherCommentRate)},
		map[string]string{"Metric": "data completeness", "Value": formatFloat(report.DataCompleteness)},
	)
	return dataset, nil
}

func groupAnalyticsDataset(label string, groups []dto.GroupAnalytics) export.Dataset {
	dataset := export.Dataset{Headers: []string{label, "Total", "Unassigned", "Assigned", "Reviewed", "Published", "Average Rating"}}
	for _, group := range groups {
		dataset.Rows = append(dataset.Rows, map[string]string{
			label:            group.Name,
			"Total":          strconv.Itoa(group.Total),
			"Unassigned":     strconv.Itoa(group.ByStatus[models.StatusUnassigned]),
			"Assigned":       strconv.Itoa(group.ByStatus[models.StatusAssigned]),
			"Reviewed":       strconv.Itoa(group.ByStatus[models.StatusReviewed]),
			"Published":      strconv.Itoa(group.ByStatus[models.StatusPublished]),
			"Average Rating": formatFloat(group.AverageRating),
		})
	}
	return dataset
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
