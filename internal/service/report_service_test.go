package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

type mockReportRepo struct {
	videos    []models.ReportVideo
	teachers  int
	reviewers int
	scanErr   error
}

func (m *mockReportRepo) Scan(ctx context.Context, dr models.DateRange) ([]models.ReportVideo, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return m.videos, nil
}

func (m *mockReportRepo) CountActiveByRole(ctx context.Context, role models.UserRole) (int, error) {
	return m.teachers, nil
}

func (m *mockReportRepo) CountDistinctReviewers(ctx context.Context) (int, error) {
	return m.reviewers, nil
}

func newReportService(repo *mockReportRepo) *ReportService {
	svc := NewReportService(repo, nil, nil, nil, ReportServiceConfig{ReviewSLADays: 7, PublishSLADays: 3})
	svc.now = func() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }
	return svc
}

func march(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func uniformReview(rating int) *models.Review {
	criterion := models.RatingCriterion{Rating: rating}
	return &models.Review{
		SubjectKnowledge:    criterion,
		LessonPlanning:      criterion,
		TeachingMethodology: criterion,
		StudentEngagement:   criterion,
		ClassroomManagement: criterion,
		Communication:       criterion,
		TimeManagement:      criterion,
		ResourceUse:         criterion,
		Overall:             "overall notes",
	}
}

func TestStatusDistributionEmpty(t *testing.T) {
	svc := newReportService(&mockReportRepo{})

	resp, err := svc.StatusDistribution(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	require.Len(t, resp.Overall, 4)
	for _, bucket := range resp.Overall {
		assert.Zero(t, bucket.Count)
		assert.Zero(t, bucket.Percentage)
	}
	assert.Empty(t, resp.ByClass)
}

func TestStatusDistributionPercentages(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{ID: "v1", Status: models.StatusUnassigned, ClassID: "c1", ClassName: "Class 5"},
		{ID: "v2", Status: models.StatusAssigned, ClassID: "c1", ClassName: "Class 5"},
		{ID: "v3", Status: models.StatusReviewed, ClassID: "c2", ClassName: "Class 6"},
		{ID: "v4", Status: models.StatusPublished, ClassID: "c2", ClassName: "Class 6"},
	}}
	svc := newReportService(repo)

	resp, err := svc.StatusDistribution(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Total)

	sum := 0.0
	for _, bucket := range resp.Overall {
		assert.Equal(t, 1, bucket.Count)
		assert.Equal(t, 25.0, bucket.Percentage)
		sum += bucket.Percentage
	}
	assert.Equal(t, 100.0, sum)

	require.Len(t, resp.ByClass, 2)
	assert.Equal(t, "Class 5", resp.ByClass[0].ClassName)
	assert.Equal(t, 2, resp.ByClass[0].Total)
}

func TestTurnaroundTimeIntervals(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID:          "v1",
			Status:      models.StatusPublished,
			CreatedAt:   march(10, 0),
			AssignedAt:  timePtr(march(11, 0)),
			ReviewedAt:  timePtr(march(13, 0)),
			PublishedAt: timePtr(march(14, 0)),
		},
		{ID: "v2", Status: models.StatusUnassigned, CreatedAt: march(12, 0)},
	}}
	svc := newReportService(repo)

	resp, err := svc.TurnaroundTime(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.VideoCount)

	byInterval := map[string]float64{}
	for _, interval := range resp.Intervals {
		byInterval[interval.Interval] = interval.Average
		assert.Equal(t, interval.Average, interval.Median)
	}
	assert.Equal(t, 1.0, byInterval["uploadToAssignment"])
	assert.Equal(t, 2.0, byInterval["assignmentToReview"])
	assert.Equal(t, 1.0, byInterval["reviewToPublication"])
	assert.Equal(t, 4.0, byInterval["totalCycle"])
}

func TestTeacherPerformanceRanking(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID: "v1", Status: models.StatusPublished,
			TeacherID: "t1", TeacherName: "Ustadh Bilal",
			Review: uniformReview(5), HasTeacherComment: true,
		},
		{
			ID: "v2", Status: models.StatusPublished,
			TeacherID: "t1", TeacherName: "Ustadh Bilal",
			Review: uniformReview(5),
		},
		{
			ID: "v3", Status: models.StatusPublished,
			TeacherID: "t2", TeacherName: "Ustadha Amina",
			Review: uniformReview(3),
		},
		// Reviewed but unpublished work stays out of teacher-facing stats.
		{
			ID: "v4", Status: models.StatusReviewed,
			TeacherID: "t2", TeacherName: "Ustadha Amina",
			Review: uniformReview(1),
		},
	}}
	svc := newReportService(repo)

	resp, err := svc.TeacherPerformance(context.Background(), models.DateRange{})
	require.NoError(t, err)
	require.Len(t, resp.Teachers, 2)

	best := resp.Teachers[0]
	assert.Equal(t, "t1", best.TeacherID)
	assert.Equal(t, 5.0, best.AverageRating)
	assert.Equal(t, 2, best.PublishedCount)
	assert.Equal(t, 50.0, best.CommentRate)
	assert.Equal(t, 5.0, best.CriterionAverages["subjectKnowledge"])

	assert.Equal(t, 3.0, resp.Teachers[1].AverageRating)

	require.Len(t, resp.Top, 2)
	assert.Equal(t, "t1", resp.Top[0].TeacherID)
	require.Len(t, resp.Bottom, 2)
	assert.Equal(t, "t2", resp.Bottom[0].TeacherID)
}

func TestReviewerProductivityMonths(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID: "v1", Status: models.StatusPublished,
			ReviewerID: strPtr("r1"), ReviewerName: strPtr("Sister Khadija"),
			AssignedAt: timePtr(march(1, 0)), ReviewedAt: timePtr(march(3, 0)),
		},
		{
			ID: "v2", Status: models.StatusReviewed,
			ReviewerID: strPtr("r1"), ReviewerName: strPtr("Sister Khadija"),
			AssignedAt: timePtr(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
			ReviewedAt: timePtr(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)),
		},
		{
			ID: "v3", Status: models.StatusAssigned,
			ReviewerID: strPtr("r1"), ReviewerName: strPtr("Sister Khadija"),
			AssignedAt: timePtr(march(18, 0)),
		},
	}}
	svc := newReportService(repo)

	resp, err := svc.ReviewerProductivity(context.Background(), models.DateRange{})
	require.NoError(t, err)
	require.Len(t, resp.Reviewers, 1)

	r := resp.Reviewers[0]
	assert.Equal(t, "Sister Khadija", r.ReviewerName)
	assert.Equal(t, 3, r.TotalAssigned)
	assert.Equal(t, 2, r.Completed)
	assert.Equal(t, 1, r.Pending)
	assert.Equal(t, 1, r.ThisMonth)
	assert.Equal(t, 1, r.LastMonth)
	assert.Equal(t, 3.0, r.AverageCompletionDays)
}

func TestSubjectAnalyticsGrouping(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{ID: "v1", Status: models.StatusPublished, SubjectID: "s1", SubjectName: "Quran", Review: uniformReview(4)},
		{ID: "v2", Status: models.StatusAssigned, SubjectID: "s1", SubjectName: "Quran"},
		{ID: "v3", Status: models.StatusUnassigned, SubjectID: "s2", SubjectName: "Mathematics"},
	}}
	svc := newReportService(repo)

	resp, err := svc.SubjectAnalytics(context.Background(), models.DateRange{})
	require.NoError(t, err)
	require.Len(t, resp.Subjects, 2)

	bySubject := map[string]int{}
	for _, group := range resp.Subjects {
		bySubject[group.Name] = group.Total
	}
	assert.Equal(t, 2, bySubject["Quran"])
	assert.Equal(t, 1, bySubject["Mathematics"])
}

func TestLanguageComplianceRates(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID: "v1", Status: models.StatusReviewed, SubjectCategory: models.CategoryLanguage,
			LanguageReview: &models.LanguageReview{
				CorrectRecitation: models.YesNoCriterion{AnsweredYes: true},
				TajweedApplied:    models.YesNoCriterion{AnsweredYes: false},
			},
		},
		{ID: "v2", Status: models.StatusAssigned, SubjectCategory: models.CategoryLanguage},
		{ID: "v3", Status: models.StatusReviewed, SubjectCategory: models.CategoryGeneral, Review: uniformReview(4)},
	}}
	svc := newReportService(repo)

	resp, err := svc.LanguageCompliance(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.InScopeVideos)
	assert.Equal(t, 1, resp.WithLanguageReview)
	assert.Equal(t, 50.0, resp.CoverageRate)

	require.Len(t, resp.Criteria, 6)
	byCriterion := map[string]float64{}
	for _, c := range resp.Criteria {
		byCriterion[c.Criterion] = c.YesRate
	}
	assert.Equal(t, 100.0, byCriterion["correctRecitation"])
	assert.Equal(t, 0.0, byCriterion["tajweedApplied"])
}

func TestTimeTrendsDailyBuckets(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID: "v1", Status: models.StatusReviewed,
			CreatedAt:  march(10, 9),
			ReviewedAt: timePtr(march(12, 14)),
			Review:     uniformReview(4),
		},
		{ID: "v2", Status: models.StatusUnassigned, CreatedAt: march(10, 11)},
	}}
	svc := newReportService(repo)

	resp, err := svc.TimeTrends(context.Background(), models.DateRange{}, "")
	require.NoError(t, err)
	assert.Equal(t, "daily", resp.Granularity)
	require.Len(t, resp.Buckets, 2)

	assert.Equal(t, "2026-03-10", resp.Buckets[0].Period)
	assert.Equal(t, 2, resp.Buckets[0].Uploaded)
	assert.Equal(t, "2026-03-12", resp.Buckets[1].Period)
	assert.Equal(t, 1, resp.Buckets[1].Reviewed)
	assert.Equal(t, 4.0, resp.Buckets[1].AverageRating)
}

func TestTimeTrendsRejectsUnknownGranularity(t *testing.T) {
	svc := newReportService(&mockReportRepo{})

	_, err := svc.TimeTrends(context.Background(), models.DateRange{}, "hourly")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestOperationalEfficiencyQueues(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		// Assigned 19 days ago: past the 7 day review SLA.
		{ID: "v1", Status: models.StatusAssigned, AssignedAt: timePtr(march(1, 12))},
		// Assigned 2 days ago: inside the SLA.
		{ID: "v2", Status: models.StatusAssigned, AssignedAt: timePtr(march(18, 12))},
		// Reviewed 1 day ago: inside the 3 day publish SLA.
		{ID: "v3", Status: models.StatusReviewed, ReviewedAt: timePtr(march(19, 12))},
		{ID: "v4", Status: models.StatusPublished},
	}}
	svc := newReportService(repo)

	resp, err := svc.OperationalEfficiency(context.Background(), models.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.ReviewQueue.Size)
	assert.Equal(t, 1, resp.ReviewQueue.ExceedingSLA)
	assert.Equal(t, 7, resp.ReviewQueue.SLADays)
	assert.Equal(t, 10.5, resp.ReviewQueue.AverageAgeDay)

	assert.Equal(t, 1, resp.PublicationQueue.Size)
	assert.Zero(t, resp.PublicationQueue.ExceedingSLA)
	assert.Equal(t, 3, resp.PublicationQueue.SLADays)
}

func TestQualityMetrics(t *testing.T) {
	repo := &mockReportRepo{videos: []models.ReportVideo{
		{
			ID: "v1", Status: models.StatusPublished,
			AssignedAt: timePtr(march(1, 0)), ReviewedAt: timePtr(march(3, 0)), PublishedAt: timePtr(march(4, 0)),
			ReviewerID: strPtr("r1"), Review: uniformReview(4), HasTeacherComment: true,
		},
		{
			ID: "v2", Status: models.StatusPublished,
			AssignedAt: timePtr(march(2, 0)), ReviewedAt: timePtr(march(5, 0)), PublishedAt: timePtr(march(6, 0)),
			ReviewerID: strPtr("r1"), Review: uniformReview(2),
		},
	}}
	svc := newReportService(repo)

	resp, err := svc.QualityMetrics(context.Background(), models.DateRange{})
	require.NoError(t, err)

	require.Len(t, resp.RatingHistogram, 5)
	counts := map[int]int{}
	for _, bin := range resp.RatingHistogram {
		counts[bin.Rating] = bin.Count
	}
	assert.Equal(t, 8, counts[4])
	assert.Equal(t, 8, counts[2])
	assert.Zero(t, counts[5])

	assert.Equal(t, 100.0, resp.FreeTextFillRates["overall"])
	assert.Equal(t, 0.0, resp.FreeTextFillRates["strengths"])
	assert.Equal(t, 50.0, resp.TeacherCommentRate)
	assert.Equal(t, 100.0, resp.DataCompleteness)
}

func TestQualityMetricsEmpty(t *testing.T) {
	svc := newReportService(&mockReportRepo{})

	resp, err := svc.QualityMetrics(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, resp.TeacherCommentRate)
	assert.Zero(t, resp.DataCompleteness)
	for _, bin := range resp.RatingHistogram {
		assert.Zero(t, bin.Count)
	}
}

func TestDashboardHealthScore(t *testing.T) {
	repo := &mockReportRepo{
		teachers:  12,
		reviewers: 3,
		videos: []models.ReportVideo{
			{ID: "v1", Status: models.StatusUnassigned, CreatedAt: march(15, 0)},
			// Past the review SLA: assigned 19 days before the fixed clock.
			{ID: "v2", Status: models.StatusAssigned, CreatedAt: march(1, 0), AssignedAt: timePtr(march(1, 12))},
			{ID: "v3", Status: models.StatusReviewed, CreatedAt: march(17, 0), ReviewedAt: timePtr(march(19, 12)), Review: uniformReview(4)},
			{
				ID: "v4", Status: models.StatusPublished, CreatedAt: march(10, 0),
				PublishedAt: timePtr(march(15, 0)), Review: uniformReview(4),
			},
		},
	}
	svc := newReportService(repo)

	resp, err := svc.Dashboard(context.Background(), models.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.TotalVideos)
	assert.Equal(t, 1, resp.VideosByStatus[models.StatusAssigned])
	assert.Equal(t, 1, resp.PublishedThisMonth)
	assert.Equal(t, 4.0, resp.AverageTeacherRating)
	assert.Equal(t, 50.0, resp.ReviewCompletionRate)
	assert.Equal(t, 5.0, resp.AverageTurnaroundDays)
	assert.Equal(t, 12, resp.ActiveTeachers)
	assert.Equal(t, 3, resp.ActiveReviewers)

	assert.Equal(t, 75.0, resp.SubScores.ReviewQueue)
	assert.Equal(t, 75.0, resp.SubScores.PublicationQueue)
	assert.Equal(t, 50.0, resp.SubScores.SLACompliance)
	assert.Equal(t, 50.0, resp.SubScores.CompletionRate)
	assert.Equal(t, 62.5, resp.HealthScore)
}

func TestDashboardEmpty(t *testing.T) {
	svc := newReportService(&mockReportRepo{teachers: 5})

	resp, err := svc.Dashboard(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, resp.TotalVideos)
	assert.Zero(t, resp.AverageTurnaroundDays)
	assert.Equal(t, 100.0, resp.SubScores.ReviewQueue)
	assert.Equal(t, 100.0, resp.SubScores.SLACompliance)
	assert.Equal(t, 0.0, resp.SubScores.CompletionRate)
	assert.Equal(t, 75.0, resp.HealthScore)
}
