package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

type reportRepository interface {
	Scan(ctx context.Context, dr models.DateRange) ([]models.ReportVideo, error)
	CountActiveByRole(ctx context.Context, role models.UserRole) (int, error)
	CountDistinctReviewers(ctx context.Context) (int, error)
}

// ReportServiceConfig carries the reporting thresholds and cache TTL.
type ReportServiceConfig struct {
	CacheTTL       time.Duration
	ReviewSLADays  int
	PublishSLADays int
}

// ReportService computes the read-only aggregations over the video store.
// Every report derives from one filtered scan; results are cached in Redis
// under reports:<name>:<range> and invalidated by any lifecycle write.
type ReportService struct {
	repo    reportRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	config  ReportServiceConfig
	now     func() time.Time
}

// NewReportService constructs a ReportService instance.
func NewReportService(repo reportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.ReviewSLADays <= 0 {
		config.ReviewSLADays = 7
	}
	if config.PublishSLADays <= 0 {
		config.PublishSLADays = 3
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, logger: logger, config: config, now: time.Now}
}

// StatusDistribution is report 1: counts and percentages per lifecycle
// state, overall and per class.
func (s *ReportService) StatusDistribution(ctx context.Context, dr models.DateRange) (*dto.StatusDistributionResponse, error) {
	key := reportKey("status-distribution", dr)
	var cached dto.StatusDistributionResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("status-distribution")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatusDistributionResponse{
		Total:   len(videos),
		Overall: statusBuckets(videos),
	}
	if dr.From != nil {
		from := dr.From.Format(dateLayout)
		resp.DateFrom = &from
	}
	if dr.To != nil {
		to := dr.To.Format(dateLayout)
		resp.DateTo = &to
	}

	byClass := map[string][]models.ReportVideo{}
	names := map[string]string{}
	for _, v := range videos {
		byClass[v.ClassID] = append(byClass[v.ClassID], v)
		names[v.ClassID] = v.ClassName
	}
	for classID, group := range byClass {
		resp.ByClass = append(resp.ByClass, dto.ClassStatusDistribution{
			ClassID:   classID,
			ClassName: names[classID],
			Total:     len(group),
			Statuses:  statusBuckets(group),
		})
	}
	sort.Slice(resp.ByClass, func(i, j int) bool { return resp.ByClass[i].ClassName < resp.ByClass[j].ClassName })

	s.store(ctx, key, resp)
	return resp, nil
}

// TurnaroundTime is report 2: day-granularity lifecycle intervals derived
// from the explicit assigned/reviewed/published timestamps.
func (s *ReportService) TurnaroundTime(ctx context.Context, dr models.DateRange) (*dto.TurnaroundTimeResponse, error) {
	key := reportKey("turnaround-time", dr)
	var cached dto.TurnaroundTimeResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("turnaround-time")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	var uploadToAssign, assignToReview, reviewToPublish, total []float64
	count := 0
	for _, v := range videos {
		if v.Status != models.StatusReviewed && v.Status != models.StatusPublished {
			continue
		}
		count++
		if v.AssignedAt != nil {
			uploadToAssign = append(uploadToAssign, daysBetween(v.CreatedAt, *v.AssignedAt))
			if v.ReviewedAt != nil {
				assignToReview = append(assignToReview, daysBetween(*v.AssignedAt, *v.ReviewedAt))
			}
		}
		if v.ReviewedAt != nil && v.PublishedAt != nil {
			reviewToPublish = append(reviewToPublish, daysBetween(*v.ReviewedAt, *v.PublishedAt))
		}
		if v.PublishedAt != nil {
			total = append(total, daysBetween(v.CreatedAt, *v.PublishedAt))
		}
	}

	resp := &dto.TurnaroundTimeResponse{
		VideoCount: count,
		Intervals: []dto.IntervalStats{
			intervalStats("uploadToAssignment", uploadToAssign),
			intervalStats("assignmentToReview", assignToReview),
			intervalStats("reviewToPublication", reviewToPublish),
			intervalStats("totalCycle", total),
		},
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// TeacherPerformance is report 3: per-teacher rubric averages over published
// reviews, with a top-5 and bottom-5 ranking.
func (s *ReportService) TeacherPerformance(ctx context.Context, dr models.DateRange) (*dto.TeacherPerformanceResponse, error) {
	key := reportKey("teacher-performance", dr)
	var cached dto.TeacherPerformanceResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("teacher-performance")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	type teacherAgg struct {
		id, name       string
		ratingSum      float64
		ratingCount    int
		criterionSums  map[string]int
		criterionCount int
		published      int
		commented      int
	}
	byTeacher := map[string]*teacherAgg{}
	for _, v := range videos {
		if v.Status != models.StatusPublished {
			continue
		}
		agg, ok := byTeacher[v.TeacherID]
		if !ok {
			agg = &teacherAgg{id: v.TeacherID, name: v.TeacherName, criterionSums: map[string]int{}}
			byTeacher[v.TeacherID] = agg
		}
		agg.published++
		if v.HasTeacherComment {
			agg.commented++
		}
		if v.Review != nil {
			agg.ratingSum += v.Review.AverageRating()
			agg.ratingCount++
			agg.criterionCount++
			for _, item := range v.Review.Ratings() {
				agg.criterionSums[item.Name] += item.Rating
			}
		}
	}

	resp := &dto.TeacherPerformanceResponse{}
	for _, agg := range byTeacher {
		perf := dto.TeacherPerformance{
			TeacherID:         agg.id,
			TeacherName:       agg.name,
			PublishedCount:    agg.published,
			CommentRate:       percentage(agg.commented, agg.published),
			CriterionAverages: map[string]float64{},
		}
		if agg.ratingCount > 0 {
			perf.AverageRating = round2(agg.ratingSum / float64(agg.ratingCount))
		}
		for name, sum := range agg.criterionSums {
			perf.CriterionAverages[name] = round2(float64(sum) / float64(agg.criterionCount))
		}
		resp.Teachers = append(resp.Teachers, perf)
	}
	sort.Slice(resp.Teachers, func(i, j int) bool {
		if resp.Teachers[i].AverageRating != resp.Teachers[j].AverageRating {
			return resp.Teachers[i].AverageRating > resp.Teachers[j].AverageRating
		}
		return resp.Teachers[i].TeacherName < resp.Teachers[j].TeacherName
	})

	ranked := make([]dto.TeacherRank, 0, len(resp.Teachers))
	for _, t := range resp.Teachers {
		if t.AverageRating > 0 {
			ranked = append(ranked, dto.TeacherRank{TeacherID: t.TeacherID, TeacherName: t.TeacherName, AverageRating: t.AverageRating})
		}
	}
	resp.Top = topN(ranked, 5)
	reversed := make([]dto.TeacherRank, len(ranked))
	for i := range ranked {
		reversed[i] = ranked[len(ranked)-1-i]
	}
	resp.Bottom = topN(reversed, 5)

	s.store(ctx, key, resp)
	return resp, nil
}

// ReviewerProductivity is report 4: per-reviewer workload and completion
// pace, with this-month and last-month completion counts.
func (s *ReportService) ReviewerProductivity(ctx context.Context, dr models.DateRange) (*dto.ReviewerProductivityResponse, error) {
	key := reportKey("reviewer-productivity", dr)
	var cached dto.ReviewerProductivityResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("reviewer-productivity")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	thisMonth := now.Format(monthLayout)
	lastMonth := now.AddDate(0, -1, 0).Format(monthLayout)

	type reviewerAgg struct {
		id, name             string
		total, completed     int
		pending              int
		completionDays       []float64
		thisMonth, lastMonth int
	}
	byReviewer := map[string]*reviewerAgg{}
	for _, v := range videos {
		if v.ReviewerID == nil {
			continue
		}
		agg, ok := byReviewer[*v.ReviewerID]
		if !ok {
			agg = &reviewerAgg{id: *v.ReviewerID}
			if v.ReviewerName != nil {
				agg.name = *v.ReviewerName
			}
			byReviewer[*v.ReviewerID] = agg
		}
		agg.total++
		if v.ReviewedAt != nil {
			agg.completed++
			if v.AssignedAt != nil {
				agg.completionDays = append(agg.completionDays, daysBetween(*v.AssignedAt, *v.ReviewedAt))
			}
			switch v.ReviewedAt.Format(monthLayout) {
			case thisMonth:
				agg.thisMonth++
			case lastMonth:
				agg.lastMonth++
			}
		} else if v.Status == models.StatusAssigned {
			agg.pending++
		}
	}

	resp := &dto.ReviewerProductivityResponse{}
	for _, agg := range byReviewer {
		resp.Reviewers = append(resp.Reviewers, dto.ReviewerProductivity{
			ReviewerID:            agg.id,
			ReviewerName:          agg.name,
			TotalAssigned:         agg.total,
			Completed:             agg.completed,
			Pending:               agg.pending,
			AverageCompletionDays: round2(mean(agg.completionDays)),
			ThisMonth:             agg.thisMonth,
			LastMonth:             agg.lastMonth,
		})
	}
	sort.Slice(resp.Reviewers, func(i, j int) bool {
		if resp.Reviewers[i].Completed != resp.Reviewers[j].Completed {
			return resp.Reviewers[i].Completed > resp.Reviewers[j].Completed
		}
		return resp.Reviewers[i].ReviewerName < resp.Reviewers[j].ReviewerName
	})

	s.store(ctx, key, resp)
	return resp, nil
}

// SubjectAnalytics is report 5: per-subject status counts and ratings.
func (s *ReportService) SubjectAnalytics(ctx context.Context, dr models.DateRange) (*dto.SubjectAnalyticsResponse, error) {
	key := reportKey("subject-analytics", dr)
	var cached dto.SubjectAnalyticsResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("subject-analytics")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubjectAnalyticsResponse{
		Subjects: groupAnalytics(videos, func(v *models.ReportVideo) (string, string) { return v.SubjectID, v.SubjectName }),
	}
	s.store(ctx, key, resp)
	return resp, nil
}

// ClassAnalytics is report 6: per-class status counts and ratings.
func (s *ReportService) ClassAnalytics(ctx context.Context, dr models.DateRange) (*dto.ClassAnalyticsResponse, error) {
	key := reportKey("class-analytics", dr)
	var cached dto.ClassAnalyticsResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("class-analytics")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClassAnalyticsResponse{
		Classes: groupAnalytics(videos, func(v *models.ReportVideo) (string, string) { return v.ClassID, v.ClassName }),
	}
	s.store(ctx, key, resp)
	return resp, nil
}

// LanguageCompliance is report 7: coverage of language-subject videos and
// per-criterion yes-rates.
func (s *ReportService) LanguageCompliance(ctx context.Context, dr models.DateRange) (*dto.LanguageComplianceResponse, error) {
	key := reportKey("language-review-compliance", dr)
	var cached dto.LanguageComplianceResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("language-review-compliance")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	inScope := 0
	reviewed := 0
	yesCounts := map[string]int{}
	var criterionOrder []string
	for _, v := range videos {
		if v.SubjectCategory != models.CategoryLanguage {
			continue
		}
		inScope++
		if v.LanguageReview == nil {
			continue
		}
		reviewed++
		answers := v.LanguageReview.Answers()
		if criterionOrder == nil {
			for _, a := range answers {
				criterionOrder = append(criterionOrder, a.Name)
			}
		}
		for _, a := range answers {
			if a.AnsweredYes {
				yesCounts[a.Name]++
			}
		}
	}
	if criterionOrder == nil {
		for _, a := range (&models.LanguageReview{}).Answers() {
			criterionOrder = append(criterionOrder, a.Name)
		}
	}

	resp := &dto.LanguageComplianceResponse{
		InScopeVideos:      inScope,
		WithLanguageReview: reviewed,
		CoverageRate:       percentage(reviewed, inScope),
	}
	for _, name := range criterionOrder {
		yes := yesCounts[name]
		resp.Criteria = append(resp.Criteria, dto.CriterionCompliance{
			Criterion: name,
			YesCount:  yes,
			NoCount:   reviewed - yes,
			YesRate:   percentage(yes, reviewed),
		})
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// TimeTrends is report 8: time-bucketed lifecycle activity. Granularity is
// one of daily, weekly or monthly.
func (s *ReportService) TimeTrends(ctx context.Context, dr models.DateRange, granularity string) (*dto.TimeTrendsResponse, error) {
	switch granularity {
	case "":
		granularity = "daily"
	case "daily", "weekly", "monthly":
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "granularity must be daily, weekly or monthly")
	}

	key := reportKey("time-trends", dr) + ":" + granularity
	var cached dto.TimeTrendsResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("time-trends")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	bucketOf := bucketFunc(granularity)
	type trendAgg struct {
		uploaded, reviewed, published int
		ratingSum                     float64
		ratingCount                   int
	}
	buckets := map[string]*trendAgg{}
	get := func(period string) *trendAgg {
		agg, ok := buckets[period]
		if !ok {
			agg = &trendAgg{}
			buckets[period] = agg
		}
		return agg
	}
	for _, v := range videos {
		get(bucketOf(v.CreatedAt)).uploaded++
		if v.ReviewedAt != nil {
			agg := get(bucketOf(*v.ReviewedAt))
			agg.reviewed++
			if v.Review != nil {
				agg.ratingSum += v.Review.AverageRating()
				agg.ratingCount++
			}
		}
		if v.PublishedAt != nil {
			get(bucketOf(*v.PublishedAt)).published++
		}
	}

	resp := &dto.TimeTrendsResponse{Granularity: granularity}
	for period, agg := range buckets {
		bucket := dto.TrendBucket{
			Period:    period,
			Uploaded:  agg.uploaded,
			Reviewed:  agg.reviewed,
			Published: agg.published,
		}
		if agg.ratingCount > 0 {
			bucket.AverageRating = round2(agg.ratingSum / float64(agg.ratingCount))
		}
		resp.Buckets = append(resp.Buckets, bucket)
	}
	sort.Slice(resp.Buckets, func(i, j int) bool { return resp.Buckets[i].Period < resp.Buckets[j].Period })

	s.store(ctx, key, resp)
	return resp, nil
}

// OperationalEfficiency is report 9: the pending queues measured against
// their SLA thresholds.
func (s *ReportService) OperationalEfficiency(ctx context.Context, dr models.DateRange) (*dto.OperationalEfficiencyResponse, error) {
	key := reportKey("operational-efficiency", dr)
	var cached dto.OperationalEfficiencyResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("operational-efficiency")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	resp := &dto.OperationalEfficiencyResponse{
		ReviewQueue:      s.queueStats(videos, models.StatusAssigned, s.config.ReviewSLADays, now),
		PublicationQueue: s.queueStats(videos, models.StatusReviewed, s.config.PublishSLADays, now),
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// QualityMetrics is report 10: rating histogram, free-text fill rates and
// data completeness.
func (s *ReportService) QualityMetrics(ctx context.Context, dr models.DateRange) (*dto.QualityMetricsResponse, error) {
	key := reportKey("quality-metrics", dr)
	var cached dto.QualityMetricsResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("quality-metrics")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	histogram := map[int]int{}
	freeTextFilled := map[string]int{}
	reviewCount := 0
	published := 0
	commented := 0
	fieldsPresent := 0
	fieldsExpected := 0
	for _, v := range videos {
		if v.Status == models.StatusPublished {
			published++
			if v.HasTeacherComment {
				commented++
			}
		}

		var freeText map[string]string
		if v.Review != nil {
			reviewCount++
			for _, item := range v.Review.Ratings() {
				histogram[item.Rating]++
			}
			freeText = map[string]string{
				"overall":      v.Review.Overall,
				"strengths":    v.Review.Strengths,
				"improvements": v.Review.Improvements,
				"suggestions":  v.Review.Suggestions,
			}
		} else if v.LanguageReview != nil {
			reviewCount++
			freeText = map[string]string{
				"overall":      v.LanguageReview.Overall,
				"strengths":    v.LanguageReview.Strengths,
				"improvements": v.LanguageReview.Improvements,
				"suggestions":  v.LanguageReview.Suggestions,
			}
		}
		for field, value := range freeText {
			if value != "" {
				freeTextFilled[field]++
			}
		}

		present, expected := completenessOf(&v)
		fieldsPresent += present
		fieldsExpected += expected
	}

	resp := &dto.QualityMetricsResponse{
		FreeTextFillRates:  map[string]float64{},
		TeacherCommentRate: percentage(commented, published),
		DataCompleteness:   percentage(fieldsPresent, fieldsExpected),
	}
	for rating := 1; rating <= 5; rating++ {
		resp.RatingHistogram = append(resp.RatingHistogram, dto.RatingBin{Rating: rating, Count: histogram[rating]})
	}
	for _, field := range []string{"overall", "strengths", "improvements", "suggestions"} {
		resp.FreeTextFillRates[field] = percentage(freeTextFilled[field], reviewCount)
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// Dashboard is report 11: the composed management summary with the derived
// 0-100 health score.
func (s *ReportService) Dashboard(ctx context.Context, dr models.DateRange) (*dto.DashboardResponse, error) {
	key := reportKey("dashboard", dr)
	var cached dto.DashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}
	defer s.observe("dashboard")()

	videos, err := s.scan(ctx, dr)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	thisMonth := now.Format(monthLayout)

	byStatus := map[models.VideoStatus]int{}
	for _, status := range models.AllStatuses() {
		byStatus[status] = 0
	}
	publishedThisMonth := 0
	ratingSum := 0.0
	ratingCount := 0
	var turnarounds []float64
	slaBreaches := 0
	queueTotal := 0
	for _, v := range videos {
		byStatus[v.Status]++
		if v.PublishedAt != nil {
			if v.PublishedAt.Format(monthLayout) == thisMonth {
				publishedThisMonth++
			}
			turnarounds = append(turnarounds, daysBetween(v.CreatedAt, *v.PublishedAt))
		}
		if v.Review != nil {
			ratingSum += v.Review.AverageRating()
			ratingCount++
		}
		switch v.Status {
		case models.StatusAssigned:
			queueTotal++
			if queueAge(&v, now) > float64(s.config.ReviewSLADays) {
				slaBreaches++
			}
		case models.StatusReviewed:
			queueTotal++
			if queueAge(&v, now) > float64(s.config.PublishSLADays) {
				slaBreaches++
			}
		}
	}

	total := len(videos)
	completed := byStatus[models.StatusReviewed] + byStatus[models.StatusPublished]
	completionRate := percentage(completed, total)

	subScores := dto.DashboardSubScores{
		ReviewQueue:      queueHealth(byStatus[models.StatusAssigned], total),
		PublicationQueue: queueHealth(byStatus[models.StatusReviewed], total),
		SLACompliance:    slaCompliance(slaBreaches, queueTotal),
		CompletionRate:   completionRate,
	}
	health := round2((subScores.ReviewQueue + subScores.PublicationQueue + subScores.SLACompliance + subScores.CompletionRate) / 4)

	activeTeachers, err := s.repo.CountActiveByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	activeReviewers, err := s.repo.CountDistinctReviewers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reviewers")
	}

	avgRating := 0.0
	if ratingCount > 0 {
		avgRating = round2(ratingSum / float64(ratingCount))
	}

	resp := &dto.DashboardResponse{
		TotalVideos:           total,
		VideosByStatus:        byStatus,
		PublishedThisMonth:    publishedThisMonth,
		AverageTeacherRating:  avgRating,
		ReviewCompletionRate:  completionRate,
		AverageTurnaroundDays: round2(mean(turnarounds)),
		ActiveTeachers:        activeTeachers,
		ActiveReviewers:       activeReviewers,
		HealthScore:           health,
		SubScores:             subScores,
	}

	s.store(ctx, key, resp)
	return resp, nil
}

func (s *ReportService) scan(ctx context.Context, dr models.DateRange) ([]models.ReportVideo, error) {
	videos, err := s.repo.Scan(ctx, dr)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan videos")
	}
	return videos, nil
}

func (s *ReportService) queueStats(videos []models.ReportVideo, status models.VideoStatus, slaDays int, now time.Time) dto.QueueStats {
	stats := dto.QueueStats{SLADays: slaDays}
	var ages []float64
	for i := range videos {
		v := &videos[i]
		if v.Status != status {
			continue
		}
		stats.Size++
		age := queueAge(v, now)
		ages = append(ages, age)
		if age > float64(slaDays) {
			stats.ExceedingSLA++
		}
	}
	stats.AverageAgeDay = round2(mean(ages))
	return stats
}

func (s *ReportService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || !s.cache.Enabled() {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *ReportService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReportService) observe(report string) func() {
	start := s.now()
	return func() {
		if s.metrics != nil {
			s.metrics.ObserveReport(report, s.now().Sub(start))
		}
	}
}

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

func reportKey(name string, dr models.DateRange) string {
	from, to := "-", "-"
	if dr.From != nil {
		from = dr.From.Format(dateLayout)
	}
	if dr.To != nil {
		to = dr.To.Format(dateLayout)
	}
	return fmt.Sprintf("reports:%s:%s:%s", name, from, to)
}

func statusBuckets(videos []models.ReportVideo) []dto.StatusBucket {
	counts := map[models.VideoStatus]int{}
	for _, v := range videos {
		counts[v.Status]++
	}
	buckets := make([]dto.StatusBucket, 0, 4)
	for _, status := range models.AllStatuses() {
		buckets = append(buckets, dto.StatusBucket{
			Status:     status,
			Count:      counts[status],
			Percentage: percentage(counts[status], len(videos)),
		})
	}
	return buckets
}

func groupAnalytics(videos []models.ReportVideo, keyOf func(*models.ReportVideo) (string, string)) []dto.GroupAnalytics {
	type groupAgg struct {
		id, name    string
		total       int
		byStatus    map[models.VideoStatus]int
		ratingSum   float64
		ratingCount int
	}
	groups := map[string]*groupAgg{}
	for i := range videos {
		v := &videos[i]
		id, name := keyOf(v)
		agg, ok := groups[id]
		if !ok {
			agg = &groupAgg{id: id, name: name, byStatus: map[models.VideoStatus]int{}}
			groups[id] = agg
		}
		agg.total++
		agg.byStatus[v.Status]++
		if v.Review != nil {
			agg.ratingSum += v.Review.AverageRating()
			agg.ratingCount++
		}
	}

	out := make([]dto.GroupAnalytics, 0, len(groups))
	for _, agg := range groups {
		item := dto.GroupAnalytics{ID: agg.id, Name: agg.name, Total: agg.total, ByStatus: agg.byStatus}
		if agg.ratingCount > 0 {
			item.AverageRating = round2(agg.ratingSum / float64(agg.ratingCount))
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func intervalStats(name string, days []float64) dto.IntervalStats {
	stats := dto.IntervalStats{Interval: name}
	if len(days) == 0 {
		return stats
	}
	sorted := append([]float64(nil), days...)
	sort.Float64s(sorted)
	stats.Average = round2(mean(sorted))
	stats.Min = round2(sorted[0])
	stats.Max = round2(sorted[len(sorted)-1])
	stats.Median = round2(median(sorted))
	return stats
}

func bucketFunc(granularity string) func(time.Time) string {
	switch granularity {
	case "weekly":
		return func(t time.Time) string {
			year, week := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", year, week)
		}
	case "monthly":
		return func(t time.Time) string { return t.Format(monthLayout) }
	default:
		return func(t time.Time) string { return t.Format(dateLayout) }
	}
}

// queueAge measures how long a video has sat in its current queue. Falls
// back to the upload time when the state timestamp is missing.
func queueAge(v *models.ReportVideo, now time.Time) float64 {
	switch v.Status {
	case models.StatusAssigned:
		if v.AssignedAt != nil {
			return daysBetween(*v.AssignedAt, now)
		}
	case models.StatusReviewed:
		if v.ReviewedAt != nil {
			return daysBetween(*v.ReviewedAt, now)
		}
	}
	return daysBetween(v.CreatedAt, now)
}

// completenessOf counts the lifecycle fields a video is expected to carry in
// its current state against those actually present.
func completenessOf(v *models.ReportVideo) (present, expected int) {
	switch v.Status {
	case models.StatusUnassigned:
		return 0, 0
	case models.StatusAssigned:
		expected = 2
		present = countPresent(v.ReviewerID != nil, v.AssignedAt != nil)
	case models.StatusReviewed:
		expected = 4
		present = countPresent(v.ReviewerID != nil, v.AssignedAt != nil, v.ReviewedAt != nil,
			v.Review != nil || v.LanguageReview != nil)
	case models.StatusPublished:
		expected = 5
		present = countPresent(v.ReviewerID != nil, v.AssignedAt != nil, v.ReviewedAt != nil,
			v.Review != nil || v.LanguageReview != nil, v.PublishedAt != nil)
	}
	return present, expected
}

func countPresent(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// queueHealth scores a queue from 0 to 100 by the share of all videos stuck
// in it: an empty queue is 100, everything queued is 0.
func queueHealth(queued, total int) float64 {
	if total == 0 {
		return 100
	}
	return round2(100 * (1 - float64(queued)/float64(total)))
}

// slaCompliance scores SLA adherence across both pending queues. Empty
// queues count as fully compliant.
func slaCompliance(breaches, queued int) float64 {
	if queued == 0 {
		return 100
	}
	return round2(100 * (1 - float64(breaches)/float64(queued)))
}

func topN(ranked []dto.TeacherRank, n int) []dto.TeacherRank {
	if len(ranked) < n {
		n = len(ranked)
	}
	return append([]dto.TeacherRank(nil), ranked[:n]...)
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(100 * float64(part) / float64(whole))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
