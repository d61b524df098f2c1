package dto

import "github.com/madrasah-labs/class-review-api/internal/models"

// StatusBucket counts videos in one lifecycle state.
type StatusBucket struct {
	Status     models.VideoStatus `json:"status"`
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
}

// ClassStatusDistribution is the per-class status breakdown.
type ClassStatusDistribution struct {
	ClassID   string         `json:"classId"`
	ClassName string         `json:"className"`
	Total     int            `json:"total"`
	Statuses  []StatusBucket `json:"statuses"`
}

// StatusDistributionResponse is report 1: counts per lifecycle state.
type StatusDistributionResponse struct {
	Total    int                       `json:"total"`
	Overall  []StatusBucket            `json:"overall"`
	ByClass  []ClassStatusDistribution `json:"byClass"`
	DateFrom *string                   `json:"dateFrom,omitempty"`
	DateTo   *string                   `json:"dateTo,omitempty"`
}

// IntervalStats summarises one lifecycle interval in days.
type IntervalStats struct {
	Interval string  `json:"interval"`
	Average  float64 `json:"avg"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
}

// TurnaroundTimeResponse is report 2: day-granularity cycle intervals.
type TurnaroundTimeResponse struct {
	VideoCount int             `json:"videoCount"`
	Intervals  []IntervalStats `json:"intervals"`
}

// TeacherPerformance aggregates one teacher's published reviews.
type TeacherPerformance struct {
	TeacherID         string             `json:"teacherId"`
	TeacherName       string             `json:"teacherName"`
	AverageRating     float64            `json:"averageRating"`
	CriterionAverages map[string]float64 `json:"criterionAverages"`
	PublishedCount    int                `json:"publishedCount"`
	CommentRate       float64            `json:"commentRate"`
}

// TeacherRank is a leaderboard entry.
type TeacherRank struct {
	TeacherID     string  `json:"teacherId"`
	TeacherName   string  `json:"teacherName"`
	AverageRating float64 `json:"averageRating"`
}

// TeacherPerformanceResponse is report 3.
type TeacherPerformanceResponse struct {
	Teachers []TeacherPerformance `json:"teachers"`
	Top      []TeacherRank        `json:"top"`
	Bottom   []TeacherRank        `json:"bottom"`
}

// ReviewerProductivity aggregates one reviewer's workload.
type ReviewerProductivity struct {
	ReviewerID            string  `json:"reviewerId"`
	ReviewerName          string  `json:"reviewerName"`
	TotalAssigned         int     `json:"totalAssigned"`
	Completed             int     `json:"completed"`
	Pending               int     `json:"pending"`
	AverageCompletionDays float64 `json:"averageCompletionDays"`
	ThisMonth             int     `json:"thisMonth"`
	LastMonth             int     `json:"lastMonth"`
}

// ReviewerProductivityResponse is report 4.
type ReviewerProductivityResponse struct {
	Reviewers []ReviewerProductivity `json:"reviewers"`
}

// GroupAnalytics is the shared per-subject / per-class aggregation shape.
type GroupAnalytics struct {
	ID            string                     `json:"id"`
	Name          string                     `json:"name"`
	Total         int                        `json:"total"`
	ByStatus      map[models.VideoStatus]int `json:"byStatus"`
	AverageRating float64                    `json:"averageRating"`
}

// SubjectAnalyticsResponse is report 5.
type SubjectAnalyticsResponse struct {
	Subjects []GroupAnalytics `json:"subjects"`
}

// ClassAnalyticsResponse is report 6.
type ClassAnalyticsResponse struct {
	Classes []GroupAnalytics `json:"classes"`
}

// CriterionCompliance is a per-criterion yes/no rate.
type CriterionCompliance struct {
	Criterion string  `json:"criterion"`
	YesCount  int     `json:"yesCount"`
	NoCount   int     `json:"noCount"`
	YesRate   float64 `json:"yesRate"`
}

// LanguageComplianceResponse is report 7: language rubric coverage.
type LanguageComplianceResponse struct {
	InScopeVideos      int                   `json:"inScopeVideos"`
	WithLanguageReview int                   `json:"withLanguageReview"`
	CoverageRate       float64               `json:"coverageRate"`
	Criteria           []CriterionCompliance `json:"criteria"`
}

// TrendBucket is one time bucket of lifecycle activity.
type TrendBucket struct {
	Period        string  `json:"period"`
	Uploaded      int     `json:"uploaded"`
	Reviewed      int     `json:"reviewed"`
	Published     int     `json:"published"`
	AverageRating float64 `json:"averageRating"`
}

// TimeTrendsResponse is report 8.
type TimeTrendsResponse struct {
	Granularity string        `json:"granularity"`
	Buckets     []TrendBucket `json:"buckets"`
}

// QueueStats describes a pending queue against its SLA threshold.
type QueueStats struct {
	Size          int     `json:"size"`
	AverageAgeDay float64 `json:"averageAgeDays"`
	ExceedingSLA  int     `json:"exceedingSla"`
	SLADays       int     `json:"slaDays"`
}

// OperationalEfficiencyResponse is report 9.
type OperationalEfficiencyResponse struct {
	ReviewQueue      QueueStats `json:"reviewQueue"`
	PublicationQueue QueueStats `json:"publicationQueue"`
}

// RatingBin counts rubric scores of one value.
type RatingBin struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// QualityMetricsResponse is report 10.
type QualityMetricsResponse struct {
	RatingHistogram    []RatingBin        `json:"ratingHistogram"`
	FreeTextFillRates  map[string]float64 `json:"freeTextFillRates"`
	TeacherCommentRate float64            `json:"teacherCommentRate"`
	DataCompleteness   float64            `json:"dataCompleteness"`
}

// DashboardSubScores breaks the health score into its four components.
type DashboardSubScores struct {
	ReviewQueue      float64 `json:"reviewQueue"`
	PublicationQueue float64 `json:"publicationQueue"`
	SLACompliance    float64 `json:"slaCompliance"`
	CompletionRate   float64 `json:"completionRate"`
}

// DashboardResponse is report 11: the composed management summary.
type DashboardResponse struct {
	TotalVideos           int                        `json:"totalVideos"`
	VideosByStatus        map[models.VideoStatus]int `json:"videosByStatus"`
	PublishedThisMonth    int                        `json:"publishedThisMonth"`
	AverageTeacherRating  float64                    `json:"averageTeacherRating"`
	ReviewCompletionRate  float64                    `json:"reviewCompletionRate"`
	AverageTurnaroundDays float64                    `json:"averageTurnaroundDays"`
	ActiveTeachers        int                        `json:"activeTeachers"`
	ActiveReviewers       int                        `json:"activeReviewers"`
	HealthScore           float64                    `json:"healthScore"`
	SubScores             DashboardSubScores         `json:"subScores"`
}
