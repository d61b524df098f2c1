package models

import "time"

// VideoStatus tracks a video through its review lifecycle. Transitions are
// strictly forward: unassigned -> assigned -> reviewed -> published.
type VideoStatus string

const (
	StatusUnassigned VideoStatus = "unassigned"
	StatusAssigned   VideoStatus = "assigned"
	StatusReviewed   VideoStatus = "reviewed"
	StatusPublished  VideoStatus = "published"
)

// AllStatuses lists the lifecycle states in transition order.
func AllStatuses() []VideoStatus {
	return []VideoStatus{StatusUnassigned, StatusAssigned, StatusReviewed, StatusPublished}
}

// ValidStatus reports whether the raw value names a known status.
func ValidStatus(raw string) bool {
	switch VideoStatus(raw) {
	case StatusUnassigned, StatusAssigned, StatusReviewed, StatusPublished:
		return true
	}
	return false
}

// RatingCriterion is a single 1-5 scored rubric item.
type RatingCriterion struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// YesNoCriterion is a single pass/fail rubric item used by the language rubric.
type YesNoCriterion struct {
	AnsweredYes bool   `json:"answeredYes"`
	Comment     string `json:"comment"`
}

// Review is the general rubric payload embedded on a video.
type Review struct {
	SubjectKnowledge    RatingCriterion `json:"subjectKnowledge" validate:"required"`
	LessonPlanning      RatingCriterion `json:"lessonPlanning" validate:"required"`
	TeachingMethodology RatingCriterion `json:"teachingMethodology" validate:"required"`
	StudentEngagement   RatingCriterion `json:"studentEngagement" validate:"required"`
	ClassroomManagement RatingCriterion `json:"classroomManagement" validate:"required"`
	Communication       RatingCriterion `json:"communication" validate:"required"`
	TimeManagement      RatingCriterion `json:"timeManagement" validate:"required"`
	ResourceUse         RatingCriterion `json:"resourceUse" validate:"required"`

	Overall      string `json:"overall"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Suggestions  string `json:"suggestions"`

	ReviewerID   string    `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	ReviewedAt   time.Time `json:"reviewedAt"`
}

// NamedRating pairs a rubric criterion name with its score.
type NamedRating struct {
	Name   string
	Rating int
}

// Ratings returns the eight criteria in rubric order.
func (r *Review) Ratings() []NamedRating {
	return []NamedRating{
		{"subjectKnowledge", r.SubjectKnowledge.Rating},
		{"lessonPlanning", r.LessonPlanning.Rating},
		{"teachingMethodology", r.TeachingMethodology.Rating},
		{"studentEngagement", r.StudentEngagement.Rating},
		{"classroomManagement", r.ClassroomManagement.Rating},
		{"communication", r.Communication.Rating},
		{"timeManagement", r.TimeManagement.Rating},
		{"resourceUse", r.ResourceUse.Rating},
	}
}

// AverageRating returns the mean of the eight criterion scores.
func (r *Review) AverageRating() float64 {
	ratings := r.Ratings()
	sum := 0
	for _, item := range ratings {
		sum += item.Rating
	}
	return float64(sum) / float64(len(ratings))
}

// LanguageReview is the alternate rubric payload used for language subjects.
type LanguageReview struct {
	CorrectRecitation    YesNoCriterion `json:"correctRecitation"`
	TajweedApplied       YesNoCriterion `json:"tajweedApplied"`
	ProperMakharij       YesNoCriterion `json:"properMakharij"`
	FluencyMaintained    YesNoCriterion `json:"fluencyMaintained"`
	ErrorsCorrected      YesNoCriterion `json:"errorsCorrected"`
	StudentParticipation YesNoCriterion `json:"studentParticipation"`

	Overall      string `json:"overall"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Suggestions  string `json:"suggestions"`

	ReviewerID   string    `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	ReviewedAt   time.Time `json:"reviewedAt"`
}

// NamedAnswer pairs a language rubric criterion name with its answer.
type NamedAnswer struct {
	Name        string
	AnsweredYes bool
}

// Answers returns the six criteria in rubric order.
func (r *LanguageReview) Answers() []NamedAnswer {
	return []NamedAnswer{
		{"correctRecitation", r.CorrectRecitation.AnsweredYes},
		{"tajweedApplied", r.TajweedApplied.AnsweredYes},
		{"properMakharij", r.ProperMakharij.AnsweredYes},
		{"fluencyMaintained", r.FluencyMaintained.AnsweredYes},
		{"errorsCorrected", r.ErrorsCorrected.AnsweredYes},
		{"studentParticipation", r.StudentParticipation.AnsweredYes},
	}
}

// TeacherComment is the one-shot teacher response on a published video.
type TeacherComment struct {
	CommenterID   string    `json:"commenterId"`
	CommenterName string    `json:"commenterName"`
	Comment       string    `json:"comment"`
	CommentedAt   time.Time `json:"commentedAt"`
}

// Video is the central entity tracking a classroom recording through its
// review lifecycle. Reference names are hydrated by repository joins and may
// be empty on write paths.
type Video struct {
	ID         string      `json:"id"`
	TeacherID  string      `json:"teacher_id"`
	ClassID    string      `json:"class_id"`
	SectionID  string      `json:"section_id"`
	SubjectID  string      `json:"subject_id"`
	Date       time.Time   `json:"date"`
	YoutubeURL string      `json:"youtube_url"`
	UploadedBy string      `json:"uploaded_by"`
	Status     VideoStatus `json:"status"`

	AssignedReviewerID *string    `json:"assigned_reviewer_id,omitempty"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`

	Review         *Review         `json:"review,omitempty"`
	LanguageReview *LanguageReview `json:"language_review,omitempty"`
	TeacherComment *TeacherComment `json:"teacher_comment,omitempty"`

	TeacherName     string          `json:"-"`
	TeacherEmail    string          `json:"-"`
	ClassName       string          `json:"-"`
	SectionName     string          `json:"-"`
	SubjectName     string          `json:"-"`
	SubjectCategory SubjectCategory `json:"-"`
	ReviewerName    string          `json:"-"`
	ReviewerEmail   string          `json:"-"`
	UploadedByName  string          `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VideoFilter captures the supported list criteria for videos.
type VideoFilter struct {
	Status     *VideoStatus
	ClassID    string
	SectionID  string
	SubjectID  string
	TeacherID  string
	ReviewerID string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// DateRange bounds report aggregations by the recorded lesson date.
type DateRange struct {
	From *time.Time
	To   *time.Time
}
