package models

import "time"

// ReportVideo is the flat per-video row the reporting aggregations consume.
// Every report is computed from a single filtered scan of these rows.
type ReportVideo struct {
	ID                string
	Status            VideoStatus
	ClassID           string
	ClassName         string
	SubjectID         string
	SubjectName       string
	SubjectCategory   SubjectCategory
	TeacherID         string
	TeacherName       string
	ReviewerID        *string
	ReviewerName      *string
	Date              time.Time
	CreatedAt         time.Time
	AssignedAt        *time.Time
	ReviewedAt        *time.Time
	PublishedAt       *time.Time
	Review            *Review
	LanguageReview    *LanguageReview
	HasTeacherComment bool
}

// AverageRating returns the general-rubric average for the row, or 0 when no
// general review is present.
func (v *ReportVideo) AverageRating() float64 {
	if v.Review == nil {
		return 0
	}
	return v.Review.AverageRating()
}
