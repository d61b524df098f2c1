package dto

import (
	"time"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

// EntityRef is the dual-shaped reference projection: the id is always
// present, name and email only when the caller requested expansion and the
// join resolved.
type EntityRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// VideoResponse is the API shape of a video record.
type VideoResponse struct {
	ID         string             `json:"id"`
	Teacher    EntityRef          `json:"teacher"`
	Class      EntityRef          `json:"class"`
	Section    EntityRef          `json:"section"`
	Subject    SubjectRef         `json:"subject"`
	Date       time.Time          `json:"date"`
	YoutubeURL string             `json:"youtubeUrl"`
	UploadedBy EntityRef          `json:"uploadedBy"`
	Status     models.VideoStatus `json:"status"`

	AssignedReviewer *EntityRef `json:"assignedReviewer,omitempty"`
	AssignedAt       *time.Time `json:"assignedAt,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`

	Review         *models.Review         `json:"review,omitempty"`
	LanguageReview *models.LanguageReview `json:"languageReview,omitempty"`
	TeacherComment *models.TeacherComment `json:"teacherComment,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubjectRef extends EntityRef with the rubric category.
type SubjectRef struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name,omitempty"`
	Category models.SubjectCategory `json:"category,omitempty"`
}

// NewVideoResponse projects a video into its API shape. When expand is false
// the reference fields carry ids only.
func NewVideoResponse(v *models.Video, expand bool) VideoResponse {
	resp := VideoResponse{
		ID:             v.ID,
		Teacher:        EntityRef{ID: v.TeacherID},
		Class:          EntityRef{ID: v.ClassID},
		Section:        EntityRef{ID: v.SectionID},
		Subject:        SubjectRef{ID: v.SubjectID},
		Date:           v.Date,
		YoutubeURL:     v.YoutubeURL,
		UploadedBy:     EntityRef{ID: v.UploadedBy},
		Status:         v.Status,
		AssignedAt:     v.AssignedAt,
		ReviewedAt:     v.ReviewedAt,
		PublishedAt:    v.PublishedAt,
		Review:         v.Review,
		LanguageReview: v.LanguageReview,
		TeacherComment: v.TeacherComment,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
	if v.AssignedReviewerID != nil {
		resp.AssignedReviewer = &EntityRef{ID: *v.AssignedReviewerID}
	}
	if expand {
		resp.Teacher.Name = v.TeacherName
		resp.Teacher.Email = v.TeacherEmail
		resp.Class.Name = v.ClassName
		resp.Section.Name = v.SectionName
		resp.Subject.Name = v.SubjectName
		resp.Subject.Category = v.SubjectCategory
		resp.UploadedBy.Name = v.UploadedByName
		if resp.AssignedReviewer != nil {
			resp.AssignedReviewer.Name = v.ReviewerName
			resp.AssignedReviewer.Email = v.ReviewerEmail
		}
	}
	return resp
}

// NewVideoResponses projects a page of videos.
func NewVideoResponses(videos []models.Video, expand bool) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		out = append(out, NewVideoResponse(&videos[i], expand))
	}
	return out
}

// CreateVideoRequest is the admin upload payload.
type CreateVideoRequest struct {
	TeacherID  string    `json:"teacherId" validate:"required"`
	ClassID    string    `json:"classId" validate:"required"`
	SectionID  string    `json:"sectionId" validate:"required"`
	SubjectID  string    `json:"subjectId" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	YoutubeURL string    `json:"youtubeUrl" validate:"required,url"`
}

// AssignReviewerRequest names the reviewer for a video.
type AssignReviewerRequest struct {
	ReviewerID string `json:"reviewerId" validate:"required"`
}

// SubmitReviewRequest carries either rubric variant; exactly one must be set
// and it must match the subject category of the video.
type SubmitReviewRequest struct {
	Review         *models.Review         `json:"review,omitempty"`
	LanguageReview *models.LanguageReview `json:"languageReview,omitempty"`
}

// TeacherCommentRequest is the one-shot teacher response payload.
type TeacherCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}
