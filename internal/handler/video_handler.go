package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	"github.com/madrasah-labs/class-review-api/internal/service"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
	"github.com/madrasah-labs/class-review-api/pkg/response"
)

// VideoHandler exposes the video lifecycle endpoints.
type VideoHandler struct {
	videos *service.VideoService
}

// NewVideoHandler constructs VideoHandler.
func NewVideoHandler(videos *service.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

func videoFilter(c *gin.Context) models.VideoFilter {
	var filter models.VideoFilter
	if status := c.Query("status"); status != "" && models.ValidStatus(status) {
		s := models.VideoStatus(status)
		filter.Status = &s
	}
	filter.ClassID = c.Query("classId")
	filter.SectionID = c.Query("sectionId")
	filter.SubjectID = c.Query("subjectId")
	filter.TeacherID = c.Query("teacherId")
	filter.ReviewerID = c.Query("reviewerId")
	if from, err := time.Parse("2006-01-02", c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.Limit = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

func expandFlag(c *gin.Context) bool {
	return c.DefaultQuery("expand", "true") != "false"
}

// Create godoc
// @Summary Upload a video record
// @Description Register a recorded lesson in the unassigned state
// @Tags Videos
// @Accept json
// @Produce json
// @Param payload body dto.CreateVideoRequest true "Video payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/videos [post]
func (h *VideoHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	video, err := h.videos.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "video created", video)
}

// List godoc
// @Summary List videos
// @Tags Videos
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param classId query string false "Filter by class"
// @Param sectionId query string false "Filter by section"
// @Param subjectId query string false "Filter by subject"
// @Param teacherId query string false "Filter by teacher"
// @Param reviewerId query string false "Filter by assigned reviewer"
// @Param dateFrom query string false "Lesson date lower bound (YYYY-MM-DD)"
// @Param dateTo query string false "Lesson date upper bound (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	videos, pagination, err := h.videos.List(c.Request.Context(), videoFilter(c), expandFlag(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "videos listed", videos, pagination)
}

// Get godoc
// @Summary Get video detail
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.videos.Get(c.Request.Context(), c.Param("id"), expandFlag(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "video detail", video)
}

// Assign godoc
// @Summary Assign a reviewer
// @Description Assign or reassign a reviewer while no review exists
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body dto.AssignReviewerRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/videos/{id}/assign [post]
func (h *VideoHandler) Assign(c *gin.Context) {
	var req dto.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	video, err := h.videos.AssignReviewer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "reviewer assigned", video)
}

// SubmitReview godoc
// @Summary Submit a review
// @Description Submit the rubric matching the subject category
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body dto.SubmitReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/videos/{id}/review [post]
func (h *VideoHandler) SubmitReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	video, err := h.videos.SubmitReview(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "review submitted", video)
}

// Publish godoc
// @Summary Publish reviewed feedback
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/videos/{id}/publish [post]
func (h *VideoHandler) Publish(c *gin.Context) {
	video, err := h.videos.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "video published", video)
}

// TeacherComment godoc
// @Summary Respond to published feedback
// @Description One-shot teacher response on a published video
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body dto.TeacherCommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/videos/{id}/teacher-comment [post]
func (h *VideoHandler) TeacherComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.TeacherCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	video, err := h.videos.AddTeacherComment(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "comment recorded", video)
}

// MyAssigned godoc
// @Summary List my review queue
// @Tags Videos
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/videos/my-assigned [get]
func (h *VideoHandler) MyAssigned(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	videos, pagination, err := h.videos.ListAssignedTo(c.Request.Context(), claims.UserID, videoFilter(c), expandFlag(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "assigned videos listed", videos, pagination)
}

// MyFeedback godoc
// @Summary List my published feedback
// @Tags Videos
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/videos/me/feedback [get]
func (h *VideoHandler) MyFeedback(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	videos, pagination, err := h.videos.ListTeacherFeedback(c.Request.Context(), claims.UserID, videoFilter(c), expandFlag(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "published feedback listed", videos, pagination)
}
