package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

// reportsCachePattern matches every cached report; any lifecycle write
// invalidates the lot.
const reportsCachePattern = "reports:*"

type videoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	FindByID(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	AssignReviewer(ctx context.Context, id, reviewerID string, now time.Time) (bool, error)
	SetReview(ctx context.Context, id, reviewerID string, payload []byte, language bool, now time.Time) (bool, error)
	Publish(ctx context.Context, id string, now time.Time) (bool, error)
	SetTeacherComment(ctx context.Context, id, teacherID string, payload []byte, now time.Time) (bool, error)
}

type videoUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// VideoService drives the video review lifecycle. Transitions are strictly
// forward: unassigned -> assigned -> reviewed -> published.
type VideoService struct {
	repo      videoRepository
	users     videoUserRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVideoService constructs a VideoService instance.
func NewVideoService(repo videoRepository, users videoUserRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VideoService{repo: repo, users: users, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Create records a newly uploaded video in the unassigned state. The teacher
// reference must point at an active account carrying the TEACHER role;
// class, section and subject are checked by their foreign keys.
func (s *VideoService) Create(ctx context.Context, req dto.CreateVideoRequest, uploadedBy string) (*dto.VideoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video payload")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.HasRole(models.RoleTeacher) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "referenced user is not a teacher")
	}

	video := &models.Video{
		TeacherID:  req.TeacherID,
		ClassID:    req.ClassID,
		SectionID:  req.SectionID,
		SubjectID:  req.SubjectID,
		Date:       req.Date,
		YoutubeURL: req.YoutubeURL,
		UploadedBy: uploadedBy,
	}
	if err := s.repo.Create(ctx, video); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "referenced class, section or subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}

	s.invalidateReports(ctx)

	stored, err := s.repo.FindByID(ctx, video.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload video")
	}
	resp := dto.NewVideoResponse(stored, true)
	return &resp, nil
}

// Get returns a single video with its references hydrated.
func (s *VideoService) Get(ctx context.Context, id string, expand bool) (*dto.VideoResponse, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	resp := dto.NewVideoResponse(video, expand)
	return &resp, nil
}

// List returns videos matching the filter with pagination metadata.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter, expand bool) ([]dto.VideoResponse, *models.Pagination, error) {
	videos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	return dto.NewVideoResponses(videos, expand), models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListAssignedTo returns the open review queue for a reviewer.
func (s *VideoService) ListAssignedTo(ctx context.Context, reviewerID string, filter models.VideoFilter, expand bool) ([]dto.VideoResponse, *models.Pagination, error) {
	status := models.StatusAssigned
	filter.ReviewerID = reviewerID
	filter.Status = &status
	return s.List(ctx, filter, expand)
}

// ListTeacherFeedback returns a teacher's published videos.
func (s *VideoService) ListTeacherFeedback(ctx context.Context, teacherID string, filter models.VideoFilter, expand bool) ([]dto.VideoResponse, *models.Pagination, error) {
	status := models.StatusPublished
	filter.TeacherID = teacherID
	filter.Status = &status
	return s.List(ctx, filter, expand)
}

// AssignReviewer assigns (or reassigns) a reviewer. Allowed while no review
// has been submitted; a reviewed or published video rejects the call.
func (s *VideoService) AssignReviewer(ctx context.Context, videoID string, req dto.AssignReviewerRequest) (*dto.VideoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	reviewer, err := s.users.FindByID(ctx, req.ReviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "reviewer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}
	if !reviewer.Active || !(reviewer.HasRole(models.RoleAdmin) || reviewer.HasRole(models.RoleSeniorAdmin)) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "reviewer must be an active admin or senior admin")
	}

	ok, err := s.repo.AssignReviewer(ctx, videoID, req.ReviewerID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign reviewer")
	}
	if !ok {
		return nil, s.classifyGuardMiss(ctx, videoID, "video can no longer be assigned in its current status")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition("assigned")
	}
	s.invalidateReports(ctx)

	return s.Get(ctx, videoID, true)
}

// SubmitReview writes the rubric payload for an assigned video and moves it
// to reviewed. Exactly one rubric variant must be supplied and it must match
// the subject's category; only the assigned reviewer may submit.
func (s *VideoService) SubmitReview(ctx context.Context, videoID, reviewerID string, req dto.SubmitReviewRequest) (*dto.VideoResponse, error) {
	if (req.Review == nil) == (req.LanguageReview == nil) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "exactly one of review or languageReview must be provided")
	}

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}

	if video.Status != models.StatusAssigned {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "video is not awaiting review")
	}
	if video.AssignedReviewerID == nil || *video.AssignedReviewerID != reviewerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned reviewer may submit this review")
	}

	language := req.LanguageReview != nil
	if language != (video.SubjectCategory == models.CategoryLanguage) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "rubric variant does not match the subject category")
	}

	reviewer, err := s.users.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}

	now := s.now().UTC()
	var payload []byte
	if language {
		lr := *req.LanguageReview
		lr.ReviewerID = reviewerID
		lr.ReviewerName = reviewer.Name
		lr.ReviewedAt = now
		payload, err = json.Marshal(&lr)
	} else {
		if err := s.validator.Struct(req.Review); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
		}
		rv := *req.Review
		rv.ReviewerID = reviewerID
		rv.ReviewerName = reviewer.Name
		rv.ReviewedAt = now
		payload, err = json.Marshal(&rv)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode review payload")
	}

	ok, err := s.repo.SetReview(ctx, videoID, reviewerID, payload, language, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store review")
	}
	if !ok {
		// Lost a race between the read above and the guarded write.
		return nil, s.classifyGuardMiss(ctx, videoID, "video is not awaiting review")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition("reviewed")
	}
	s.invalidateReports(ctx)

	return s.Get(ctx, videoID, true)
}

// Publish releases a reviewed video to its teacher.
func (s *VideoService) Publish(ctx context.Context, videoID string) (*dto.VideoResponse, error) {
	ok, err := s.repo.Publish(ctx, videoID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish video")
	}
	if !ok {
		return nil, s.classifyGuardMiss(ctx, videoID, "only reviewed videos can be published")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition("published")
	}
	s.invalidateReports(ctx)

	return s.Get(ctx, videoID, true)
}

// AddTeacherComment writes the one-shot teacher response on a published
// video. Only the video's teacher may respond and only once.
func (s *VideoService) AddTeacherComment(ctx context.Context, videoID, teacherID string, req dto.TeacherCommentRequest) (*dto.VideoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}

	if video.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the video's teacher may respond")
	}
	if video.Status != models.StatusPublished {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "feedback is not published yet")
	}
	if video.TeacherComment != nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "a response has already been recorded")
	}

	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	now := s.now().UTC()
	comment := models.TeacherComment{
		CommenterID:   teacherID,
		CommenterName: teacher.Name,
		Comment:       req.Comment,
		CommentedAt:   now,
	}
	payload, err := json.Marshal(&comment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode comment payload")
	}

	ok, err := s.repo.SetTeacherComment(ctx, videoID, teacherID, payload, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store comment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "a response has already been recorded")
	}

	s.invalidateReports(ctx)

	return s.Get(ctx, videoID, true)
}

// classifyGuardMiss re-reads the row after a guarded update matched nothing,
// separating a missing video from a state precondition failure.
func (s *VideoService) classifyGuardMiss(ctx context.Context, videoID, message string) error {
	if _, err := s.repo.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	return appErrors.Clone(appErrors.ErrBadRequest, message)
}

func (s *VideoService) invalidateReports(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, reportsCachePattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}
