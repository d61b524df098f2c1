package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

const videoSelect = `SELECT v.id, v.teacher_id, v.class_id, v.section_id, v.subject_id, v.date, v.youtube_url,
	v.uploaded_by, v.status, v.assigned_reviewer_id, v.assigned_at, v.reviewed_at, v.published_at,
	v.review, v.language_review, v.teacher_comment, v.created_at, v.updated_at,
	t.name AS teacher_name, t.email AS teacher_email,
	c.name AS class_name, se.name AS section_name,
	su.name AS subject_name, su.category AS subject_category,
	rv.name AS reviewer_name, rv.email AS reviewer_email,
	ub.name AS uploaded_by_name
	FROM videos v
	JOIN users t ON t.id = v.teacher_id
	JOIN classes c ON c.id = v.class_id
	JOIN sections se ON se.id = v.section_id
	JOIN subjects su ON su.id = v.subject_id
	JOIN users ub ON ub.id = v.uploaded_by
	LEFT JOIN users rv ON rv.id = v.assigned_reviewer_id`

// videoRow mirrors the joined videos projection. Embedded payloads arrive as
// raw JSONB and are decoded in toModel.
type videoRow struct {
	ID                 string     `db:"id"`
	TeacherID          string     `db:"teacher_id"`
	ClassID            string     `db:"class_id"`
	SectionID          string     `db:"section_id"`
	SubjectID          string     `db:"subject_id"`
	Date               time.Time  `db:"date"`
	YoutubeURL         string     `db:"youtube_url"`
	UploadedBy         string     `db:"uploaded_by"`
	Status             string     `db:"status"`
	AssignedReviewerID *string    `db:"assigned_reviewer_id"`
	AssignedAt         *time.Time `db:"assigned_at"`
	ReviewedAt         *time.Time `db:"reviewed_at"`
	PublishedAt        *time.Time `db:"published_at"`
	Review             []byte     `db:"review"`
	LanguageReview     []byte     `db:"language_review"`
	TeacherComment     []byte     `db:"teacher_comment"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`

	TeacherName     string  `db:"teacher_name"`
	TeacherEmail    string  `db:"teacher_email"`
	ClassName       string  `db:"class_name"`
	SectionName     string  `db:"section_name"`
	SubjectName     string  `db:"subject_name"`
	SubjectCategory string  `db:"subject_category"`
	ReviewerName    *string `db:"reviewer_name"`
	ReviewerEmail   *string `db:"reviewer_email"`
	UploadedByName  string  `db:"uploaded_by_name"`
}

func (row *videoRow) toModel() (*models.Video, error) {
	video := &models.Video{
		ID:                 row.ID,
		TeacherID:          row.TeacherID,
		ClassID:            row.ClassID,
		SectionID:          row.SectionID,
		SubjectID:          row.SubjectID,
		Date:               row.Date,
		YoutubeURL:         row.YoutubeURL,
		UploadedBy:         row.UploadedBy,
		Status:             models.VideoStatus(row.Status),
		AssignedReviewerID: row.AssignedReviewerID,
		AssignedAt:         row.AssignedAt,
		ReviewedAt:         row.ReviewedAt,
		PublishedAt:        row.PublishedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		TeacherName:        row.TeacherName,
		TeacherEmail:       row.TeacherEmail,
		ClassName:          row.ClassName,
		SectionName:        row.SectionName,
		SubjectName:        row.SubjectName,
		SubjectCategory:    models.SubjectCategory(row.SubjectCategory),
		UploadedByName:     row.UploadedByName,
	}
	if row.ReviewerName != nil {
		video.ReviewerName = *row.ReviewerName
	}
	if row.ReviewerEmail != nil {
		video.ReviewerEmail = *row.ReviewerEmail
	}
	if len(row.Review) > 0 {
		video.Review = &models.Review{}
		if err := json.Unmarshal(row.Review, video.Review); err != nil {
			return nil, fmt.Errorf("decode review payload: %w", err)
		}
	}
	if len(row.LanguageReview) > 0 {
		video.LanguageReview = &models.LanguageReview{}
		if err := json.Unmarshal(row.LanguageReview, video.LanguageReview); err != nil {
			return nil, fmt.Errorf("decode language review payload: %w", err)
		}
	}
	if len(row.TeacherComment) > 0 {
		video.TeacherComment = &models.TeacherComment{}
		if err := json.Unmarshal(row.TeacherComment, video.TeacherComment); err != nil {
			return nil, fmt.Errorf("decode teacher comment payload: %w", err)
		}
	}
	return video, nil
}

// VideoRepository provides database access for video records.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new instance of VideoRepository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video record in the unassigned state. Foreign key
// violations from the referenced entities surface unwrapped for the service
// layer to classify.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now
	video.Status = models.StatusUnassigned

	const query = `INSERT INTO videos (id, teacher_id, class_id, section_id, subject_id, date, youtube_url, uploaded_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		video.ID, video.TeacherID, video.ClassID, video.SectionID, video.SubjectID,
		video.Date, video.YoutubeURL, video.UploadedBy, string(video.Status),
		video.CreatedAt, video.UpdatedAt,
	); err != nil {
		return err
	}
	return nil
}

// FindByID returns a video with its references hydrated.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	query := videoSelect + ` WHERE v.id = $1 LIMIT 1`
	var row videoRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	return row.toModel()
}

// List returns videos matching the filter with a total count.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	baseWhere := ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, len(args)+1))
		args = append(args, value)
	}

	if filter.Status != nil {
		addCondition("v.status = $%d", string(*filter.Status))
	}
	if filter.ClassID != "" {
		addCondition("v.class_id = $%d", filter.ClassID)
	}
	if filter.SectionID != "" {
		addCondition("v.section_id = $%d", filter.SectionID)
	}
	if filter.SubjectID != "" {
		addCondition("v.subject_id = $%d", filter.SubjectID)
	}
	if filter.TeacherID != "" {
		addCondition("v.teacher_id = $%d", filter.TeacherID)
	}
	if filter.ReviewerID != "" {
		addCondition("v.assigned_reviewer_id = $%d", filter.ReviewerID)
	}
	if filter.DateFrom != nil {
		addCondition("v.date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addCondition("v.date <= $%d", *filter.DateTo)
	}

	if len(conditions) > 0 {
		baseWhere += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"created_at": "v.created_at",
		"date":       "v.date",
		"status":     "v.status",
		"updated_at": "v.updated_at",
	}
	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		sortColumn = "v.created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", videoSelect, baseWhere, sortColumn, sortOrder, limit, offset)

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM videos v%s", baseWhere)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	videos := make([]models.Video, 0, len(rows))
	for i := range rows {
		video, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, *video)
	}
	return videos, total, nil
}

// AssignReviewer moves a video into the assigned state. The guard allows
// reassignment while no review has been submitted. Returns false when the
// guard did not match.
func (r *VideoRepository) AssignReviewer(ctx context.Context, id, reviewerID string, now time.Time) (bool, error) {
	const query = `UPDATE videos SET assigned_reviewer_id = $2, status = $3, assigned_at = $4, updated_at = $4
		WHERE id = $1 AND status IN ($5, $6)`
	res, err := r.db.ExecContext(ctx, query, id, reviewerID, string(models.StatusAssigned), now,
		string(models.StatusUnassigned), string(models.StatusAssigned))
	if err != nil {
		return false, fmt.Errorf("assign reviewer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign reviewer: %w", err)
	}
	return affected > 0, nil
}

// SetReview writes the embedded rubric payload and moves the video to
// reviewed. The guard enforces the assigned state and reviewer ownership in
// the same atomic statement.
func (r *VideoRepository) SetReview(ctx context.Context, id, reviewerID string, payload []byte, language bool, now time.Time) (bool, error) {
	column := "review"
	if language {
		column = "language_review"
	}
	query := fmt.Sprintf(`UPDATE videos SET %s = $2, status = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5 AND assigned_reviewer_id = $6`, column)
	res, err := r.db.ExecContext(ctx, query, id, payload, string(models.StatusReviewed), now,
		string(models.StatusAssigned), reviewerID)
	if err != nil {
		return false, fmt.Errorf("set %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set %s: %w", column, err)
	}
	return affected > 0, nil
}

// Publish moves a reviewed video to published.
func (r *VideoRepository) Publish(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE videos SET status = $2, published_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, string(models.StatusPublished), now, string(models.StatusReviewed))
	if err != nil {
		return false, fmt.Errorf("publish video: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("publish video: %w", err)
	}
	return affected > 0, nil
}

// SetTeacherComment writes the one-shot teacher comment. The guard enforces
// the published state, teacher ownership and first-write-wins atomically.
func (r *VideoRepository) SetTeacherComment(ctx context.Context, id, teacherID string, payload []byte, now time.Time) (bool, error) {
	const query = `UPDATE videos SET teacher_comment = $2, updated_at = $3
		WHERE id = $1 AND status = $4 AND teacher_id = $5 AND teacher_comment IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, payload, now, string(models.StatusPublished), teacherID)
	if err != nil {
		return false, fmt.Errorf("set teacher comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set teacher comment: %w", err)
	}
	return affected > 0, nil
}
