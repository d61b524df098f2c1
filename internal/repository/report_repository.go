package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

// ReportRepository provides the read-only scans backing the reporting
// aggregations. Every report derives from a single filtered projection of
// the videos table joined against its reference entities.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type reportVideoRow struct {
	ID                string     `db:"id"`
	Status            string     `db:"status"`
	ClassID           string     `db:"class_id"`
	ClassName         string     `db:"class_name"`
	SubjectID         string     `db:"subject_id"`
	SubjectName       string     `db:"subject_name"`
	SubjectCategory   string     `db:"subject_category"`
	TeacherID         string     `db:"teacher_id"`
	TeacherName       string     `db:"teacher_name"`
	ReviewerID        *string    `db:"assigned_reviewer_id"`
	ReviewerName      *string    `db:"reviewer_name"`
	Date              time.Time  `db:"date"`
	CreatedAt         time.Time  `db:"created_at"`
	AssignedAt        *time.Time `db:"assigned_at"`
	ReviewedAt        *time.Time `db:"reviewed_at"`
	PublishedAt       *time.Time `db:"published_at"`
	Review            []byte     `db:"review"`
	LanguageReview    []byte     `db:"language_review"`
	HasTeacherComment bool       `db:"has_teacher_comment"`
}

// Scan returns the report rows for videos inside the optional date range.
func (r *ReportRepository) Scan(ctx context.Context, dr models.DateRange) ([]models.ReportVideo, error) {
	query := `SELECT v.id, v.status, v.class_id, c.name AS class_name,
		v.subject_id, su.name AS subject_name, su.category AS subject_category,
		v.teacher_id, t.name AS teacher_name,
		v.assigned_reviewer_id, rv.name AS reviewer_name,
		v.date, v.created_at, v.assigned_at, v.reviewed_at, v.published_at,
		v.review, v.language_review,
		(v.teacher_comment IS NOT NULL) AS has_teacher_comment
		FROM videos v
		JOIN classes c ON c.id = v.class_id
		JOIN subjects su ON su.id = v.subject_id
		JOIN users t ON t.id = v.teacher_id
		LEFT JOIN users rv ON rv.id = v.assigned_reviewer_id
		WHERE 1=1`
	var args []interface{}

	if dr.From != nil {
		query += fmt.Sprintf(" AND v.date >= $%d", len(args)+1)
		args = append(args, *dr.From)
	}
	if dr.To != nil {
		query += fmt.Sprintf(" AND v.date <= $%d", len(args)+1)
		args = append(args, *dr.To)
	}
	query += " ORDER BY v.date ASC"

	var rows []reportVideoRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scan report videos: %w", err)
	}

	videos := make([]models.ReportVideo, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		video := models.ReportVideo{
			ID:                row.ID,
			Status:            models.VideoStatus(row.Status),
			ClassID:           row.ClassID,
			ClassName:         row.ClassName,
			SubjectID:         row.SubjectID,
			SubjectName:       row.SubjectName,
			SubjectCategory:   models.SubjectCategory(row.SubjectCategory),
			TeacherID:         row.TeacherID,
			TeacherName:       row.TeacherName,
			ReviewerID:        row.ReviewerID,
			ReviewerName:      row.ReviewerName,
			Date:              row.Date,
			CreatedAt:         row.CreatedAt,
			AssignedAt:        row.AssignedAt,
			ReviewedAt:        row.ReviewedAt,
			PublishedAt:       row.PublishedAt,
			HasTeacherComment: row.HasTeacherComment,
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
		videos = append(videos, video)
	}
	return videos, nil
}

// CountActiveByRole counts active users carrying the given role, for the
// dashboard headcounts.
func (r *ReportRepository) CountActiveByRole(ctx context.Context, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE $1 = ANY(roles) AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, string(role)); err != nil {
		return 0, fmt.Errorf("count active users by role: %w", err)
	}
	return count, nil
}

// CountDistinctReviewers counts users that currently hold at least one
// review assignment.
func (r *ReportRepository) CountDistinctReviewers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT assigned_reviewer_id) FROM videos WHERE assigned_reviewer_id IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count distinct reviewers: %w", err)
	}
	return count, nil
}
