package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

var videoCols = []string{
	"id", "teacher_id", "class_id", "section_id", "subject_id", "date", "youtube_url",
	"uploaded_by", "status", "assigned_reviewer_id", "assigned_at", "reviewed_at", "published_at",
	"review", "language_review", "teacher_comment", "created_at", "updated_at",
	"teacher_name", "teacher_email", "class_name", "section_name",
	"subject_name", "subject_category", "reviewer_name", "reviewer_email", "uploaded_by_name",
}

func TestVideoCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec("INSERT INTO videos").WillReturnResult(sqlmock.NewResult(0, 1))

	video := &models.Video{
		TeacherID:  "t1",
		ClassID:    "c1",
		SectionID:  "se1",
		SubjectID:  "su1",
		Date:       time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		YoutubeURL: "https://youtu.be/abc123",
		UploadedBy: "a1",
	}
	err := repo.Create(context.Background(), video)
	require.NoError(t, err)
	assert.NotEmpty(t, video.ID)
	assert.Equal(t, models.StatusUnassigned, video.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoFindByIDDecodesPayloads(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now()
	reviewerID := "r1"
	reviewerName := "Sister Khadija"
	reviewerEmail := "khadija@example.com"
	review := []byte(`{"subjectKnowledge":{"rating":4},"overall":"good","reviewerId":"r1","reviewerName":"Sister Khadija"}`)
	comment := []byte(`{"commenterId":"t1","commenterName":"Ustadh Bilal","comment":"thank you"}`)

	rows := sqlmock.NewRows(videoCols).AddRow(
		"v1", "t1", "c1", "se1", "su1", now, "https://youtu.be/abc123",
		"a1", "published", &reviewerID, &now, &now, &now,
		review, nil, comment, now, now,
		"Ustadh Bilal", "bilal@example.com", "Class 5", "Section A",
		"Mathematics", "GENERAL", &reviewerName, &reviewerEmail, "Admin One",
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1 LIMIT 1")).
		WithArgs("v1").
		WillReturnRows(rows)

	video, err := repo.FindByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, video.Status)
	assert.Equal(t, models.CategoryGeneral, video.SubjectCategory)
	assert.Equal(t, "Sister Khadija", video.ReviewerName)
	require.NotNil(t, video.Review)
	assert.Equal(t, 4, video.Review.SubjectKnowledge.Rating)
	assert.Nil(t, video.LanguageReview)
	require.NotNil(t, video.TeacherComment)
	assert.Equal(t, "thank you", video.TeacherComment.Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1 LIMIT 1")).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoListStatusFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(videoCols).AddRow(
		"v1", "t1", "c1", "se1", "su1", now, "https://youtu.be/abc123",
		"a1", "assigned", nil, nil, nil, nil,
		nil, nil, nil, now, now,
		"Ustadh Bilal", "bilal@example.com", "Class 5", "Section A",
		"Mathematics", "GENERAL", nil, nil, "Admin One",
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND v.status = $1 ORDER BY v.created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("assigned").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM videos v WHERE 1=1 AND v.status = $1")).
		WithArgs("assigned").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.StatusAssigned
	videos, total, err := repo.List(context.Background(), models.VideoFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoAssignReviewerGuard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET assigned_reviewer_id = $2, status = $3, assigned_at = $4, updated_at = $4")).
		WithArgs("v1", "r1", "assigned", now, "unassigned", "assigned").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AssignReviewer(context.Background(), "v1", "r1", now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoAssignReviewerGuardMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec("UPDATE videos SET assigned_reviewer_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.AssignReviewer(context.Background(), "v1", "r1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoSetReviewColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now().UTC()
	payload := []byte(`{"overall":"good"}`)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET review = $2, status = $3, reviewed_at = $4, updated_at = $4")).
		WithArgs("v1", payload, "reviewed", now, "assigned", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetReview(context.Background(), "v1", "r1", payload, false, now)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET language_review = $2, status = $3, reviewed_at = $4, updated_at = $4")).
		WithArgs("v2", payload, "reviewed", now, "assigned", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err = repo.SetReview(context.Background(), "v2", "r1", payload, true, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoPublishGuard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET status = $2, published_at = $3, updated_at = $3")).
		WithArgs("v1", "published", now, "reviewed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Publish(context.Background(), "v1", now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoSetTeacherCommentGuard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now().UTC()
	payload := []byte(`{"comment":"thank you"}`)
	mock.ExpectExec("UPDATE videos SET teacher_comment").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetTeacherComment(context.Background(), "v1", "t1", payload, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
