package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

var reportCols = []string{
	"id", "status", "class_id", "class_name", "subject_id", "subject_name", "subject_category",
	"teacher_id", "teacher_name", "assigned_reviewer_id", "reviewer_name",
	"date", "created_at", "assigned_at", "reviewed_at", "published_at",
	"review", "language_review", "has_teacher_comment",
}

func TestReportScanDecodesRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	reviewerID := "r1"
	reviewerName := "Sister Khadija"
	review := []byte(`{"subjectKnowledge":{"rating":5},"lessonPlanning":{"rating":5}}`)

	rows := sqlmock.NewRows(reportCols).
		AddRow("v1", "published", "c1", "Class 5", "su1", "Mathematics", "GENERAL",
			"t1", "Ustadh Bilal", &reviewerID, &reviewerName,
			now, now, &now, &now, &now,
			review, nil, true).
		AddRow("v2", "unassigned", "c1", "Class 5", "su2", "Quran", "LANGUAGE",
			"t1", "Ustadh Bilal", nil, nil,
			now, now, nil, nil, nil,
			nil, nil, false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM videos v")).WillReturnRows(rows)

	videos, err := repo.Scan(context.Background(), models.DateRange{})
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, models.StatusPublished, videos[0].Status)
	assert.True(t, videos[0].HasTeacherComment)
	require.NotNil(t, videos[0].Review)
	assert.Equal(t, 5, videos[0].Review.SubjectKnowledge.Rating)

	assert.Equal(t, models.CategoryLanguage, videos[1].SubjectCategory)
	assert.Nil(t, videos[1].ReviewerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportScanAppliesDateRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("AND v.date >= $1 AND v.date <= $2 ORDER BY v.date ASC")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(reportCols))

	videos, err := repo.Scan(context.Background(), models.DateRange{From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCountDistinctReviewers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT assigned_reviewer_id) FROM videos WHERE assigned_reviewer_id IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountDistinctReviewers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
