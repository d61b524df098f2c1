package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

func TestRefEntityFindByNameCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
		AddRow("c1", "Class 5", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE LOWER(name) = LOWER($1) LIMIT 1")).
		WithArgs("class 5").
		WillReturnRows(rows)

	entity, err := repo.FindByName(context.Background(), "class 5")
	require.NoError(t, err)
	assert.Equal(t, "Class 5", entity.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefEntityUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET name = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.RefEntity{ID: "absent", Name: "Section Z"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefEntityDeleteForeignKeySurfaces(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	pqErr := &pq.Error{Code: "23503", Message: "violates foreign key constraint"}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
		WithArgs("c1").
		WillReturnError(pqErr)

	err := repo.Delete(context.Background(), "c1")
	require.Error(t, err)
	var got *pq.Error
	assert.ErrorAs(t, err, &got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefEntityListDefaultsToNameAscending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
		AddRow("c1", "Class 5", now, now).
		AddRow("c2", "Class 6", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE 1=1 ORDER BY name ASC LIMIT 10 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	entities, total, err := repo.List(context.Background(), models.RefEntityFilter{})
	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
