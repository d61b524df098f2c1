package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

// RefEntityRepository provides database access for a bare named reference
// table (classes, sections). The table name is fixed at construction and
// never taken from user input.
type RefEntityRepository struct {
	db    *sqlx.DB
	table string
}

// NewClassRepository creates the repository backing the classes table.
func NewClassRepository(db *sqlx.DB) *RefEntityRepository {
	return &RefEntityRepository{db: db, table: "classes"}
}

// NewSectionRepository creates the repository backing the sections table.
func NewSectionRepository(db *sqlx.DB) *RefEntityRepository {
	return &RefEntityRepository{db: db, table: "sections"}
}

// List returns reference entities matching the filter with a total count.
func (r *RefEntityRepository) List(ctx context.Context, filter models.RefEntityFilter) ([]models.RefEntity, int, error) {
	baseQuery := fmt.Sprintf(`FROM %s WHERE 1=1`, r.table)
	var args []interface{}

	if filter.Search != "" {
		baseQuery += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	if sortBy != "name" && sortBy != "created_at" && sortBy != "updated_at" {
		sortBy = "name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
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

	listQuery := fmt.Sprintf("SELECT id, name, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, limit, offset)

	var entities []models.RefEntity
	if err := r.db.SelectContext(ctx, &entities, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table, err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}

	return entities, total, nil
}

// FindByID returns a reference entity by identifier.
func (r *RefEntityRepository) FindByID(ctx context.Context, id string) (*models.RefEntity, error) {
	query := fmt.Sprintf(`SELECT id, name, created_at, updated_at FROM %s WHERE id = $1 LIMIT 1`, r.table)
	var entity models.RefEntity
	if err := r.db.GetContext(ctx, &entity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by id: %w", r.table, err)
	}
	return &entity, nil
}

// FindByName returns a reference entity by exact name, case-insensitive.
func (r *RefEntityRepository) FindByName(ctx context.Context, name string) (*models.RefEntity, error) {
	query := fmt.Sprintf(`SELECT id, name, created_at, updated_at FROM %s WHERE LOWER(name) = LOWER($1) LIMIT 1`, r.table)
	var entity models.RefEntity
	if err := r.db.GetContext(ctx, &entity, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by name: %w", r.table, err)
	}
	return &entity, nil
}

// Create inserts a new reference entity.
func (r *RefEntityRepository) Create(ctx context.Context, entity *models.RefEntity) error {
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO %s (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`, r.table)
	if _, err := r.db.ExecContext(ctx, query, entity.ID, entity.Name, entity.CreatedAt, entity.UpdatedAt); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// Update renames a reference entity.
func (r *RefEntityRepository) Update(ctx context.Context, entity *models.RefEntity) error {
	entity.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE %s SET name = $2, updated_at = $3 WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, entity.ID, entity.Name, entity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a reference entity.
func (r *RefEntityRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
