package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

type refEntityRepository interface {
	List(ctx context.Context, filter models.RefEntityFilter) ([]models.RefEntity, int, error)
	FindByID(ctx context.Context, id string) (*models.RefEntity, error)
	FindByName(ctx context.Context, name string) (*models.RefEntity, error)
	Create(ctx context.Context, entity *models.RefEntity) error
	Update(ctx context.Context, entity *models.RefEntity) error
	Delete(ctx context.Context, id string) error
}

type subjectRepository interface {
	List(ctx context.Context, filter models.RefEntityFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByName(ctx context.Context, name string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// RefEntityService provides CRUD for a named reference table (classes or
// sections). One service instance serves one table; the label is used in
// user-facing messages.
type RefEntityService struct {
	repo      refEntityRepository
	label     string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRefEntityService constructs a RefEntityService instance.
func NewRefEntityService(repo refEntityRepository, label string, validate *validator.Validate, logger *zap.Logger) *RefEntityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RefEntityService{repo: repo, label: label, validator: validate, logger: logger}
}

// List returns reference entities matching the filter.
func (s *RefEntityService) List(ctx context.Context, filter models.RefEntityFilter) ([]models.RefEntity, *models.Pagination, error) {
	entities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+s.label)
	}
	return entities, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a single reference entity by identifier.
func (s *RefEntityService) Get(ctx context.Context, id string) (*models.RefEntity, error) {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+s.label)
	}
	return entity, nil
}

// Create inserts a new reference entity. Names are unique case-insensitively.
func (s *RefEntityService) Create(ctx context.Context, req dto.RefEntityRequest) (*models.RefEntity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+s.label+" payload")
	}

	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a "+s.label+" with this name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}

	entity := &models.RefEntity{Name: name}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+s.label)
	}
	return entity, nil
}

// Update renames an existing reference entity.
func (s *RefEntityService) Update(ctx context.Context, id string, req dto.RefEntityRequest) (*models.RefEntity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+s.label+" payload")
	}

	name := strings.TrimSpace(req.Name)
	if existing, err := s.repo.FindByName(ctx, name); err == nil && existing.ID != id {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a "+s.label+" with this name already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}

	entity := &models.RefEntity{ID: id, Name: name}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+s.label)
	}
	return entity, nil
}

// Delete removes a reference entity. Entities referenced by videos cannot be
// deleted; the foreign key rejects the statement and a conflict is returned.
func (s *RefEntityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		if isForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "this "+s.label+" is referenced by existing videos")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+s.label)
	}
	return nil
}

// SubjectService provides CRUD for subjects including their rubric category.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, filter models.RefEntityFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a single subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create inserts a new subject.
func (s *SubjectService) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}

	subject := &models.Subject{Name: name, Category: models.SubjectCategory(req.Category)}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update renames a subject or changes its category. Category changes apply
// only to videos uploaded afterwards; existing reviews keep their shape.
func (s *SubjectService) Update(ctx context.Context, id string, req dto.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	name := strings.TrimSpace(req.Name)
	if existing, err := s.repo.FindByName(ctx, name); err == nil && existing.ID != id {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}

	subject := &models.Subject{ID: id, Name: name, Category: models.SubjectCategory(req.Category)}
	if err := s.repo.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject unless videos reference it.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if isForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "this subject is referenced by existing videos")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
