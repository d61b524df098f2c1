package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/madrasah-labs/class-review-api/internal/dto"
	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
	"github.com/madrasah-labs/class-review-api/pkg/mail"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

// UserServiceConfig defines configuration for user management flows.
type UserServiceConfig struct {
	BcryptCost  int
	FrontendURL string
}

// UserService provides user management use cases.
type UserService struct {
	repo      userRepository
	mailer    mail.Mailer
	validator *validator.Validate
	logger    *zap.Logger
	config    UserServiceConfig
	now       func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, mailer mail.Mailer, validate *validator.Validate, logger *zap.Logger, config UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost < bcrypt.MinCost {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, mailer: mailer, validator: validate, logger: logger, config: config, now: time.Now}
}

// CreateTeacher onboards a teacher account with a generated temporary
// password. The welcome mail is sent after the account is committed; a mail
// failure does not roll the account back.
func (s *UserService) CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest) (*dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       string(hash),
		Roles:              pq.StringArray{string(models.RoleTeacher)},
		Active:             true,
		MustChangePassword: true,
		Phone:              req.Phone,
		DateOfBirth:        req.DateOfBirth,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if s.mailer != nil {
		msg := mail.Message{
			ToName:  user.Name,
			ToEmail: user.Email,
			Subject: "Your account is ready",
			TextBody: fmt.Sprintf(
				"Hello %s,\n\nAn account has been created for you. Sign in at %s with:\n\nEmail: %s\nTemporary password: %s\n\nYou will be asked to change the password on first sign in.",
				user.Name, s.config.FrontendURL, user.Email, tempPassword,
			),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("welcome mail failed, account was still created",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]dto.UserResponse, *models.Pagination, error) {
	if filter.Role != nil && !models.ValidRole(string(*filter.Role)) {
		return nil, nil, appErrors.Clone(appErrors.ErrBadRequest, "unknown role filter")
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	return dto.NewUserResponses(users), models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a single user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateProfile applies partial profile updates to the given user.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		user.DateOfBirth = req.DateOfBirth
	}
	if req.ImageURL != nil {
		user.ImageURL = req.ImageURL
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// SetActive activates or deactivates an account. Deactivated users keep all
// their historical data; they simply can no longer sign in.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update active flag")
	}
	return nil
}

// EnsureBootstrapAdmin seeds the initial senior admin account when none
// exists. It is idempotent and safe to run on every startup.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.repo.CountByRole(ctx, models.RoleSeniorAdmin)
	if err != nil {
		return fmt.Errorf("count senior admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := &models.User{
		Name:               name,
		Email:              strings.ToLower(email),
		PasswordHash:       string(hash),
		Roles:              pq.StringArray{string(models.RoleSeniorAdmin)},
		Active:             true,
		MustChangePassword: true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
