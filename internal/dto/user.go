package dto

import (
	"time"

	"github.com/madrasah-labs/class-review-api/internal/models"
)

// CreateTeacherRequest is the admin payload for onboarding a teacher account.
type CreateTeacherRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Email       string     `json:"email" validate:"required,email"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// SetActiveRequest toggles account activation.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserResponse is the API representation of a user account.
type UserResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Roles              []string   `json:"roles"`
	Active             bool       `json:"active"`
	MustChangePassword bool       `json:"mustChangePassword"`
	Phone              *string    `json:"phone,omitempty"`
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty"`
	ImageURL           *string    `json:"imageUrl,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// NewUserResponse maps a user model into its API shape.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Roles:              u.Roles,
		Active:             u.Active,
		MustChangePassword: u.MustChangePassword,
		Phone:              u.Phone,
		DateOfBirth:        u.DateOfBirth,
		ImageURL:           u.ImageURL,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
