package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleSeniorAdmin UserRole = "SENIOR_ADMIN"
	RoleTeacher     UserRole = "TEACHER"
	RoleManagement  UserRole = "MANAGEMENT"
)

// ValidRole reports whether the raw value names a known role.
func ValidRole(raw string) bool {
	switch UserRole(raw) {
	case RoleAdmin, RoleSeniorAdmin, RoleTeacher, RoleManagement:
		return true
	}
	return false
}

// User represents an application user stored in the users table. Users are
// never deleted; deactivation flips the active flag.
type User struct {
	ID                 string         `db:"id" json:"id"`
	Name               string         `db:"name" json:"name"`
	Email              string         `db:"email" json:"email"`
	PasswordHash       string         `db:"password_hash" json:"-"`
	Roles              pq.StringArray `db:"roles" json:"roles"`
	Active             bool           `db:"active" json:"active"`
	MustChangePassword bool           `db:"must_change_password" json:"must_change_password"`
	ResetToken         *string        `db:"reset_token" json:"-"`
	ResetTokenExpires  *time.Time     `db:"reset_token_expires_at" json:"-"`
	Phone              *string        `db:"phone" json:"phone,omitempty"`
	DateOfBirth        *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ImageURL           *string        `db:"image_url" json:"image_url,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if UserRole(r) == role {
			return true
		}
	}
	return false
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
}

// NewPagination derives pagination metadata from a page request and total count.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPage := 0
	if total > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPage: totalPage}
}
