package models

import "time"

// SubjectCategory selects the rubric variant applied to a subject's videos.
// The category is an explicit field so renaming a subject can never silently
// switch its rubric.
type SubjectCategory string

const (
	CategoryGeneral  SubjectCategory = "GENERAL"
	CategoryLanguage SubjectCategory = "LANGUAGE"
)

// RefEntity is a bare named reference record backing the classes and
// sections tables.
type RefEntity struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subject extends the reference shape with a rubric category.
type Subject struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  SubjectCategory `db:"category" json:"category"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// RefEntityFilter captures list criteria shared by the reference entities.
type RefEntityFilter struct {
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
