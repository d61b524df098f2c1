package dto

// RefEntityRequest creates or renames a class or section.
type RefEntityRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// SubjectRequest creates or updates a subject. Category decides which rubric
// variant applies to the subject's videos.
type SubjectRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Category string `json:"category" validate:"required,oneof=GENERAL LANGUAGE"`
}
