package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

// ErrorSource pinpoints the offending field of a failed request.
type ErrorSource struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Envelope represents the common response contract.
type Envelope struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Data         interface{}        `json:"data,omitempty"`
	Meta         *models.Pagination `json:"meta,omitempty"`
	ErrorSources []ErrorSource      `json:"errorSources,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, message string, data interface{}, meta *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data, nil)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{
		Success:      false,
		Message:      appErr.Message,
		ErrorSources: sources(appErr),
	})
}

func sources(appErr *appErrors.Error) []ErrorSource {
	var fieldErrs validator.ValidationErrors
	if appErr.Err != nil && isValidationErrors(appErr.Err, &fieldErrs) {
		out := make([]ErrorSource, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ErrorSource{
				Path:    strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Message: fieldMessage(fe),
			})
		}
		return out
	}
	return []ErrorSource{{Path: "", Message: appErr.Message}}
}

func isValidationErrors(err error, dest *validator.ValidationErrors) bool {
	if ve, ok := err.(validator.ValidationErrors); ok {
		*dest = ve
		return true
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
