package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/uniedit/payments/internal/shared/errors"
)

// Error sends an error body with the given status and code.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, apperrors.ErrorResponse{
		Error: apperrors.ErrorDetail{Code: code, Message: message},
	})
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// AppError writes an *AppError, optionally merging extra top-level fields into the body.
func AppError(c *gin.Context, err *apperrors.AppError, extra gin.H) {
	body := gin.H{"error": err.ToResponse().Error}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(err.StatusCode, body)
}

// ErrorMapping maps domain errors to HTTP status codes.
type ErrorMapping struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// HandleError handles an error using the provided mappings.
// Returns true if the error was handled, false otherwise.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		AppError(c, appErr, nil)
		return true
	}

	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(c, m.Status, m.Code, msg)
			return true
		}
	}
	return false
}

// HandleErrorWithDefault handles err with mappings and falls back to a 500.
func HandleErrorWithDefault(c *gin.Context, err error, mappings []ErrorMapping) {
	if HandleError(c, err, mappings) {
		return
	}
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}
