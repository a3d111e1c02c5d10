package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the "code" field of every error body.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidOperation   = "INVALID_OPERATION"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the JSON body written for failed requests.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError without details.
func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// NewAPIErrorWithDetails creates an APIError; details is usually a map of
// field name to message.
func NewAPIErrorWithDetails(code, message string, details any) *APIError {
	return &APIError{Code: code, Message: message, Details: details}
}

// RespondWithError writes err with statusCode and stops the handler chain.
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

// fallback messages used when a helper is called with an empty message
var defaultMessages = map[string]string{
	ErrCodeUnauthorized:       "Authentication required",
	ErrCodeForbidden:          "Access denied",
	ErrCodeNotFound:           "Resource not found",
	ErrCodeInvalidInput:       "Invalid request",
	ErrCodeInternalError:      "Internal server error",
	ErrCodeServiceUnavailable: "Service temporarily unavailable",
}

func respond(c *gin.Context, status int, code, message string, details any) {
	if message == "" {
		message = defaultMessages[code]
	}
	RespondWithError(c, status, NewAPIErrorWithDetails(code, message, details))
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message, nil)
}

// InvalidToken sends a 400 response for a caller-supplied token that failed
// verification.
func InvalidToken(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidToken, message, nil)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message, nil)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message, nil)
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, nil)
}

// BadRequestWithDetails sends a 400 response with per-field details.
func BadRequestWithDetails(c *gin.Context, message string, details any) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, details)
}

// InvalidOperation sends a 400 response for a well-formed request that breaks
// a business rule.
func InvalidOperation(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidOperation, message, nil)
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message, nil)
}

// ServiceUnavailable sends a 500 response when a downstream dependency such
// as the mail server or Google's key endpoint failed.
func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeServiceUnavailable, message, nil)
}
